// internal/infra/telegram/checkin_handlers.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"kairos_assistant_bot/internal/app"
)

// RegisterCheckInHandlers wires the sleep/wake buttons and the free-text
// route. A text message while a check-in is awaiting a reply is treated
// as that reply; otherwise the bot nudges toward the command surface.
func RegisterCheckInHandlers(
	ctx context.Context,
	b *telebot.Bot,
	checkInService app.CheckInService,
	activityService app.ActivityService,
	baseLogger *logrus.Entry,
) {
	handlerLogger := baseLogger.WithField("handler_group", "check_in")

	b.Handle(telebot.OnCallback, func(c telebot.Context) error {
		// telebot prefixes callback data from markup.Data buttons with "\f"
		// and may append a payload after "|".
		data := strings.TrimPrefix(c.Callback().Data, "\f")
		if i := strings.IndexByte(data, '|'); i >= 0 {
			data = data[:i]
		}
		chatID := c.Chat().ID
		logCtx := handlerLogger.WithFields(logrus.Fields{
			"callback": data,
			"chat_id":  chatID,
		})

		switch data {
		case "checkin_sleep":
			if err := checkInService.HandleSleep(ctx, chatID); err != nil {
				logCtx.WithError(err).Error("Failed to enter sleep mode")
				return c.Respond(&telebot.CallbackResponse{Text: "Couldn't switch to sleep mode."})
			}
			if err := c.Send("😴 Sleep mode on. Check-ins are paused until you press ☀️ Wake. Good night!"); err != nil {
				logCtx.WithError(err).Error("Failed to send sleep confirmation")
			}
			return c.Respond(&telebot.CallbackResponse{Text: "Sleep mode on"})

		case "checkin_wake":
			hours, err := checkInService.HandleWake(ctx, chatID)
			if err != nil {
				if errors.Is(err, app.ErrNotSleeping) {
					return c.Respond(&telebot.CallbackResponse{Text: "You're not in sleep mode."})
				}
				logCtx.WithError(err).Error("Failed to process wake")
				return c.Respond(&telebot.CallbackResponse{Text: "Couldn't process the wake-up."})
			}
			msg := fmt.Sprintf("☀️ Good morning! You slept about %.1f hours. Check-ins are back on.", hours)
			if err := c.Send(msg); err != nil {
				logCtx.WithError(err).Error("Failed to send wake confirmation")
			}
			return c.Respond(&telebot.CallbackResponse{Text: "Awake!"})
		}

		logCtx.Warn("Unhandled callback data")
		return c.Respond(&telebot.CallbackResponse{Text: "Unknown action."})
	})

	b.Handle(telebot.OnText, func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := handlerLogger.WithField("chat_id", chatID)

		pending, err := checkInService.PendingCheckIn(ctx)
		if err != nil {
			logCtx.WithError(err).Error("Failed to resolve outstanding check-in for reply")
			return c.Send("Something went wrong on my side. Please try again in a minute.")
		}
		if pending == nil {
			return c.Send("No check-in is waiting for a reply right now. Use /add to capture a task, or /help for commands.")
		}

		judgment, err := activityService.ProcessReply(ctx, pending, c.Text())
		if err != nil {
			logCtx.WithError(err).WithField("check_in_id", pending.ID).Error("Failed to process check-in reply")
			return c.Send("I couldn't record that one. Please send it again.")
		}

		var reply strings.Builder
		reply.WriteString(typeEmoji(judgment) + " " + judgment.Summary + "\n")
		fmt.Fprintf(&reply, "Alignment: %d/10 | %s\n", judgment.AlignmentScore, judgment.Category)
		if judgment.Feedback != "" {
			reply.WriteString("\n" + judgment.Feedback)
		}
		return c.Send(reply.String())
	})
}

func typeEmoji(j *app.ActivityJudgment) string {
	switch j.ProductivityType {
	case "aligned":
		return "✅"
	case "wasted":
		return "⚠️"
	default:
		return "💡"
	}
}
