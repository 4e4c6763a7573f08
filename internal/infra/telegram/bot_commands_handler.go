// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"kairos_assistant_bot/internal/app"
	"kairos_assistant_bot/internal/domain/recipient"
	idb "kairos_assistant_bot/internal/infra/database"
)

func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	recipientRepo recipient.Repository,
	taskService app.TaskService,
	reportService app.ReportService,
	defaultWakeTime string,
	baseLogger *logrus.Entry,
) {
	cmdLogger := baseLogger.WithField("handler_group", "commands")

	b.Handle("/start", func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := cmdLogger.WithField("command", "/start").WithField("chat_id", chatID)
		logCtx.Info("Processing /start command")

		_, err := recipientRepo.GetByChatID(ctx, chatID)
		if err == nil {
			return c.Send("You're already set up! Hourly check-ins are running. Use /help to see what I can do.")
		}
		if err != idb.ErrRecipientNotFound {
			logCtx.WithError(err).Error("Failed to look up recipient config")
			return c.Send("Something went wrong while checking your setup. Please try again.")
		}

		cfg := &recipient.Config{
			ChatID:          chatID,
			CheckInsEnabled: true,
			DefaultWakeTime: defaultWakeTime,
		}
		if err := recipientRepo.Create(ctx, cfg); err != nil {
			if err == idb.ErrDuplicateChatID {
				return c.Send("You're already set up! Use /help to see what I can do.")
			}
			logCtx.WithError(err).Error("Failed to create recipient config")
			return c.Send("Something went wrong while setting you up. Please try again.")
		}

		logCtx.WithField("config_id", cfg.ID).Info("Recipient configured, check-ins enabled")
		return c.Send("👋 Welcome! I'll check in with you every hour to see what you've been working on.\n\n" +
			"Add tasks with /add, and I'll measure your hours against them. Use /help for the full command list.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		var helpText strings.Builder
		helpText.WriteString("Available commands:\n\n")
		helpText.WriteString("`/add <description>`\n - Add a task. I'll triage its priority, category and due date.\n\n")
		helpText.WriteString("`/done <id>`\n - Mark a task as completed.\n\n")
		helpText.WriteString("`/unscheduled`\n - List tasks that have no due date yet.\n\n")
		helpText.WriteString("`/schedule <id> <YYYY-MM-DD> [HH:MM]`\n - Put a due date on a task.\n\n")
		helpText.WriteString("`/stats`\n - Today's productivity report.\n\n")
		helpText.WriteString("When I send an hourly check-in, just reply with what you did. Use the 😴/☀️ buttons around sleep.")
		return c.Send(helpText.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/add", func(c telebot.Context) error {
		logCtx := cmdLogger.WithField("command", "/add").WithField("chat_id", c.Chat().ID)
		rawText := strings.TrimSpace(c.Message().Payload)
		if rawText == "" {
			return c.Send("Usage: `/add <task description>`", &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
		}

		t, triage, err := taskService.ProcessNewTask(ctx, rawText)
		if err != nil {
			logCtx.WithError(err).Error("Failed to process new task")
			return c.Send("I couldn't save that task. Please try again.")
		}

		var reply strings.Builder
		fmt.Fprintf(&reply, "✅ Task #%d added: *%s*\n", t.ID, t.Name)
		fmt.Fprintf(&reply, "Priority: %s | Category: %s\n", t.Priority, t.Category)
		if t.IsScheduled {
			fmt.Fprintf(&reply, "Due: %s", t.DueDate.String)
			if t.DueTime.Valid {
				fmt.Fprintf(&reply, " %s", t.DueTime.String)
			}
			reply.WriteString("\n")
		} else {
			reply.WriteString("Due: unscheduled (use /schedule to pin it down)\n")
		}
		if triage.Pushback != nil && *triage.Pushback != "" {
			fmt.Fprintf(&reply, "\n🤔 %s", *triage.Pushback)
			if triage.SuggestedAlternative != nil && *triage.SuggestedAlternative != "" {
				fmt.Fprintf(&reply, "\nAlternative: %s", *triage.SuggestedAlternative)
			}
		}
		if triage.ClarificationNeeded != nil && *triage.ClarificationNeeded != "" {
			fmt.Fprintf(&reply, "\n❓ %s", *triage.ClarificationNeeded)
		}
		return c.Send(reply.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/done", func(c telebot.Context) error {
		logCtx := cmdLogger.WithField("command", "/done").WithField("chat_id", c.Chat().ID)
		payload := strings.TrimSpace(c.Message().Payload)
		id, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return c.Send("Usage: `/done <task id>`", &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
		}

		t, err := taskService.CompleteTask(ctx, id)
		if err != nil {
			if errors.Is(err, idb.ErrTaskNotFound) {
				return c.Send(fmt.Sprintf("I don't have a task #%d.", id))
			}
			logCtx.WithError(err).WithField("task_id", id).Error("Failed to complete task")
			return c.Send("I couldn't complete that task. Please try again.")
		}

		reply := fmt.Sprintf("🎉 Done: *%s*", t.Name)
		if t.Recurrence.Valid && t.Recurrence.String != "" {
			reply += fmt.Sprintf("\nIt recurs %s, so I've queued the next occurrence.", t.Recurrence.String)
		}
		return c.Send(reply, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/unscheduled", func(c telebot.Context) error {
		logCtx := cmdLogger.WithField("command", "/unscheduled").WithField("chat_id", c.Chat().ID)
		tasks, err := taskService.ListUnscheduled(ctx)
		if err != nil {
			logCtx.WithError(err).Error("Failed to list unscheduled tasks")
			return c.Send("I couldn't fetch your unscheduled tasks. Please try again.")
		}
		if len(tasks) == 0 {
			return c.Send("No unscheduled tasks. Everything has a date. 🗓")
		}

		var reply strings.Builder
		reply.WriteString("📅 Unscheduled tasks:\n\n")
		for _, t := range tasks {
			fmt.Fprintf(&reply, "#%d *%s* (%s, %s)\n", t.ID, t.Name, t.Priority, t.Category)
		}
		reply.WriteString("\nUse `/schedule <id> <YYYY-MM-DD> [HH:MM]` to date one.")
		return c.Send(reply.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/schedule", func(c telebot.Context) error {
		logCtx := cmdLogger.WithField("command", "/schedule").WithField("chat_id", c.Chat().ID)
		args := strings.Fields(c.Message().Payload)
		if len(args) < 2 || len(args) > 3 {
			return c.Send("Usage: `/schedule <task id> <YYYY-MM-DD> [HH:MM]`", &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("The task id must be a number.")
		}
		dueDate := args[1]
		dueTime := ""
		if len(args) == 3 {
			dueTime = args[2]
		}

		if err := taskService.ScheduleTask(ctx, id, dueDate, dueTime); err != nil {
			if errors.Is(err, app.ErrInvalidSchedule) {
				return c.Send("Dates are `YYYY-MM-DD` and times are `HH:MM` (24h).", &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
			}
			if errors.Is(err, idb.ErrTaskNotFound) {
				return c.Send(fmt.Sprintf("I don't have a task #%d.", id))
			}
			logCtx.WithError(err).WithField("task_id", id).Error("Failed to schedule task")
			return c.Send("I couldn't schedule that task. Check the id and try again.")
		}
		return c.Send(fmt.Sprintf("🗓 Task #%d scheduled for %s.", id, strings.TrimSpace(dueDate+" "+dueTime)))
	})

	b.Handle("/stats", func(c telebot.Context) error {
		logCtx := cmdLogger.WithField("command", "/stats").WithField("chat_id", c.Chat().ID)
		report, err := reportService.DailyReport(ctx, time.Now())
		if err != nil {
			logCtx.WithError(err).Error("Failed to render daily report")
			return c.Send("I couldn't build today's report. Please try again.")
		}
		return c.Send(report, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}
