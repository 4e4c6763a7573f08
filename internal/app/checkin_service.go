// internal/app/checkin_service.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"kairos_assistant_bot/internal/domain/activity"
	"kairos_assistant_bot/internal/domain/checkin"
	"kairos_assistant_bot/internal/domain/recipient"
	domainTelegram "kairos_assistant_bot/internal/domain/telegram"
	idb "kairos_assistant_bot/internal/infra/database"
)

// staleThreshold is how long a prompt may sit unanswered before the
// maintenance sweep writes it off as missed.
const staleThreshold = 90 * time.Minute

var ErrNotSleeping = fmt.Errorf("recipient has no recorded sleep start")

const checkInMessage = "⏰ *Hourly Check-In*\n\n" +
	"What did you do in the last hour?\n\n" +
	"💬 Reply with what you worked on, and I'll analyze how it aligns with your goals."

// CheckInService owns the lifecycle of hourly check-in prompts: dispatch,
// the single outstanding-prompt pointer, the staleness sweep, and the
// sleep/wake state machine with its retroactive reconciliation.
type CheckInService interface {
	// Dispatch creates a check-in record, delivers the prompt and remembers
	// it as the outstanding one awaiting a reply.
	Dispatch(ctx context.Context, chatID int64, scheduledTime time.Time) (*checkin.CheckIn, error)

	// PendingCheckIn resolves the prompt currently awaiting a reply. It
	// consults the in-memory pointer first and falls back to the newest
	// 'sent' record, so replies survive a process restart. Returns nil
	// when nothing is outstanding.
	PendingCheckIn(ctx context.Context) (*checkin.CheckIn, error)

	// ClearPending drops the in-memory pointer after a reply is processed.
	ClearPending()

	// SweepStale writes off prompts unanswered past the staleness
	// threshold. Returns the number of records moved to 'missed'.
	SweepStale(ctx context.Context) (int64, error)

	// HandleSleep records that the recipient went to sleep now.
	HandleSleep(ctx context.Context, chatID int64) error

	// HandleWake ends sleep mode and retroactively reconciles the prompts
	// fired while asleep. Returns the hours slept.
	HandleWake(ctx context.Context, chatID int64) (float64, error)
}

type CheckInServiceImpl struct {
	checkInRepo   checkin.Repository
	recipientRepo recipient.Repository
	activityRepo  activity.Repository
	telegram      domainTelegram.Client
	logger        *logrus.Entry
	now           func() time.Time

	mu        sync.Mutex
	pendingID int64 // 0 means no cached pointer
}

func NewCheckInServiceImpl(
	cr checkin.Repository,
	rr recipient.Repository,
	ar activity.Repository,
	tc domainTelegram.Client,
	logger *logrus.Entry,
) *CheckInServiceImpl {
	return &CheckInServiceImpl{
		checkInRepo:   cr,
		recipientRepo: rr,
		activityRepo:  ar,
		telegram:      tc,
		logger:        logger.WithField("service", "check_in"),
		now:           time.Now,
	}
}

func (s *CheckInServiceImpl) Dispatch(ctx context.Context, chatID int64, scheduledTime time.Time) (*checkin.CheckIn, error) {
	sentAt := s.now()
	record := &checkin.CheckIn{
		ScheduledTime: scheduledTime,
		SentTime:      sql.NullTime{Time: sentAt, Valid: true},
		Status:        checkin.StatusSent,
	}
	if err := s.checkInRepo.Create(ctx, record); err != nil {
		s.logger.WithError(err).Error("failed to create check-in record")
		return nil, fmt.Errorf("create check-in record: %w", err)
	}

	markup := &telebot.ReplyMarkup{}
	btnSleep := markup.Data("😴 Sleep", "checkin_sleep")
	btnWake := markup.Data("☀️ Wake", "checkin_wake")
	markup.Inline(markup.Row(btnSleep, btnWake))

	opts := &telebot.SendOptions{ParseMode: telebot.ModeMarkdown, ReplyMarkup: markup}
	if err := s.telegram.SendMessage(chatID, checkInMessage, opts); err != nil {
		s.logger.WithError(err).WithField("check_in_id", record.ID).Error("failed to deliver check-in prompt")
		return nil, fmt.Errorf("deliver check-in %d: %w", record.ID, err)
	}

	s.mu.Lock()
	s.pendingID = record.ID
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"check_in_id": record.ID,
		"chat_id":     chatID,
	}).Info("check-in dispatched")
	return record, nil
}

func (s *CheckInServiceImpl) PendingCheckIn(ctx context.Context) (*checkin.CheckIn, error) {
	s.mu.Lock()
	cached := s.pendingID
	s.mu.Unlock()

	if cached != 0 {
		record, err := s.checkInRepo.GetByID(ctx, cached)
		if err == nil && record.Status == checkin.StatusSent {
			return record, nil
		}
		// Pointer went stale (record missed, completed or gone); drop it
		// and fall through to the durable lookup.
		s.mu.Lock()
		if s.pendingID == cached {
			s.pendingID = 0
		}
		s.mu.Unlock()
	}

	record, err := s.checkInRepo.LatestSent(ctx)
	if err != nil {
		if err == idb.ErrCheckInNotFound {
			return nil, nil
		}
		s.logger.WithError(err).Error("failed to resolve outstanding check-in")
		return nil, fmt.Errorf("resolve outstanding check-in: %w", err)
	}

	s.mu.Lock()
	s.pendingID = record.ID
	s.mu.Unlock()
	return record, nil
}

func (s *CheckInServiceImpl) ClearPending() {
	s.mu.Lock()
	s.pendingID = 0
	s.mu.Unlock()
}

func (s *CheckInServiceImpl) SweepStale(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-staleThreshold)
	n, err := s.checkInRepo.MarkStaleAsMissed(ctx, cutoff)
	if err != nil {
		s.logger.WithError(err).Error("stale check-in sweep failed")
		return 0, fmt.Errorf("mark stale check-ins: %w", err)
	}
	if n > 0 {
		s.logger.WithField("count", n).Info("stale check-ins marked as missed")
	}
	return n, nil
}

func (s *CheckInServiceImpl) HandleSleep(ctx context.Context, chatID int64) error {
	now := s.now()
	if err := s.recipientRepo.SetSleeping(ctx, chatID, now); err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Error("failed to enter sleep mode")
		return fmt.Errorf("enter sleep mode: %w", err)
	}
	s.ClearPending()
	s.logger.WithField("chat_id", chatID).Info("recipient entered sleep mode")
	return nil
}

func (s *CheckInServiceImpl) HandleWake(ctx context.Context, chatID int64) (float64, error) {
	cfg, err := s.recipientRepo.GetByChatID(ctx, chatID)
	if err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Error("failed to load recipient for wake")
		return 0, fmt.Errorf("load recipient %d: %w", chatID, err)
	}
	if !cfg.SleepStartTime.Valid {
		s.logger.WithField("chat_id", chatID).Warn("wake pressed without a recorded sleep start")
		return 0, ErrNotSleeping
	}

	now := s.now()
	sleepStart := cfg.SleepStartTime.Time

	// Reconciliation never reaches back past this morning's default wake
	// time, so a sleep that started yesterday evening leaves today's
	// daytime prompts untouched.
	retroStart := defaultWakeToday(now, cfg.DefaultWakeTime)
	if sleepStart.After(retroStart) {
		retroStart = sleepStart
	}

	marked, err := s.checkInRepo.MarkSleepingBetween(ctx, retroStart, now)
	if err != nil {
		s.logger.WithError(err).Error("failed to mark sleeping check-ins")
		return 0, fmt.Errorf("mark sleeping check-ins: %w", err)
	}

	slept, err := s.checkInRepo.ListSleepingBetween(ctx, retroStart, now)
	if err != nil {
		s.logger.WithError(err).Error("failed to list sleeping check-ins")
		return 0, fmt.Errorf("list sleeping check-ins: %w", err)
	}
	for _, c := range slept {
		entry := &activity.LogEntry{
			Timestamp:        c.ScheduledTime,
			Summary:          "Sleeping",
			ProductivityType: activity.TypeSleeping,
			CheckInID:        c.ID,
		}
		if _, err := s.activityRepo.CreateIfAbsent(ctx, entry); err != nil {
			s.logger.WithError(err).WithField("check_in_id", c.ID).Error("failed to synthesize sleeping activity entry")
			return 0, fmt.Errorf("synthesize sleeping entry for check-in %d: %w", c.ID, err)
		}
	}

	if err := s.recipientRepo.SetAwake(ctx, chatID, now); err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Error("failed to leave sleep mode")
		return 0, fmt.Errorf("leave sleep mode: %w", err)
	}
	s.ClearPending()

	hoursSlept := now.Sub(sleepStart).Hours()
	s.logger.WithFields(logrus.Fields{
		"chat_id":     chatID,
		"hours_slept": fmt.Sprintf("%.1f", hoursSlept),
		"reconciled":  marked,
	}).Info("recipient woke up")
	return hoursSlept, nil
}

// defaultWakeToday anchors the "HH:MM" default wake setting to now's date.
// A malformed setting falls back to 08:00.
func defaultWakeToday(now time.Time, wakeSetting string) time.Time {
	parsed, err := time.Parse("15:04", wakeSetting)
	if err != nil {
		parsed, _ = time.Parse("15:04", "08:00")
	}
	return time.Date(now.Year(), now.Month(), now.Day(), parsed.Hour(), parsed.Minute(), 0, 0, now.Location())
}
