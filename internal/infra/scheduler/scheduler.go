// internal/infra/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"kairos_assistant_bot/internal/app"
	"kairos_assistant_bot/internal/domain/recipient"
	domainTelegram "kairos_assistant_bot/internal/domain/telegram"
	idb "kairos_assistant_bot/internal/infra/database"
)

const (
	firstRetryDelay = 5 * time.Minute
	retryDelay      = 10 * time.Minute
	maxRetries      = 3
)

// CheckInScheduler drives the recurring jobs: the hourly check-in tick,
// the staleness sweep and the nightly report. When the recipient is busy
// at the top of the hour it falls back to one-shot retry timers with a
// 5/10/10 minute backoff; after three busy retries the hour is abandoned
// without creating a record.
type CheckInScheduler struct {
	cronEngine    *cron.Cron
	checkIns      app.CheckInService
	reports       app.ReportService
	recipientRepo recipient.Repository
	busy          app.BusyChecker
	telegram      domainTelegram.Client
	logger        *logrus.Entry

	cronSpecHourly      string
	cronSpecMaintenance string
	cronSpecDailyReport string

	now       func() time.Time
	afterFunc func(d time.Duration, f func()) *time.Timer

	mu     sync.Mutex
	timers []*time.Timer
}

func NewCheckInScheduler(
	checkIns app.CheckInService,
	reports app.ReportService,
	recipientRepo recipient.Repository,
	busy app.BusyChecker,
	telegramClient domainTelegram.Client,
	logger *logrus.Entry,
	cronSpecHourly string,
	cronSpecMaintenance string,
	cronSpecDailyReport string,
) *CheckInScheduler {
	return &CheckInScheduler{
		cronEngine:          cron.New(cron.WithLocation(time.Local)),
		checkIns:            checkIns,
		reports:             reports,
		recipientRepo:       recipientRepo,
		busy:                busy,
		telegram:            telegramClient,
		logger:              logger.WithField("component", "scheduler"),
		cronSpecHourly:      cronSpecHourly,
		cronSpecMaintenance: cronSpecMaintenance,
		cronSpecDailyReport: cronSpecDailyReport,
		now:                 time.Now,
		afterFunc:           time.AfterFunc,
	}
}

func (s *CheckInScheduler) Start() error {
	if _, err := s.cronEngine.AddFunc(s.cronSpecHourly, s.onHourlyTick); err != nil {
		return fmt.Errorf("add hourly check-in job: %w", err)
	}
	if _, err := s.cronEngine.AddFunc(s.cronSpecMaintenance, s.onMaintenanceTick); err != nil {
		return fmt.Errorf("add maintenance job: %w", err)
	}
	if _, err := s.cronEngine.AddFunc(s.cronSpecDailyReport, s.onDailyReportTick); err != nil {
		return fmt.Errorf("add daily report job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.WithFields(logrus.Fields{
		"hourly":      s.cronSpecHourly,
		"maintenance": s.cronSpecMaintenance,
		"report":      s.cronSpecDailyReport,
	}).Info("check-in scheduler started")
	return nil
}

func (s *CheckInScheduler) onHourlyTick() {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	cfg, ok := s.resolveRecipient(ctx)
	if !ok {
		return
	}
	if cfg.IsSleeping {
		s.logger.Info("recipient is sleeping, skipping check-in")
		return
	}

	scheduled := s.now().Truncate(time.Minute)
	if s.busy.IsBusy(ctx, cfg.ChatID) {
		s.logger.Info("recipient is busy, scheduling first retry")
		s.scheduleRetry(cfg.ChatID, scheduled, 1, firstRetryDelay)
		return
	}

	if _, err := s.checkIns.Dispatch(ctx, cfg.ChatID, scheduled); err != nil {
		s.logger.WithError(err).Error("hourly check-in dispatch failed")
	}
}

// onRetryTick re-attempts a deferred check-in. retryCount is the ordinal
// of this attempt; after the third busy attempt the hour is abandoned.
func (s *CheckInScheduler) onRetryTick(chatID int64, scheduled time.Time, retryCount int) {
	if retryCount > maxRetries {
		s.logger.WithField("retry_count", retryCount).Info("max check-in retries reached, abandoning this hour")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	if s.busy.IsBusy(ctx, chatID) {
		if retryCount >= maxRetries {
			s.logger.WithField("retry_count", retryCount).Info("recipient still busy after final retry, abandoning this hour")
			return
		}
		s.logger.WithFields(logrus.Fields{
			"retry_count": retryCount + 1,
			"delay":       retryDelay.String(),
		}).Info("recipient still busy, scheduling next retry")
		s.scheduleRetry(chatID, scheduled, retryCount+1, retryDelay)
		return
	}

	if _, err := s.checkIns.Dispatch(ctx, chatID, scheduled); err != nil {
		s.logger.WithError(err).Error("retried check-in dispatch failed")
		return
	}
	s.logger.WithField("retry_count", retryCount).Info("check-in sent after retries")
}

func (s *CheckInScheduler) scheduleRetry(chatID int64, scheduled time.Time, retryCount int, delay time.Duration) {
	t := s.afterFunc(delay, func() {
		s.onRetryTick(chatID, scheduled, retryCount)
	})
	s.mu.Lock()
	s.timers = append(s.timers, t)
	s.mu.Unlock()
}

func (s *CheckInScheduler) onMaintenanceTick() {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	if _, err := s.checkIns.SweepStale(ctx); err != nil {
		s.logger.WithError(err).Error("stale check-in sweep failed")
	}
}

func (s *CheckInScheduler) onDailyReportTick() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, ok := s.resolveRecipient(ctx)
	if !ok {
		return
	}

	day := s.now()
	if err := s.reports.SaveDailyMetrics(ctx, day); err != nil {
		s.logger.WithError(err).Error("daily metrics snapshot failed")
	}

	report, err := s.reports.DailyReport(ctx, day)
	if err != nil {
		s.logger.WithError(err).Error("daily report rendering failed")
		return
	}
	if err := s.telegram.SendMessage(cfg.ChatID, report, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown}); err != nil {
		s.logger.WithError(err).Error("daily report delivery failed")
	}
}

// resolveRecipient loads the enabled recipient, logging and skipping the
// tick when none is configured yet.
func (s *CheckInScheduler) resolveRecipient(ctx context.Context) (*recipient.Config, bool) {
	cfg, err := s.recipientRepo.GetEnabled(ctx)
	if err != nil {
		if err == idb.ErrRecipientNotFound {
			s.logger.Warn("no enabled recipient configured, skipping tick")
		} else {
			s.logger.WithError(err).Error("failed to resolve recipient")
		}
		return nil, false
	}
	return cfg, true
}

func (s *CheckInScheduler) Stop() {
	s.mu.Lock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	s.mu.Unlock()

	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("check-in scheduler stopped")
}
