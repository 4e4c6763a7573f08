package scheduler

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"

	"kairos_assistant_bot/internal/domain/checkin"
	"kairos_assistant_bot/internal/domain/recipient"
	idb "kairos_assistant_bot/internal/infra/database"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

type fakeCheckInService struct {
	dispatched []time.Time
	swept      int
}

func (f *fakeCheckInService) Dispatch(ctx context.Context, chatID int64, scheduledTime time.Time) (*checkin.CheckIn, error) {
	f.dispatched = append(f.dispatched, scheduledTime)
	return &checkin.CheckIn{ID: int64(len(f.dispatched)), ScheduledTime: scheduledTime, Status: checkin.StatusSent}, nil
}

func (f *fakeCheckInService) PendingCheckIn(ctx context.Context) (*checkin.CheckIn, error) {
	return nil, nil
}

func (f *fakeCheckInService) ClearPending() {}

func (f *fakeCheckInService) SweepStale(ctx context.Context) (int64, error) {
	f.swept++
	return 0, nil
}

func (f *fakeCheckInService) HandleSleep(ctx context.Context, chatID int64) error { return nil }

func (f *fakeCheckInService) HandleWake(ctx context.Context, chatID int64) (float64, error) {
	return 0, nil
}

type fakeReportService struct {
	saved    []time.Time
	rendered []time.Time
}

func (f *fakeReportService) DailyReport(ctx context.Context, day time.Time) (string, error) {
	f.rendered = append(f.rendered, day)
	return "report", nil
}

func (f *fakeReportService) SaveDailyMetrics(ctx context.Context, day time.Time) error {
	f.saved = append(f.saved, day)
	return nil
}

type fakeRecipientRepo struct {
	cfg *recipient.Config
}

func (f *fakeRecipientRepo) Create(ctx context.Context, cfg *recipient.Config) error { return nil }

func (f *fakeRecipientRepo) GetByChatID(ctx context.Context, chatID int64) (*recipient.Config, error) {
	if f.cfg == nil {
		return nil, idb.ErrRecipientNotFound
	}
	return f.cfg, nil
}

func (f *fakeRecipientRepo) GetEnabled(ctx context.Context) (*recipient.Config, error) {
	if f.cfg == nil || !f.cfg.CheckInsEnabled {
		return nil, idb.ErrRecipientNotFound
	}
	return f.cfg, nil
}

func (f *fakeRecipientRepo) SetSleeping(ctx context.Context, chatID int64, at time.Time) error {
	f.cfg.IsSleeping = true
	f.cfg.SleepStartTime = sql.NullTime{Time: at, Valid: true}
	return nil
}

func (f *fakeRecipientRepo) SetAwake(ctx context.Context, chatID int64, at time.Time) error {
	f.cfg.IsSleeping = false
	return nil
}

type scriptedBusy struct {
	answers []bool
	calls   int
}

func (s *scriptedBusy) IsBusy(ctx context.Context, chatID int64) bool {
	if s.calls >= len(s.answers) {
		return false
	}
	busy := s.answers[s.calls]
	s.calls++
	return busy
}

type fakeTelegram struct {
	sent []string
}

func (f *fakeTelegram) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	f.sent = append(f.sent, text)
	return nil
}

// pendingTimer is a retry callback captured instead of armed.
type pendingTimer struct {
	delay time.Duration
	fn    func()
}

type fixture struct {
	s       *CheckInScheduler
	checkIn *fakeCheckInService
	reports *fakeReportService
	busy    *scriptedBusy
	tg      *fakeTelegram
	timers  *[]pendingTimer
	clock   *time.Time
}

func newFixture(busyAnswers ...bool) *fixture {
	checkIn := &fakeCheckInService{}
	reports := &fakeReportService{}
	repo := &fakeRecipientRepo{cfg: &recipient.Config{ChatID: 4242, CheckInsEnabled: true, DefaultWakeTime: "08:00"}}
	busy := &scriptedBusy{answers: busyAnswers}
	tg := &fakeTelegram{}

	s := NewCheckInScheduler(checkIn, reports, repo, busy, tg, testLogger(), "0 * * * *", "*/30 * * * *", "55 23 * * *")

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	clock := &now
	s.now = func() time.Time { return *clock }

	captured := &[]pendingTimer{}
	s.afterFunc = func(d time.Duration, fn func()) *time.Timer {
		*captured = append(*captured, pendingTimer{delay: d, fn: fn})
		// Never fires on its own; tests invoke fn explicitly.
		t := time.NewTimer(time.Hour)
		t.Stop()
		return t
	}

	return &fixture{s: s, checkIn: checkIn, reports: reports, busy: busy, tg: tg, timers: captured, clock: clock}
}

// fireNext pops the oldest captured retry timer, advances the fake clock
// by its delay and runs the callback.
func (f *fixture) fireNext(t *testing.T) pendingTimer {
	t.Helper()
	require.NotEmpty(t, *f.timers, "expected a scheduled retry")
	next := (*f.timers)[0]
	*f.timers = (*f.timers)[1:]
	*f.clock = f.clock.Add(next.delay)
	next.fn()
	return next
}

func TestHourlyTickDispatchesWhenFree(t *testing.T) {
	f := newFixture(false)

	f.s.onHourlyTick()

	require.Len(t, f.checkIn.dispatched, 1)
	assert.Equal(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), f.checkIn.dispatched[0])
	assert.Empty(t, *f.timers)
}

func TestHourlyTickSkipsWhenSleeping(t *testing.T) {
	f := newFixture()
	f.s.recipientRepo.(*fakeRecipientRepo).cfg.IsSleeping = true

	f.s.onHourlyTick()

	assert.Empty(t, f.checkIn.dispatched)
	assert.Empty(t, *f.timers)
}

func TestHourlyTickSkipsWithoutRecipient(t *testing.T) {
	f := newFixture()
	f.s.recipientRepo.(*fakeRecipientRepo).cfg = nil

	f.s.onHourlyTick()

	assert.Empty(t, f.checkIn.dispatched)
}

func TestBusyRecipientGetsRetriedWithBackoff(t *testing.T) {
	// Busy at 10:00 and 10:05, free at 10:15.
	f := newFixture(true, true, false)

	f.s.onHourlyTick()
	assert.Empty(t, f.checkIn.dispatched)

	first := f.fireNext(t)
	assert.Equal(t, 5*time.Minute, first.delay)
	assert.Empty(t, f.checkIn.dispatched)

	second := f.fireNext(t)
	assert.Equal(t, 10*time.Minute, second.delay)

	require.Len(t, f.checkIn.dispatched, 1)
	// The dispatched record keeps the top-of-hour schedule slot.
	assert.Equal(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), f.checkIn.dispatched[0])
	assert.Empty(t, *f.timers)
}

func TestBusyRecipientAbandonedAfterThreeRetries(t *testing.T) {
	// Busy at 10:00, 10:05, 10:15 and 10:25: the hour is abandoned and no
	// record is ever created.
	f := newFixture(true, true, true, true)

	f.s.onHourlyTick()

	delays := []time.Duration{5 * time.Minute, 10 * time.Minute, 10 * time.Minute}
	for _, want := range delays {
		fired := f.fireNext(t)
		assert.Equal(t, want, fired.delay)
	}

	assert.Empty(t, *f.timers, "no retry beyond the third")
	assert.Empty(t, f.checkIn.dispatched)
	assert.Equal(t, 4, f.busy.calls)
	assert.Equal(t, time.Date(2026, 3, 2, 10, 25, 0, 0, time.UTC), *f.clock)
}

func TestMaintenanceTickDelegatesSweep(t *testing.T) {
	f := newFixture()

	f.s.onMaintenanceTick()
	f.s.onMaintenanceTick()

	assert.Equal(t, 2, f.checkIn.swept)
}

func TestDailyReportTickSavesAndDelivers(t *testing.T) {
	f := newFixture()

	f.s.onDailyReportTick()

	require.Len(t, f.reports.saved, 1)
	require.Len(t, f.reports.rendered, 1)
	require.Len(t, f.tg.sent, 1)
	assert.Equal(t, "report", f.tg.sent[0])
}

func TestStopCancelsOutstandingRetries(t *testing.T) {
	f := newFixture(true)

	f.s.onHourlyTick()
	require.Len(t, *f.timers, 1)

	f.s.Stop()
	assert.Empty(t, f.s.timers)
}
