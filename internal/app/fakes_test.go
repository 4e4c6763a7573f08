package app

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"gopkg.in/telebot.v3"

	"kairos_assistant_bot/internal/domain/activity"
	"kairos_assistant_bot/internal/domain/checkin"
	"kairos_assistant_bot/internal/domain/recipient"
	"kairos_assistant_bot/internal/domain/task"
	idb "kairos_assistant_bot/internal/infra/database"
)

// In-memory repository fakes backing the service tests.

type fakeCheckInRepo struct {
	nextID  int64
	records map[int64]*checkin.CheckIn
}

func newFakeCheckInRepo() *fakeCheckInRepo {
	return &fakeCheckInRepo{records: make(map[int64]*checkin.CheckIn)}
}

func (r *fakeCheckInRepo) Create(ctx context.Context, c *checkin.CheckIn) error {
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Now()
	cp := *c
	r.records[c.ID] = &cp
	return nil
}

func (r *fakeCheckInRepo) GetByID(ctx context.Context, id int64) (*checkin.CheckIn, error) {
	c, ok := r.records[id]
	if !ok {
		return nil, idb.ErrCheckInNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCheckInRepo) LatestSent(ctx context.Context) (*checkin.CheckIn, error) {
	var latest *checkin.CheckIn
	for _, c := range r.records {
		if c.Status != checkin.StatusSent || !c.SentTime.Valid {
			continue
		}
		if latest == nil || c.SentTime.Time.After(latest.SentTime.Time) {
			latest = c
		}
	}
	if latest == nil {
		return nil, idb.ErrCheckInNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *fakeCheckInRepo) MarkCompleted(ctx context.Context, id int64, respondedAt time.Time) error {
	c, ok := r.records[id]
	if !ok {
		return idb.ErrCheckInNotFound
	}
	c.Status = checkin.StatusCompleted
	c.ResponseTime = sql.NullTime{Time: respondedAt, Valid: true}
	return nil
}

func (r *fakeCheckInRepo) MarkStaleAsMissed(ctx context.Context, sentBefore time.Time) (int64, error) {
	var n int64
	for _, c := range r.records {
		if c.Status == checkin.StatusSent && c.SentTime.Valid && c.SentTime.Time.Before(sentBefore) {
			c.Status = checkin.StatusMissed
			n++
		}
	}
	return n, nil
}

func (r *fakeCheckInRepo) MarkSleepingBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	for _, c := range r.records {
		if c.ScheduledTime.Before(from) || c.ScheduledTime.After(to) {
			continue
		}
		switch c.Status {
		case checkin.StatusMissed, checkin.StatusSent, checkin.StatusPending:
			c.Status = checkin.StatusSleeping
			n++
		}
	}
	return n, nil
}

func (r *fakeCheckInRepo) ListSleepingBetween(ctx context.Context, from, to time.Time) ([]*checkin.CheckIn, error) {
	var out []*checkin.CheckIn
	for _, c := range r.records {
		if c.Status == checkin.StatusSleeping && !c.ScheduledTime.Before(from) && !c.ScheduledTime.After(to) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledTime.Before(out[j].ScheduledTime) })
	return out, nil
}

func (r *fakeCheckInRepo) CountByStatusBetween(ctx context.Context, from, to time.Time) (map[checkin.Status]int, error) {
	counts := make(map[checkin.Status]int)
	for _, c := range r.records {
		if !c.ScheduledTime.Before(from) && c.ScheduledTime.Before(to) {
			counts[c.Status]++
		}
	}
	return counts, nil
}

type fakeRecipientRepo struct {
	nextID  int64
	configs map[int64]*recipient.Config // keyed by chat id
}

func newFakeRecipientRepo() *fakeRecipientRepo {
	return &fakeRecipientRepo{configs: make(map[int64]*recipient.Config)}
}

func (r *fakeRecipientRepo) Create(ctx context.Context, cfg *recipient.Config) error {
	if _, ok := r.configs[cfg.ChatID]; ok {
		return idb.ErrDuplicateChatID
	}
	r.nextID++
	cfg.ID = r.nextID
	cp := *cfg
	r.configs[cfg.ChatID] = &cp
	return nil
}

func (r *fakeRecipientRepo) GetByChatID(ctx context.Context, chatID int64) (*recipient.Config, error) {
	cfg, ok := r.configs[chatID]
	if !ok {
		return nil, idb.ErrRecipientNotFound
	}
	cp := *cfg
	return &cp, nil
}

func (r *fakeRecipientRepo) GetEnabled(ctx context.Context) (*recipient.Config, error) {
	for _, cfg := range r.configs {
		if cfg.CheckInsEnabled {
			cp := *cfg
			return &cp, nil
		}
	}
	return nil, idb.ErrRecipientNotFound
}

func (r *fakeRecipientRepo) SetSleeping(ctx context.Context, chatID int64, at time.Time) error {
	cfg, ok := r.configs[chatID]
	if !ok {
		return idb.ErrRecipientNotFound
	}
	cfg.IsSleeping = true
	cfg.SleepStartTime = sql.NullTime{Time: at, Valid: true}
	return nil
}

func (r *fakeRecipientRepo) SetAwake(ctx context.Context, chatID int64, at time.Time) error {
	cfg, ok := r.configs[chatID]
	if !ok {
		return idb.ErrRecipientNotFound
	}
	cfg.IsSleeping = false
	cfg.LastWakeTime = sql.NullTime{Time: at, Valid: true}
	return nil
}

type fakeActivityRepo struct {
	nextID  int64
	entries map[int64]*activity.LogEntry // keyed by check-in id
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{entries: make(map[int64]*activity.LogEntry)}
}

func (r *fakeActivityRepo) Create(ctx context.Context, e *activity.LogEntry) error {
	if _, ok := r.entries[e.CheckInID]; ok {
		return idb.ErrDuplicateActivityLog
	}
	r.nextID++
	e.ID = r.nextID
	cp := *e
	r.entries[e.CheckInID] = &cp
	return nil
}

func (r *fakeActivityRepo) CreateIfAbsent(ctx context.Context, e *activity.LogEntry) (bool, error) {
	if _, ok := r.entries[e.CheckInID]; ok {
		return false, nil
	}
	return true, r.Create(ctx, e)
}

func (r *fakeActivityRepo) GetByCheckInID(ctx context.Context, checkInID int64) (*activity.LogEntry, error) {
	e, ok := r.entries[checkInID]
	if !ok {
		return nil, idb.ErrActivityLogNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeActivityRepo) CountByTypeBetween(ctx context.Context, from, to time.Time) (map[activity.ProductivityType]int, error) {
	counts := make(map[activity.ProductivityType]int)
	for _, e := range r.entries {
		if !e.Timestamp.Before(from) && e.Timestamp.Before(to) {
			counts[e.ProductivityType]++
		}
	}
	return counts, nil
}

func (r *fakeActivityRepo) AvgAlignmentBetween(ctx context.Context, from, to time.Time) (sql.NullFloat64, error) {
	var sum, n int64
	for _, e := range r.entries {
		if e.ProductivityType == activity.TypeSleeping {
			continue
		}
		if !e.Timestamp.Before(from) && e.Timestamp.Before(to) && e.AlignmentScore.Valid {
			sum += e.AlignmentScore.Int64
			n++
		}
	}
	if n == 0 {
		return sql.NullFloat64{}, nil
	}
	return sql.NullFloat64{Float64: float64(sum) / float64(n), Valid: true}, nil
}

func (r *fakeActivityRepo) CategoryCountsBetween(ctx context.Context, from, to time.Time) (map[string]int, error) {
	counts := make(map[string]int)
	for _, e := range r.entries {
		if e.ProductivityType == activity.TypeSleeping {
			continue
		}
		if !e.Timestamp.Before(from) && e.Timestamp.Before(to) && e.Category != "" {
			counts[e.Category]++
		}
	}
	return counts, nil
}

type fakeTaskRepo struct {
	nextID int64
	tasks  map[int64]*task.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[int64]*task.Task)}
}

func (r *fakeTaskRepo) Create(ctx context.Context, t *task.Task) error {
	r.nextID++
	t.ID = r.nextID
	t.CreatedAt = time.Now()
	cp := *t
	r.tasks[t.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, idb.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, t *task.Task) error {
	if _, ok := r.tasks[t.ID]; !ok {
		return idb.ErrTaskNotFound
	}
	cp := *t
	r.tasks[t.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) MarkCompleted(ctx context.Context, id int64, completedAt time.Time) error {
	t, ok := r.tasks[id]
	if !ok {
		return idb.ErrTaskNotFound
	}
	t.Status = task.StatusCompleted
	t.CompletedAt = sql.NullTime{Time: completedAt, Valid: true}
	return nil
}

func (r *fakeTaskRepo) ListOpen(ctx context.Context, limit int) ([]*task.Task, error) {
	var out []*task.Task
	for _, t := range r.tasks {
		if t.Status == task.StatusPending && (t.Priority == task.PriorityHigh || t.Priority == task.PriorityMedium) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeTaskRepo) ListPending(ctx context.Context) ([]*task.Task, error) {
	var out []*task.Task
	for _, t := range r.tasks {
		if t.Status == task.StatusPending {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTaskRepo) ListUnscheduled(ctx context.Context) ([]*task.Task, error) {
	var out []*task.Task
	for _, t := range r.tasks {
		if t.Status == task.StatusPending && !t.IsScheduled {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTaskRepo) ListRecentCompleted(ctx context.Context, limit int) ([]*task.Task, error) {
	var out []*task.Task
	for _, t := range r.tasks {
		if t.Status == task.StatusCompleted {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeTaskRepo) Schedule(ctx context.Context, id int64, dueDate, dueTime string) error {
	t, ok := r.tasks[id]
	if !ok {
		return idb.ErrTaskNotFound
	}
	t.DueDate = sql.NullString{String: dueDate, Valid: true}
	if dueTime != "" {
		t.DueTime = sql.NullString{String: dueTime, Valid: true}
	}
	t.IsScheduled = true
	return nil
}

// Collaborator fakes.

type sentMessage struct {
	chatID  int64
	text    string
	options *telebot.SendOptions
}

type fakeTelegramClient struct {
	sent    []sentMessage
	sendErr error
}

func (f *fakeTelegramClient) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, options: options})
	return nil
}

type fakeClassifier struct {
	judgment *ActivityJudgment
	err      error
	gotRaw   string
	gotTasks []*task.Task
}

func (f *fakeClassifier) Classify(ctx context.Context, rawText string, openTasks []*task.Task) (*ActivityJudgment, error) {
	f.gotRaw = rawText
	f.gotTasks = openTasks
	if f.err != nil {
		return nil, f.err
	}
	return f.judgment, nil
}

type fakeTriager struct {
	triage *TaskTriage
	err    error
}

func (f *fakeTriager) Triage(ctx context.Context, rawText string) (*TaskTriage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.triage, nil
}

type fakeMirror struct {
	appended  []*task.Task
	syncCalls int
	active    []*task.Task
	completed []*task.Task
	err       error
}

func (f *fakeMirror) AppendTask(t *task.Task) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, t)
	return nil
}

func (f *fakeMirror) SyncAll(active, completed []*task.Task) error {
	if f.err != nil {
		return f.err
	}
	f.syncCalls++
	f.active = active
	f.completed = completed
	return nil
}

var errBoom = fmt.Errorf("boom")
