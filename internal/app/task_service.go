// internal/app/task_service.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"kairos_assistant_bot/internal/domain/task"
)

const recentCompletedLimit = 20

// ErrInvalidSchedule flags a due date or time that failed format
// validation, so the conversation layer can answer with usage help.
var ErrInvalidSchedule = fmt.Errorf("due date must be YYYY-MM-DD and time HH:MM")

// TaskService covers the task half of the assistant: triage of free-text
// descriptions, completion with recurrence rollover, late scheduling of
// unscheduled items and the markdown mirror.
type TaskService interface {
	// ProcessNewTask triages rawText into a stored task. Triage failures
	// degrade to a MEDIUM-priority unclassified task; the input is never
	// lost. The returned triage carries pushback/clarification text for
	// the conversation layer.
	ProcessNewTask(ctx context.Context, rawText string) (*task.Task, *TaskTriage, error)

	// CompleteTask marks the task done and, for recurring tasks, creates
	// the next occurrence.
	CompleteTask(ctx context.Context, id int64) (*task.Task, error)

	// ScheduleTask attaches a due date (and optional time) to a task that
	// was stored without one.
	ScheduleTask(ctx context.Context, id int64, dueDate, dueTime string) error

	ListUnscheduled(ctx context.Context) ([]*task.Task, error)

	// SyncMirror rewrites the markdown mirror from the database views.
	SyncMirror(ctx context.Context) error
}

type TaskServiceImpl struct {
	taskRepo task.Repository
	triager  TaskTriager
	mirror   TaskMirror // nil when no vault is configured
	logger   *logrus.Entry
	now      func() time.Time
}

func NewTaskServiceImpl(tr task.Repository, triager TaskTriager, mirror TaskMirror, logger *logrus.Entry) *TaskServiceImpl {
	return &TaskServiceImpl{
		taskRepo: tr,
		triager:  triager,
		mirror:   mirror,
		logger:   logger.WithField("service", "task"),
		now:      time.Now,
	}
}

func (s *TaskServiceImpl) ProcessNewTask(ctx context.Context, rawText string) (*task.Task, *TaskTriage, error) {
	triage, err := s.triager.Triage(ctx, rawText)
	if err != nil {
		s.logger.WithError(err).Warn("task triage failed, storing with defaults")
		triage = fallbackTriage(rawText)
	}

	t := &task.Task{
		Name:      triage.TaskName,
		RawInput:  rawText,
		Category:  triage.Category,
		Priority:  task.Priority(triage.Priority),
		Status:    task.StatusPending,
		Reasoning: triage.Reasoning,
	}
	if triage.DueDate != nil && *triage.DueDate != "" && !triage.SchedulingUnclear {
		t.DueDate = sql.NullString{String: *triage.DueDate, Valid: true}
		t.IsScheduled = true
		if triage.DueTime != nil && *triage.DueTime != "" {
			t.DueTime = sql.NullString{String: *triage.DueTime, Valid: true}
		}
	}
	if triage.Recurrence != nil && *triage.Recurrence != "" {
		t.Recurrence = sql.NullString{String: *triage.Recurrence, Valid: true}
	}

	if err := s.taskRepo.Create(ctx, t); err != nil {
		s.logger.WithError(err).Error("failed to persist new task")
		return nil, nil, fmt.Errorf("persist task: %w", err)
	}

	if s.mirror != nil {
		if err := s.mirror.AppendTask(t); err != nil {
			s.logger.WithError(err).WithField("task_id", t.ID).Warn("failed to mirror new task")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"task_id":  t.ID,
		"priority": t.Priority,
		"category": t.Category,
	}).Info("task created")
	return t, triage, nil
}

func (s *TaskServiceImpl) CompleteTask(ctx context.Context, id int64) (*task.Task, error) {
	t, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load task %d: %w", id, err)
	}
	if t.Status == task.StatusCompleted {
		return t, nil
	}

	if err := s.taskRepo.MarkCompleted(ctx, id, s.now()); err != nil {
		s.logger.WithError(err).WithField("task_id", id).Error("failed to complete task")
		return nil, fmt.Errorf("complete task %d: %w", id, err)
	}

	if t.Recurrence.Valid && t.Recurrence.String != "" {
		if err := s.rollRecurrence(ctx, t); err != nil {
			s.logger.WithError(err).WithField("task_id", id).Error("failed to create next occurrence")
		}
	}

	if err := s.SyncMirror(ctx); err != nil {
		s.logger.WithError(err).Warn("failed to refresh mirror after completion")
	}

	s.logger.WithField("task_id", id).Info("task completed")
	return t, nil
}

// rollRecurrence clones a completed recurring task with the due date
// advanced one interval. A missing or malformed due date restarts from
// today.
func (s *TaskServiceImpl) rollRecurrence(ctx context.Context, done *task.Task) error {
	base := s.now()
	if done.DueDate.Valid {
		if parsed, err := time.Parse("2006-01-02", done.DueDate.String); err == nil {
			base = parsed
		}
	}

	var next time.Time
	switch done.Recurrence.String {
	case "weekly":
		next = base.AddDate(0, 0, 7)
	default: // daily
		next = base.AddDate(0, 0, 1)
	}

	clone := &task.Task{
		Name:        done.Name,
		RawInput:    done.RawInput,
		Category:    done.Category,
		Priority:    done.Priority,
		DueDate:     sql.NullString{String: next.Format("2006-01-02"), Valid: true},
		DueTime:     done.DueTime,
		IsScheduled: true,
		Status:      task.StatusPending,
		Reasoning:   done.Reasoning,
		Recurrence:  done.Recurrence,
	}
	if err := s.taskRepo.Create(ctx, clone); err != nil {
		return fmt.Errorf("persist next occurrence: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"task_id":  clone.ID,
		"due_date": clone.DueDate.String,
	}).Info("recurring task rolled over")
	return nil
}

func (s *TaskServiceImpl) ScheduleTask(ctx context.Context, id int64, dueDate, dueTime string) error {
	if _, err := time.Parse("2006-01-02", dueDate); err != nil {
		return fmt.Errorf("due date %q: %w", dueDate, ErrInvalidSchedule)
	}
	if dueTime != "" {
		if _, err := time.Parse("15:04", dueTime); err != nil {
			return fmt.Errorf("due time %q: %w", dueTime, ErrInvalidSchedule)
		}
	}

	if err := s.taskRepo.Schedule(ctx, id, dueDate, dueTime); err != nil {
		s.logger.WithError(err).WithField("task_id", id).Error("failed to schedule task")
		return fmt.Errorf("schedule task %d: %w", id, err)
	}

	if err := s.SyncMirror(ctx); err != nil {
		s.logger.WithError(err).Warn("failed to refresh mirror after scheduling")
	}
	return nil
}

func (s *TaskServiceImpl) ListUnscheduled(ctx context.Context) ([]*task.Task, error) {
	return s.taskRepo.ListUnscheduled(ctx)
}

func (s *TaskServiceImpl) SyncMirror(ctx context.Context) error {
	if s.mirror == nil {
		return nil
	}

	active, err := s.taskRepo.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending tasks: %w", err)
	}
	completed, err := s.taskRepo.ListRecentCompleted(ctx, recentCompletedLimit)
	if err != nil {
		return fmt.Errorf("list completed tasks: %w", err)
	}
	if err := s.mirror.SyncAll(active, completed); err != nil {
		return fmt.Errorf("rewrite mirror: %w", err)
	}
	return nil
}

// fallbackTriage is the stand-in used when triage is unavailable.
func fallbackTriage(rawText string) *TaskTriage {
	name := rawText
	if len(name) > 100 {
		name = name[:100]
	}
	return &TaskTriage{
		TaskName:       name,
		Category:       "Unknown",
		Priority:       string(task.PriorityMedium),
		Reasoning:      "Automatic triage was unavailable; stored with default priority.",
		AlignmentScore: 5,
	}
}
