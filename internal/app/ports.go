// internal/app/ports.go
package app

import (
	"context"

	"kairos_assistant_bot/internal/domain/activity"
	"kairos_assistant_bot/internal/domain/task"
)

// ActivityJudgment is the structured result of classifying one hour of
// self-reported activity against the open task list.
type ActivityJudgment struct {
	Summary          string                    `json:"activity_summary"`
	ProductivityType activity.ProductivityType `json:"productivity_type"`
	MatchedTaskID    *int64                    `json:"matched_task_id"`
	AlignmentScore   int                       `json:"alignment_score"`
	Category         string                    `json:"category"`
	Reasoning        string                    `json:"reasoning"`
	Feedback         string                    `json:"feedback"`
}

// ActivityClassifier is the external text-generation collaborator that
// judges how an hour was spent. Callers must treat any error as "no
// judgment available" and fall back to a neutral result; errors are never
// surfaced to the user-facing flow.
type ActivityClassifier interface {
	Classify(ctx context.Context, rawText string, openTasks []*task.Task) (*ActivityJudgment, error)
}

// TaskTriage is the structured result of triaging a free-text task
// description against the user's stored goals.
type TaskTriage struct {
	TaskName             string  `json:"task_name"`
	Category             string  `json:"category"`
	Priority             string  `json:"priority"`
	DueDate              *string `json:"due_date"`
	DueTime              *string `json:"due_time"`
	Recurrence           *string `json:"recurrence"`
	SchedulingUnclear    bool    `json:"scheduling_unclear"`
	Reasoning            string  `json:"reasoning"`
	AlignmentScore       int     `json:"alignment_score"`
	Pushback             *string `json:"pushback"`
	SuggestedAlternative *string `json:"suggested_alternative"`
	ClarificationNeeded  *string `json:"clarification_needed"`
}

// TaskTriager classifies and prioritizes new task descriptions.
type TaskTriager interface {
	Triage(ctx context.Context, rawText string) (*TaskTriage, error)
}

// TaskMirror mirrors task state into the markdown knowledge base.
type TaskMirror interface {
	AppendTask(t *task.Task) error
	SyncAll(active, completed []*task.Task) error
}

// BusyChecker reports whether the recipient is mid-conversation, in which
// case the scheduler defers the hourly prompt.
type BusyChecker interface {
	IsBusy(ctx context.Context, chatID int64) bool
}

// StubBusyChecker always reports not-busy. Real conversation-state
// tracking needs access to the transport layer's per-chat state; until
// that exists the scheduler assumes the recipient is free.
type StubBusyChecker struct{}

func (StubBusyChecker) IsBusy(ctx context.Context, chatID int64) bool { return false }
