// internal/domain/task/repository.go
package task

import (
	"context"
	"time"
)

// Repository defines persistence operations for tasks.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id int64) (*Task, error)
	Update(ctx context.Context, t *Task) error

	// MarkCompleted moves the task to 'Completed' and stamps completed_at.
	MarkCompleted(ctx context.Context, id int64, completedAt time.Time) error

	// ListOpen returns pending HIGH/MEDIUM tasks, the ones the activity
	// classifier matches responses against.
	ListOpen(ctx context.Context, limit int) ([]*Task, error)

	ListPending(ctx context.Context) ([]*Task, error)
	ListUnscheduled(ctx context.Context) ([]*Task, error)
	ListRecentCompleted(ctx context.Context, limit int) ([]*Task, error)

	// Schedule sets due date/time on a previously unscheduled task.
	Schedule(ctx context.Context, id int64, dueDate, dueTime string) error
}
