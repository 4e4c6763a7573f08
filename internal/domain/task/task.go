// internal/domain/task/task.go
package task

import (
	"database/sql"
	"time"
)

// Priority of a triaged task.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Status of a task.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
)

// Task is a triaged to-do item. Corresponds to the 'tasks' table.
// DueDate/DueTime are kept as the triage output strings ("2006-01-02" /
// "15:04") because unscheduled tasks have neither.
type Task struct {
	ID          int64
	Name        string
	RawInput    string
	Category    string
	Priority    Priority
	DueDate     sql.NullString
	DueTime     sql.NullString
	IsScheduled bool
	Status      Status
	Reasoning   string
	Recurrence  sql.NullString // e.g. "daily", "weekly"
	CreatedAt   time.Time
	CompletedAt sql.NullTime
	UpdatedAt   time.Time
}
