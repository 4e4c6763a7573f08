// internal/domain/activity/repository.go
package activity

import (
	"context"
	"database/sql"
	"time"
)

// Repository defines persistence operations for activity log entries.
type Repository interface {
	Create(ctx context.Context, e *LogEntry) error

	// CreateIfAbsent inserts the entry unless one already exists for the
	// same check-in. Returns true when a row was inserted. Used by the wake
	// reconciliation so repeated wakes never duplicate sleeping entries.
	CreateIfAbsent(ctx context.Context, e *LogEntry) (bool, error)

	GetByCheckInID(ctx context.Context, checkInID int64) (*LogEntry, error)

	// Aggregations for the productivity reports. Sleeping entries are
	// excluded from score and category figures.
	CountByTypeBetween(ctx context.Context, from, to time.Time) (map[ProductivityType]int, error)
	AvgAlignmentBetween(ctx context.Context, from, to time.Time) (sql.NullFloat64, error)
	CategoryCountsBetween(ctx context.Context, from, to time.Time) (map[string]int, error)
}
