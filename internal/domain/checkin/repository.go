// internal/domain/checkin/repository.go
package checkin

import (
	"context"
	"time"
)

// Repository defines persistence operations for CheckIn records.
type Repository interface {
	Create(ctx context.Context, c *CheckIn) error
	GetByID(ctx context.Context, id int64) (*CheckIn, error)

	// LatestSent returns the most recent record with status 'sent', newest
	// first. This is the durable source of truth for the single
	// "awaiting reply" prompt; the in-memory pointer is only a cache.
	LatestSent(ctx context.Context) (*CheckIn, error)

	// MarkCompleted moves a record to 'completed' and stamps response_time.
	MarkCompleted(ctx context.Context, id int64, respondedAt time.Time) error

	// MarkStaleAsMissed moves every 'sent' record whose sent_time is older
	// than the threshold to 'missed'. Returns the number of rows updated.
	MarkStaleAsMissed(ctx context.Context, sentBefore time.Time) (int64, error)

	// MarkSleepingBetween retroactively moves records scheduled inside
	// [from, to] with status 'missed', 'sent' or 'pending' to 'sleeping'.
	// Returns the number of rows updated.
	MarkSleepingBetween(ctx context.Context, from, to time.Time) (int64, error)

	// ListSleepingBetween returns every 'sleeping' record scheduled inside
	// [from, to], used to synthesize activity log entries after a wake.
	ListSleepingBetween(ctx context.Context, from, to time.Time) ([]*CheckIn, error)

	// CountByStatusBetween aggregates records scheduled inside [from, to)
	// by status, for the productivity reports.
	CountByStatusBetween(ctx context.Context, from, to time.Time) (map[Status]int, error)
}
