// internal/domain/activity/activity.go
package activity

import (
	"database/sql"
	"time"
)

// ProductivityType classifies how an hour was spent.
type ProductivityType string

const (
	TypeAligned    ProductivityType = "aligned"    // Working on a specific open task
	TypeBeneficial ProductivityType = "beneficial" // Goal-aligned but not on the task list
	TypeWasted     ProductivityType = "wasted"     // Not contributing to goals
	TypeSleeping   ProductivityType = "sleeping"   // Synthesized by wake reconciliation
)

// LogEntry is the classified outcome of one check-in.
// Corresponds to one row in the 'activity_logs' table; at most one entry
// exists per check-in, enforced by a uniqueness constraint on check_in_id.
type LogEntry struct {
	ID               int64
	Timestamp        time.Time
	RawResponse      sql.NullString // Null for synthesized sleeping entries
	Summary          string
	ProductivityType ProductivityType
	AlignmentScore   sql.NullInt64 // 0-10
	MatchedTaskID    sql.NullInt64
	Category         string
	Reasoning        string
	CheckInID        int64
	CreatedAt        time.Time
}
