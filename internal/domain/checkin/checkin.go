// internal/domain/checkin/checkin.go
package checkin

import (
	"database/sql"
	"time"
)

// CheckIn represents one instance of the hourly "what did you do" prompt.
// Corresponds to one row in the 'check_ins' table.
type CheckIn struct {
	ID            int64
	ScheduledTime time.Time    // When the tick intended to fire the prompt
	SentTime      sql.NullTime // When it was actually delivered
	ResponseTime  sql.NullTime // When the recipient replied
	Status        Status
	RetryCount    int
	CreatedAt     time.Time
}
