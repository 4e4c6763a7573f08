// internal/domain/recipient/recipient.go
package recipient

import (
	"database/sql"
	"time"
)

// Config holds per-recipient settings and sleep state. The deployment is
// single-tenant, so in practice there is exactly one row.
// Corresponds to the 'user_config' table.
type Config struct {
	ID              int64
	ChatID          int64
	CheckInsEnabled bool
	IsSleeping      bool
	SleepStartTime  sql.NullTime
	DefaultWakeTime string // "HH:MM", bounds retroactive sleep reconciliation
	LastWakeTime    sql.NullTime
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
