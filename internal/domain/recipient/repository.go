// internal/domain/recipient/repository.go
package recipient

import (
	"context"
	"time"
)

// Repository defines persistence operations for recipient configuration.
type Repository interface {
	Create(ctx context.Context, cfg *Config) error
	GetByChatID(ctx context.Context, chatID int64) (*Config, error)

	// GetEnabled resolves the single recipient with check-ins enabled.
	GetEnabled(ctx context.Context) (*Config, error)

	// SetSleeping marks the recipient asleep and records when sleep began.
	SetSleeping(ctx context.Context, chatID int64, at time.Time) error

	// SetAwake clears the sleeping flag and stamps last_wake_time.
	// sleep_start_time is left in place, superseded by the next sleep.
	SetAwake(ctx context.Context, chatID int64, at time.Time) error
}
