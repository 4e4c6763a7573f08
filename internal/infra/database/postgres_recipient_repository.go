// internal/infra/database/postgres_recipient_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"kairos_assistant_bot/internal/domain/recipient"
)

// Custom errors specific to the recipient repository
var ErrRecipientNotFound = fmt.Errorf("recipient config not found")
var ErrDuplicateChatID = fmt.Errorf("recipient config with this chat ID already exists")

type PostgresRecipientRepository struct {
	db *sql.DB
}

func NewPostgresRecipientRepository(db *sql.DB) *PostgresRecipientRepository {
	return &PostgresRecipientRepository{db: db}
}

func (r *PostgresRecipientRepository) Create(ctx context.Context, cfg *recipient.Config) error {
	query := `INSERT INTO user_config (chat_id, check_ins_enabled, is_sleeping, default_wake_time)
               VALUES ($1, $2, $3, $4)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		cfg.ChatID, cfg.CheckInsEnabled, cfg.IsSleeping, cfg.DefaultWakeTime,
	).Scan(&cfg.ID, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "user_config_chat_id_key") {
			return ErrDuplicateChatID
		}
		return fmt.Errorf("error creating recipient config: %w", err)
	}
	return nil
}

func (r *PostgresRecipientRepository) GetByChatID(ctx context.Context, chatID int64) (*recipient.Config, error) {
	query := selectConfig + ` WHERE chat_id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, chatID))
}

// GetEnabled resolves the single-tenant recipient: the first config row with
// check-ins enabled.
func (r *PostgresRecipientRepository) GetEnabled(ctx context.Context) (*recipient.Config, error) {
	query := selectConfig + ` WHERE check_ins_enabled = TRUE ORDER BY id ASC LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query))
}

func (r *PostgresRecipientRepository) SetSleeping(ctx context.Context, chatID int64, at time.Time) error {
	query := `UPDATE user_config
               SET is_sleeping = TRUE, sleep_start_time = $1, updated_at = $1
               WHERE chat_id = $2`
	return r.exec(ctx, query, at, chatID)
}

// SetAwake intentionally leaves sleep_start_time in place; it is superseded
// by the next sleep, never cleared.
func (r *PostgresRecipientRepository) SetAwake(ctx context.Context, chatID int64, at time.Time) error {
	query := `UPDATE user_config
               SET is_sleeping = FALSE, last_wake_time = $1, updated_at = $1
               WHERE chat_id = $2`
	return r.exec(ctx, query, at, chatID)
}

const selectConfig = `SELECT id, chat_id, check_ins_enabled, is_sleeping, sleep_start_time,
	default_wake_time, last_wake_time, created_at, updated_at FROM user_config`

func (r *PostgresRecipientRepository) scanOne(row *sql.Row) (*recipient.Config, error) {
	cfg := recipient.Config{}
	err := row.Scan(
		&cfg.ID, &cfg.ChatID, &cfg.CheckInsEnabled, &cfg.IsSleeping, &cfg.SleepStartTime,
		&cfg.DefaultWakeTime, &cfg.LastWakeTime, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecipientNotFound
		}
		return nil, fmt.Errorf("error scanning recipient config: %w", err)
	}
	return &cfg, nil
}

func (r *PostgresRecipientRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating recipient config: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRecipientNotFound
	}
	return nil
}
