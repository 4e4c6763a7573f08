// internal/infra/database/migrate.go
package database

import (
	"database/sql"
	"fmt"
)

// Migrate creates the schema if it does not exist yet. Statements are
// idempotent so running them on every start is safe.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS user_config (
			id BIGSERIAL PRIMARY KEY,
			chat_id BIGINT UNIQUE NOT NULL,
			check_ins_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			is_sleeping BOOLEAN NOT NULL DEFAULT FALSE,
			sleep_start_time TIMESTAMPTZ,
			default_wake_time TEXT NOT NULL DEFAULT '08:00',
			last_wake_time TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS check_ins (
			id BIGSERIAL PRIMARY KEY,
			scheduled_time TIMESTAMPTZ NOT NULL,
			sent_time TIMESTAMPTZ,
			response_time TIMESTAMPTZ,
			status TEXT NOT NULL DEFAULT 'pending',
			retry_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			raw_input TEXT,
			category TEXT,
			priority TEXT,
			due_date TEXT,
			due_time TEXT,
			is_scheduled BOOLEAN NOT NULL DEFAULT TRUE,
			status TEXT NOT NULL DEFAULT 'Pending',
			reasoning TEXT,
			recurrence TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		// check_in_id is UNIQUE: at most one activity log per check-in,
		// enforced by the store rather than an existence check.
		`CREATE TABLE IF NOT EXISTS activity_logs (
			id BIGSERIAL PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			raw_response TEXT,
			activity_summary TEXT,
			productivity_type TEXT NOT NULL,
			alignment_score INTEGER,
			matched_task_id BIGINT REFERENCES tasks(id),
			category TEXT,
			reasoning TEXT,
			check_in_id BIGINT UNIQUE REFERENCES check_ins(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS productivity_metrics (
			id BIGSERIAL PRIMARY KEY,
			period_start TIMESTAMPTZ NOT NULL,
			period_end TIMESTAMPTZ NOT NULL,
			period_type TEXT NOT NULL,
			total_check_ins INTEGER NOT NULL DEFAULT 0,
			responded_check_ins INTEGER NOT NULL DEFAULT 0,
			missed_check_ins INTEGER NOT NULL DEFAULT 0,
			sleeping_check_ins INTEGER NOT NULL DEFAULT 0,
			aligned_activities INTEGER NOT NULL DEFAULT 0,
			beneficial_activities INTEGER NOT NULL DEFAULT 0,
			wasted_activities INTEGER NOT NULL DEFAULT 0,
			avg_alignment_score DOUBLE PRECISION,
			productivity_ratio DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (period_start, period_type)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_checkin_scheduled ON check_ins (scheduled_time)`,
		`CREATE INDEX IF NOT EXISTS idx_checkin_status ON check_ins (status)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_timestamp ON activity_logs (timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_type ON activity_logs (productivity_type)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration statement failed: %w", err)
		}
	}
	return nil
}
