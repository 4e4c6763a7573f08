// internal/infra/database/postgres_checkin_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kairos_assistant_bot/internal/domain/checkin"
)

// Custom errors specific to the check-in repository
var ErrCheckInNotFound = fmt.Errorf("check-in not found")

type PostgresCheckInRepository struct {
	db *sql.DB
}

func NewPostgresCheckInRepository(db *sql.DB) *PostgresCheckInRepository {
	return &PostgresCheckInRepository{db: db}
}

func (r *PostgresCheckInRepository) Create(ctx context.Context, c *checkin.CheckIn) error {
	query := `INSERT INTO check_ins (scheduled_time, sent_time, status, retry_count)
               VALUES ($1, $2, $3, $4)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, c.ScheduledTime, c.SentTime, c.Status, c.RetryCount).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating check-in: %w", err)
	}
	return nil
}

func (r *PostgresCheckInRepository) GetByID(ctx context.Context, id int64) (*checkin.CheckIn, error) {
	query := `SELECT id, scheduled_time, sent_time, response_time, status, retry_count, created_at
               FROM check_ins WHERE id = $1`
	c := checkin.CheckIn{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.ScheduledTime, &c.SentTime, &c.ResponseTime, &c.Status, &c.RetryCount, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCheckInNotFound
		}
		return nil, fmt.Errorf("error getting check-in by ID: %w", err)
	}
	return &c, nil
}

func (r *PostgresCheckInRepository) LatestSent(ctx context.Context) (*checkin.CheckIn, error) {
	query := `SELECT id, scheduled_time, sent_time, response_time, status, retry_count, created_at
               FROM check_ins WHERE status = $1 ORDER BY sent_time DESC LIMIT 1`
	c := checkin.CheckIn{}
	err := r.db.QueryRowContext(ctx, query, checkin.StatusSent).Scan(
		&c.ID, &c.ScheduledTime, &c.SentTime, &c.ResponseTime, &c.Status, &c.RetryCount, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCheckInNotFound
		}
		return nil, fmt.Errorf("error getting latest sent check-in: %w", err)
	}
	return &c, nil
}

func (r *PostgresCheckInRepository) MarkCompleted(ctx context.Context, id int64, respondedAt time.Time) error {
	query := `UPDATE check_ins SET status = $1, response_time = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, checkin.StatusCompleted, respondedAt, id)
	if err != nil {
		return fmt.Errorf("error marking check-in %d completed: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCheckInNotFound
	}
	return nil
}

// MarkStaleAsMissed only ever touches rows already in 'sent' past the
// threshold, so repeated sweeps are idempotent.
func (r *PostgresCheckInRepository) MarkStaleAsMissed(ctx context.Context, sentBefore time.Time) (int64, error) {
	query := `UPDATE check_ins SET status = $1 WHERE status = $2 AND sent_time < $3`
	res, err := r.db.ExecContext(ctx, query, checkin.StatusMissed, checkin.StatusSent, sentBefore)
	if err != nil {
		return 0, fmt.Errorf("error marking stale check-ins as missed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n, nil
}

func (r *PostgresCheckInRepository) MarkSleepingBetween(ctx context.Context, from, to time.Time) (int64, error) {
	query := `UPDATE check_ins SET status = $1
               WHERE scheduled_time >= $2 AND scheduled_time <= $3
                 AND status IN ($4, $5, $6)`
	res, err := r.db.ExecContext(ctx, query,
		checkin.StatusSleeping, from, to,
		checkin.StatusMissed, checkin.StatusSent, checkin.StatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("error marking check-ins as sleeping: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n, nil
}

func (r *PostgresCheckInRepository) ListSleepingBetween(ctx context.Context, from, to time.Time) ([]*checkin.CheckIn, error) {
	query := `SELECT id, scheduled_time, sent_time, response_time, status, retry_count, created_at
               FROM check_ins
               WHERE status = $1 AND scheduled_time >= $2 AND scheduled_time <= $3
               ORDER BY scheduled_time ASC`
	rows, err := r.db.QueryContext(ctx, query, checkin.StatusSleeping, from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying sleeping check-ins: %w", err)
	}
	defer rows.Close()

	checkIns := make([]*checkin.CheckIn, 0)
	for rows.Next() {
		c := checkin.CheckIn{}
		if err := rows.Scan(
			&c.ID, &c.ScheduledTime, &c.SentTime, &c.ResponseTime, &c.Status, &c.RetryCount, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning check-in row: %w", err)
		}
		checkIns = append(checkIns, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating check-in rows: %w", err)
	}
	return checkIns, nil
}

func (r *PostgresCheckInRepository) CountByStatusBetween(ctx context.Context, from, to time.Time) (map[checkin.Status]int, error) {
	query := `SELECT status, COUNT(*) FROM check_ins
               WHERE scheduled_time >= $1 AND scheduled_time < $2
               GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("error counting check-ins by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[checkin.Status]int)
	for rows.Next() {
		var status checkin.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("error scanning status count row: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status count rows: %w", err)
	}
	return counts, nil
}
