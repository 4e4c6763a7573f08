// internal/infra/database/postgres_activity_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"kairos_assistant_bot/internal/domain/activity"
)

// Custom errors specific to the activity repository
var ErrActivityLogNotFound = fmt.Errorf("activity log entry not found")
var ErrDuplicateActivityLog = fmt.Errorf("activity log entry for this check-in already exists")

type PostgresActivityRepository struct {
	db *sql.DB
}

func NewPostgresActivityRepository(db *sql.DB) *PostgresActivityRepository {
	return &PostgresActivityRepository{db: db}
}

const insertActivity = `INSERT INTO activity_logs
	(timestamp, raw_response, activity_summary, productivity_type, alignment_score,
	 matched_task_id, category, reasoning, check_in_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func (r *PostgresActivityRepository) Create(ctx context.Context, e *activity.LogEntry) error {
	query := insertActivity + ` RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		e.Timestamp, e.RawResponse, e.Summary, e.ProductivityType, e.AlignmentScore,
		e.MatchedTaskID, e.Category, e.Reasoning, e.CheckInID,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "activity_logs_check_in_id_key") {
			return ErrDuplicateActivityLog
		}
		return fmt.Errorf("error creating activity log entry: %w", err)
	}
	return nil
}

// CreateIfAbsent relies on the uniqueness constraint on check_in_id rather
// than a read-then-write existence check.
func (r *PostgresActivityRepository) CreateIfAbsent(ctx context.Context, e *activity.LogEntry) (bool, error) {
	query := insertActivity + ` ON CONFLICT (check_in_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query,
		e.Timestamp, e.RawResponse, e.Summary, e.ProductivityType, e.AlignmentScore,
		e.MatchedTaskID, e.Category, e.Reasoning, e.CheckInID,
	)
	if err != nil {
		return false, fmt.Errorf("error creating activity log entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresActivityRepository) GetByCheckInID(ctx context.Context, checkInID int64) (*activity.LogEntry, error) {
	query := `SELECT id, timestamp, raw_response, activity_summary, productivity_type,
               alignment_score, matched_task_id, category, reasoning, check_in_id, created_at
               FROM activity_logs WHERE check_in_id = $1`
	e := activity.LogEntry{}
	err := r.db.QueryRowContext(ctx, query, checkInID).Scan(
		&e.ID, &e.Timestamp, &e.RawResponse, &e.Summary, &e.ProductivityType,
		&e.AlignmentScore, &e.MatchedTaskID, &e.Category, &e.Reasoning, &e.CheckInID, &e.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrActivityLogNotFound
		}
		return nil, fmt.Errorf("error getting activity log by check-in ID: %w", err)
	}
	return &e, nil
}

func (r *PostgresActivityRepository) CountByTypeBetween(ctx context.Context, from, to time.Time) (map[activity.ProductivityType]int, error) {
	query := `SELECT productivity_type, COUNT(*) FROM activity_logs
               WHERE timestamp >= $1 AND timestamp < $2
               GROUP BY productivity_type`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("error counting activities by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[activity.ProductivityType]int)
	for rows.Next() {
		var pt activity.ProductivityType
		var count int
		if err := rows.Scan(&pt, &count); err != nil {
			return nil, fmt.Errorf("error scanning activity count row: %w", err)
		}
		counts[pt] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity count rows: %w", err)
	}
	return counts, nil
}

func (r *PostgresActivityRepository) AvgAlignmentBetween(ctx context.Context, from, to time.Time) (sql.NullFloat64, error) {
	query := `SELECT AVG(alignment_score) FROM activity_logs
               WHERE timestamp >= $1 AND timestamp < $2
                 AND productivity_type != $3`
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, query, from, to, activity.TypeSleeping).Scan(&avg)
	if err != nil {
		return sql.NullFloat64{}, fmt.Errorf("error averaging alignment scores: %w", err)
	}
	return avg, nil
}

func (r *PostgresActivityRepository) CategoryCountsBetween(ctx context.Context, from, to time.Time) (map[string]int, error) {
	query := `SELECT category, COUNT(*) FROM activity_logs
               WHERE timestamp >= $1 AND timestamp < $2
                 AND category IS NOT NULL AND category != ''
                 AND productivity_type != $3
               GROUP BY category
               ORDER BY COUNT(*) DESC`
	rows, err := r.db.QueryContext(ctx, query, from, to, activity.TypeSleeping)
	if err != nil {
		return nil, fmt.Errorf("error counting activities by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("error scanning category count row: %w", err)
		}
		counts[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category count rows: %w", err)
	}
	return counts, nil
}
