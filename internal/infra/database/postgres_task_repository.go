// internal/infra/database/postgres_task_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kairos_assistant_bot/internal/domain/task"
)

// Custom errors specific to the task repository
var ErrTaskNotFound = fmt.Errorf("task not found")

type PostgresTaskRepository struct {
	db *sql.DB
}

func NewPostgresTaskRepository(db *sql.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db}
}

const selectTask = `SELECT id, name, raw_input, category, priority, due_date, due_time,
	is_scheduled, status, reasoning, recurrence, created_at, completed_at, updated_at FROM tasks`

func (r *PostgresTaskRepository) Create(ctx context.Context, t *task.Task) error {
	query := `INSERT INTO tasks (name, raw_input, category, priority, due_date, due_time,
               is_scheduled, status, reasoning, recurrence)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.RawInput, t.Category, t.Priority, t.DueDate, t.DueTime,
		t.IsScheduled, t.Status, t.Reasoning, t.Recurrence,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating task: %w", err)
	}
	return nil
}

func (r *PostgresTaskRepository) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	row := r.db.QueryRowContext(ctx, selectTask+` WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("error getting task by ID: %w", err)
	}
	return t, nil
}

func (r *PostgresTaskRepository) Update(ctx context.Context, t *task.Task) error {
	query := `UPDATE tasks
               SET name = $1, category = $2, priority = $3, due_date = $4, due_time = $5,
                   is_scheduled = $6, status = $7, reasoning = $8, recurrence = $9, updated_at = NOW()
               WHERE id = $10
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.Category, t.Priority, t.DueDate, t.DueTime,
		t.IsScheduled, t.Status, t.Reasoning, t.Recurrence, t.ID,
	).Scan(&t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrTaskNotFound
		}
		return fmt.Errorf("error updating task: %w", err)
	}
	return nil
}

func (r *PostgresTaskRepository) MarkCompleted(ctx context.Context, id int64, completedAt time.Time) error {
	query := `UPDATE tasks SET status = $1, completed_at = $2, updated_at = NOW() WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, task.StatusCompleted, completedAt, id)
	if err != nil {
		return fmt.Errorf("error marking task %d completed: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *PostgresTaskRepository) ListOpen(ctx context.Context, limit int) ([]*task.Task, error) {
	query := selectTask + ` WHERE status = $1 AND priority IN ($2, $3)
               ORDER BY priority DESC, due_date ASC NULLS LAST LIMIT $4`
	rows, err := r.db.QueryContext(ctx, query,
		task.StatusPending, task.PriorityHigh, task.PriorityMedium, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying open tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *PostgresTaskRepository) ListPending(ctx context.Context) ([]*task.Task, error) {
	query := selectTask + ` WHERE status = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, task.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("error querying pending tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *PostgresTaskRepository) ListUnscheduled(ctx context.Context) ([]*task.Task, error) {
	query := selectTask + ` WHERE status = $1 AND is_scheduled = FALSE ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, task.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("error querying unscheduled tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *PostgresTaskRepository) ListRecentCompleted(ctx context.Context, limit int) ([]*task.Task, error) {
	query := selectTask + ` WHERE status = $1 ORDER BY completed_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, task.StatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying completed tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *PostgresTaskRepository) Schedule(ctx context.Context, id int64, dueDate, dueTime string) error {
	query := `UPDATE tasks
               SET due_date = $1, due_time = NULLIF($2, ''), is_scheduled = TRUE, updated_at = NOW()
               WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, dueDate, dueTime, id)
	if err != nil {
		return fmt.Errorf("error scheduling task %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*task.Task, error) {
	t := task.Task{}
	err := row.Scan(
		&t.ID, &t.Name, &t.RawInput, &t.Category, &t.Priority, &t.DueDate, &t.DueTime,
		&t.IsScheduled, &t.Status, &t.Reasoning, &t.Recurrence,
		&t.CreatedAt, &t.CompletedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Helper to scan multiple rows
func scanTasks(rows *sql.Rows) ([]*task.Task, error) {
	tasks := make([]*task.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return tasks, nil
}
