// internal/infra/database/postgres_metrics_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"kairos_assistant_bot/internal/domain/metrics"
)

type PostgresMetricsRepository struct {
	db *sql.DB
}

func NewPostgresMetricsRepository(db *sql.DB) *PostgresMetricsRepository {
	return &PostgresMetricsRepository{db: db}
}

// Upsert writes or replaces the snapshot for (period_start, period_type),
// so re-aggregating the same day just refreshes the existing row.
func (r *PostgresMetricsRepository) Upsert(ctx context.Context, s *metrics.Snapshot) error {
	query := `INSERT INTO productivity_metrics
               (period_start, period_end, period_type,
                total_check_ins, responded_check_ins, missed_check_ins, sleeping_check_ins,
                aligned_activities, beneficial_activities, wasted_activities,
                avg_alignment_score, productivity_ratio)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
               ON CONFLICT (period_start, period_type) DO UPDATE SET
                 period_end = EXCLUDED.period_end,
                 total_check_ins = EXCLUDED.total_check_ins,
                 responded_check_ins = EXCLUDED.responded_check_ins,
                 missed_check_ins = EXCLUDED.missed_check_ins,
                 sleeping_check_ins = EXCLUDED.sleeping_check_ins,
                 aligned_activities = EXCLUDED.aligned_activities,
                 beneficial_activities = EXCLUDED.beneficial_activities,
                 wasted_activities = EXCLUDED.wasted_activities,
                 avg_alignment_score = EXCLUDED.avg_alignment_score,
                 productivity_ratio = EXCLUDED.productivity_ratio
               RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		s.PeriodStart, s.PeriodEnd, s.PeriodType,
		s.TotalCheckIns, s.RespondedCheckIns, s.MissedCheckIns, s.SleepingCheckIns,
		s.AlignedActivities, s.BeneficialActivities, s.WastedActivities,
		s.AvgAlignmentScore, s.ProductivityRatio,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("error upserting productivity metrics: %w", err)
	}
	return nil
}
