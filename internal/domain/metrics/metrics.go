// internal/domain/metrics/metrics.go
package metrics

import (
	"context"
	"database/sql"
	"time"
)

// PeriodType identifies the aggregation window of a snapshot.
type PeriodType string

const (
	PeriodDaily PeriodType = "daily"
)

// Snapshot is an aggregated view of check-ins and activities over one
// period. Corresponds to the 'productivity_metrics' table.
type Snapshot struct {
	ID                   int64
	PeriodStart          time.Time
	PeriodEnd            time.Time
	PeriodType           PeriodType
	TotalCheckIns        int
	RespondedCheckIns    int
	MissedCheckIns       int
	SleepingCheckIns     int
	AlignedActivities    int
	BeneficialActivities int
	WastedActivities     int
	AvgAlignmentScore    sql.NullFloat64
	ProductivityRatio    sql.NullFloat64 // Percent of responded hours spent productively
}

// Repository persists aggregated snapshots.
type Repository interface {
	Upsert(ctx context.Context, s *Snapshot) error
}
