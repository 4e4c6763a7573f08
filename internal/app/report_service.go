// internal/app/report_service.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"kairos_assistant_bot/internal/domain/activity"
	"kairos_assistant_bot/internal/domain/checkin"
	"kairos_assistant_bot/internal/domain/metrics"
)

// ReportService aggregates check-ins and activity logs into the daily
// productivity view, both as a chat message and as a persisted snapshot.
type ReportService interface {
	// DailyReport renders the report for the calendar day containing day.
	DailyReport(ctx context.Context, day time.Time) (string, error)

	// SaveDailyMetrics upserts the aggregated snapshot for that day.
	SaveDailyMetrics(ctx context.Context, day time.Time) error
}

type ReportServiceImpl struct {
	checkInRepo  checkin.Repository
	activityRepo activity.Repository
	metricsRepo  metrics.Repository
	logger       *logrus.Entry
}

func NewReportServiceImpl(cr checkin.Repository, ar activity.Repository, mr metrics.Repository, logger *logrus.Entry) *ReportServiceImpl {
	return &ReportServiceImpl{
		checkInRepo:  cr,
		activityRepo: ar,
		metricsRepo:  mr,
		logger:       logger.WithField("service", "report"),
	}
}

// dailyStats is the aggregated raw material shared by the rendered report
// and the persisted snapshot.
type dailyStats struct {
	periodStart, periodEnd time.Time
	total                  int
	responded              int
	missed                 int
	sleeping               int
	aligned                int
	beneficial             int
	wasted                 int
	avgScore               sql.NullFloat64
	ratio                  sql.NullFloat64
	categories             map[string]int
}

func (s *ReportServiceImpl) gatherDailyStats(ctx context.Context, day time.Time) (*dailyStats, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	statusCounts, err := s.checkInRepo.CountByStatusBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("count check-ins: %w", err)
	}
	typeCounts, err := s.activityRepo.CountByTypeBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("count activities: %w", err)
	}
	avgScore, err := s.activityRepo.AvgAlignmentBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("average alignment: %w", err)
	}
	categories, err := s.activityRepo.CategoryCountsBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}

	st := &dailyStats{
		periodStart: start,
		periodEnd:   end,
		responded:   statusCounts[checkin.StatusCompleted],
		missed:      statusCounts[checkin.StatusMissed],
		sleeping:    statusCounts[checkin.StatusSleeping],
		aligned:     typeCounts[activity.TypeAligned],
		beneficial:  typeCounts[activity.TypeBeneficial],
		wasted:      typeCounts[activity.TypeWasted],
		avgScore:    avgScore,
		categories:  categories,
	}
	for _, n := range statusCounts {
		st.total += n
	}
	if st.responded > 0 {
		productive := float64(st.aligned + st.beneficial)
		st.ratio = sql.NullFloat64{Float64: productive / float64(st.responded) * 100, Valid: true}
	}
	return st, nil
}

func (s *ReportServiceImpl) DailyReport(ctx context.Context, day time.Time) (string, error) {
	st, err := s.gatherDailyStats(ctx, day)
	if err != nil {
		s.logger.WithError(err).Error("failed to gather daily stats")
		return "", err
	}

	var b strings.Builder
	b.WriteString("📊 *Daily Productivity Report*\n")
	fmt.Fprintf(&b, "Date: %s\n\n", st.periodStart.Format("2006-01-02"))

	if st.total == 0 {
		b.WriteString("No check-ins recorded today yet.")
		return b.String(), nil
	}

	fmt.Fprintf(&b, "*Check-ins:* %d/%d responded", st.responded, st.total)
	if st.sleeping > 0 {
		fmt.Fprintf(&b, " (%d sleeping)", st.sleeping)
	}
	fmt.Fprintf(&b, " (%.0f%%)\n\n", float64(st.responded)/float64(st.total)*100)

	if st.aligned+st.beneficial+st.wasted > 0 {
		b.WriteString("*Activity Breakdown:*\n")
		fmt.Fprintf(&b, "✅ Aligned (on todo list): %d %s\n", st.aligned, hoursWord(st.aligned))
		fmt.Fprintf(&b, "💡 Beneficial (goal-aligned): %d %s\n", st.beneficial, hoursWord(st.beneficial))
		fmt.Fprintf(&b, "⚠️ Wasted time: %d %s\n\n", st.wasted, hoursWord(st.wasted))

		if st.avgScore.Valid {
			fmt.Fprintf(&b, "*Alignment Score:* %.1f/10\n", st.avgScore.Float64)
		}
		if st.ratio.Valid {
			fmt.Fprintf(&b, "*Productivity Ratio:* %.0f%%\n\n", st.ratio.Float64)
		}

		if len(st.categories) > 0 {
			b.WriteString("*Time by Category:*\n")
			names := make([]string, 0, len(st.categories))
			for name := range st.categories {
				names = append(names, name)
			}
			// Busiest categories first, ties alphabetical.
			sort.Slice(names, func(i, j int) bool {
				if st.categories[names[i]] != st.categories[names[j]] {
					return st.categories[names[i]] > st.categories[names[j]]
				}
				return names[i] < names[j]
			})
			for _, name := range names {
				n := st.categories[name]
				fmt.Fprintf(&b, "- %s: %d %s\n", name, n, hoursWord(n))
			}
		}
	}

	if st.missed > 0 {
		fmt.Fprintf(&b, "\n⚠️ *Missed Check-ins:* %d\n", st.missed)
	}

	return b.String(), nil
}

func (s *ReportServiceImpl) SaveDailyMetrics(ctx context.Context, day time.Time) error {
	st, err := s.gatherDailyStats(ctx, day)
	if err != nil {
		s.logger.WithError(err).Error("failed to gather stats for metrics snapshot")
		return err
	}

	snapshot := &metrics.Snapshot{
		PeriodStart:          st.periodStart,
		PeriodEnd:            st.periodEnd,
		PeriodType:           metrics.PeriodDaily,
		TotalCheckIns:        st.total,
		RespondedCheckIns:    st.responded,
		MissedCheckIns:       st.missed,
		SleepingCheckIns:     st.sleeping,
		AlignedActivities:    st.aligned,
		BeneficialActivities: st.beneficial,
		WastedActivities:     st.wasted,
		AvgAlignmentScore:    st.avgScore,
		ProductivityRatio:    st.ratio,
	}
	if err := s.metricsRepo.Upsert(ctx, snapshot); err != nil {
		s.logger.WithError(err).Error("failed to upsert daily metrics")
		return fmt.Errorf("upsert daily metrics: %w", err)
	}

	s.logger.WithField("date", st.periodStart.Format("2006-01-02")).Info("daily metrics saved")
	return nil
}

func hoursWord(n int) string {
	if n == 1 {
		return "hour"
	}
	return "hours"
}
