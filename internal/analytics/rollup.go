package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Rollup derives the monthly and yearly aggregates from the daily rows.
type Rollup struct {
	logger *slog.Logger
	repo   Repository
}

// NewRollup constructs the rollup deriver.
func NewRollup(logger *slog.Logger, repo Repository) *Rollup {
	return &Rollup{logger: logger, repo: repo}
}

// RollupDays recomputes the monthly and yearly buckets covering the given
// days. Each bucket is replaced from its daily rows, so rerunning for the
// same days is a no-op.
func (r *Rollup) RollupDays(ctx context.Context, days []time.Time) error {
	months := make(map[time.Time]struct{})
	years := make(map[time.Time]struct{})
	for _, day := range days {
		months[monthStart(day)] = struct{}{}
		years[yearStart(day)] = struct{}{}
	}

	for month := range months {
		if err := r.repo.RollupPeriod(ctx, PeriodMonthly, month, month, month.AddDate(0, 1, 0)); err != nil {
			return fmt.Errorf("rollup month %s: %w", month.Format("2006-01"), err)
		}
	}
	for year := range years {
		if err := r.repo.RollupPeriod(ctx, PeriodYearly, year, year, year.AddDate(1, 0, 0)); err != nil {
			return fmt.Errorf("rollup year %d: %w", year.Year(), err)
		}
	}

	r.logger.Info("rollups derived",
		slog.Int("months", len(months)),
		slog.Int("years", len(years)))
	return nil
}

// RollupAll recomputes every monthly and yearly bucket that has daily data.
// Used by the periodic maintenance job.
func (r *Rollup) RollupAll(ctx context.Context) error {
	days, err := r.repo.DistinctDailyDays(ctx)
	if err != nil {
		return fmt.Errorf("list daily days: %w", err)
	}
	if len(days) == 0 {
		return nil
	}
	return r.RollupDays(ctx, days)
}

func monthStart(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func yearStart(day time.Time) time.Time {
	return time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}
