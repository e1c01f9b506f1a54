package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/retailpulse/retailpulse/internal/analytics"
)

// NewRollupHandler processes TaskAnalyticsRollup tasks: derive the monthly
// and yearly buckets for the payload's days, then invalidate cached reports.
func NewRollupHandler(logger *slog.Logger, deriver *analytics.Rollup, cache *analytics.Cache) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload RollupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Error("rollup payload malformed", slog.Any("error", err))
			return asynq.SkipRetry
		}
		days, err := payload.ParseDays()
		if err != nil {
			logger.Error("rollup payload malformed", slog.Any("error", err))
			return asynq.SkipRetry
		}
		if len(days) == 0 {
			return nil
		}
		if err := deriver.RollupDays(ctx, days); err != nil {
			return err
		}
		if err := cache.Bump(ctx); err != nil {
			logger.Warn("cache bump after rollup", slog.Any("error", err))
		}
		return nil
	}
}

// NewRollupAllHandler processes TaskAnalyticsRollupAll tasks, recomputing
// every derived bucket from the daily rows.
func NewRollupAllHandler(logger *slog.Logger, deriver *analytics.Rollup, cache *analytics.Cache) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if err := deriver.RollupAll(ctx); err != nil {
			return err
		}
		if err := cache.Bump(ctx); err != nil {
			logger.Warn("cache bump after rollup", slog.Any("error", err))
		}
		return nil
	}
}
