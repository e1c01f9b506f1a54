package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/retailpulse/retailpulse/internal/analytics"
)

// Notifier reacts to completed imports: cached reports are invalidated
// immediately and rollup derivation is queued. Both actions are best-effort;
// a failure is logged but never fails the import that triggered it.
type Notifier struct {
	logger *slog.Logger
	cache  *analytics.Cache
	client *Client
}

// NewNotifier constructs the import notifier. client may be nil when no
// queue is configured; rollups are then left to the periodic job.
func NewNotifier(logger *slog.Logger, cache *analytics.Cache, client *Client) *Notifier {
	return &Notifier{logger: logger, cache: cache, client: client}
}

// ImportCompleted is called by the ingestion pipeline after a successful run.
func (n *Notifier) ImportCompleted(ctx context.Context, fileID int64, days []time.Time) {
	if err := n.cache.Bump(ctx); err != nil {
		n.logger.Warn("cache bump after import", slog.Int64("file_id", fileID), slog.Any("error", err))
	}
	if n.client == nil {
		return
	}
	if _, err := n.client.EnqueueRollup(ctx, days); err != nil {
		n.logger.Error("enqueue rollup", slog.Int64("file_id", fileID), slog.Any("error", err))
	}
}
