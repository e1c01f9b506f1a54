package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Claims guards the one-shot processing of an uploaded file.
type Claims interface {
	// Claim atomically marks the file processed; a second claim must fail.
	Claim(ctx context.Context, fileID int64) error
	RecordFailure(ctx context.Context, fileID int64, message string) error
}

// Aggregator folds the sales of a file into the daily rollups.
type Aggregator interface {
	AggregateFile(ctx context.Context, fileID int64) (updated int, days []time.Time, err error)
}

// Notifier is told about completed imports so caches can be invalidated and
// derived rollups scheduled.
type Notifier interface {
	ImportCompleted(ctx context.Context, fileID int64, days []time.Time)
}

// Pipeline consumes one uploaded CSV: claim, normalize, persist, aggregate.
type Pipeline struct {
	logger   *slog.Logger
	claims   Claims
	repo     Repository
	agg      Aggregator
	notifier Notifier
}

// NewPipeline wires the ingestion dependencies.
func NewPipeline(logger *slog.Logger, claims Claims, repo Repository, agg Aggregator, notifier Notifier) *Pipeline {
	return &Pipeline{logger: logger, claims: claims, repo: repo, agg: agg, notifier: notifier}
}

// Process runs the ingestion pipeline for a claimed file. Row-level failures
// are absorbed into the skip count; failures outside the row loop abort the
// import, leave earlier rows committed, and are recorded on the file.
func (p *Pipeline) Process(ctx context.Context, fileID int64, src io.Reader) (Stats, error) {
	var stats Stats

	if err := p.claims.Claim(ctx, fileID); err != nil {
		return stats, err
	}

	if err := p.importRows(ctx, fileID, src, &stats); err != nil {
		return p.fail(ctx, fileID, stats, err)
	}

	updated, days, err := p.agg.AggregateFile(ctx, fileID)
	if err != nil {
		return p.fail(ctx, fileID, stats, fmt.Errorf("aggregate sales: %w", err))
	}
	stats.AnalyticsUpdated = updated

	if p.notifier != nil && len(days) > 0 {
		p.notifier.ImportCompleted(ctx, fileID, days)
	}

	p.logger.Info("file processed",
		slog.Int64("file_id", fileID),
		slog.Int("processed", stats.ProcessedRows),
		slog.Int("skipped", stats.SkippedRows),
		slog.Int("aggregates", stats.AnalyticsUpdated))
	return stats, nil
}

func (p *Pipeline) importRows(ctx context.Context, fileID int64, src io.Reader, stats *Stats) error {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row %d: %w", stats.TotalRows+1, err)
		}
		stats.TotalRows++

		row, err := NormalizeRow(fieldMap(header, record))
		if err != nil {
			stats.SkippedRows++
			p.logger.Debug("row rejected", slog.Int64("file_id", fileID), slog.Any("reason", err))
			continue
		}
		if row.TotalMismatch() {
			p.logger.Warn("total_price deviates from quantity*unit_price",
				slog.Int64("file_id", fileID), slog.Int("row", stats.TotalRows))
		}

		var outcome rowOutcome
		err = p.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			var txErr error
			outcome, txErr = resolveRow(ctx, tx, row, fileID)
			return txErr
		})
		if err != nil {
			stats.SkippedRows++
			p.logger.Warn("row persistence failed",
				slog.Int64("file_id", fileID), slog.Int("row", stats.TotalRows), slog.Any("error", err))
			continue
		}

		stats.ProcessedRows++
		stats.SalesAdded++
		if outcome.categoryAdded {
			stats.CategoriesAdded++
		}
		if outcome.productAdded {
			stats.ProductsAdded++
		}
	}
	return nil
}

func (p *Pipeline) fail(ctx context.Context, fileID int64, stats Stats, err error) (Stats, error) {
	p.logger.Error("file processing failed", slog.Int64("file_id", fileID), slog.Any("error", err))
	if recErr := p.claims.RecordFailure(ctx, fileID, err.Error()); recErr != nil {
		p.logger.Error("record processing failure", slog.Int64("file_id", fileID), slog.Any("error", recErr))
	}
	return stats, err
}

func fieldMap(header, record []string) map[string]string {
	fields := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(record) {
			fields[name] = record[i]
		}
	}
	return fields
}
