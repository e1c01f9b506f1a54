package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Engine folds imported sales into the daily aggregates.
type Engine struct {
	logger *slog.Logger
	repo   Repository
}

// NewEngine constructs the aggregation engine.
func NewEngine(logger *slog.Logger, repo Repository) *Engine {
	return &Engine{logger: logger, repo: repo}
}

type groupKey struct {
	day      string
	product  int64
	category int64
}

// AggregateFile sums the sales of one file grouped by (day, product, category)
// and folds each group into its daily aggregate row. It returns the number of
// rows touched and the distinct days, so callers can schedule rollups.
//
// Cost is unit cost times quantity; a product without a cost contributes zero.
// Revenue is the stored total_price, taken verbatim.
func (e *Engine) AggregateFile(ctx context.Context, fileID int64) (int, []time.Time, error) {
	sales, err := e.repo.ListFileSales(ctx, fileID)
	if err != nil {
		return 0, nil, err
	}

	groups := make(map[groupKey]*Group)
	for _, sale := range sales {
		day := truncateDay(sale.TransactionDate)
		key := groupKey{day: day.Format("2006-01-02"), product: deref(sale.ProductID), category: deref(sale.CategoryID)}
		group, ok := groups[key]
		if !ok {
			group = &Group{DatePeriod: day, ProductID: sale.ProductID, CategoryID: sale.CategoryID}
			groups[key] = group
		}
		group.TotalQuantity += sale.Quantity
		group.TotalRevenue += sale.TotalPrice
		if sale.UnitCost != nil {
			group.TotalCost += *sale.UnitCost * float64(sale.Quantity)
		}
	}

	keys := make([]groupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.day != b.day {
			return a.day < b.day
		}
		if a.product != b.product {
			return a.product < b.product
		}
		return a.category < b.category
	})

	updated := 0
	seenDays := make(map[string]time.Time)
	for _, key := range keys {
		group := groups[key]
		if _, err := e.repo.UpsertDaily(ctx, *group); err != nil {
			return updated, daysOf(seenDays), fmt.Errorf("fold group for %s: %w", key.day, err)
		}
		updated++
		seenDays[key.day] = group.DatePeriod
	}

	e.logger.Debug("file aggregated",
		slog.Int64("file_id", fileID),
		slog.Int("groups", updated),
		slog.Int("days", len(seenDays)))
	return updated, daysOf(seenDays), nil
}

func truncateDay(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

func deref(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

func daysOf(seen map[string]time.Time) []time.Time {
	days := make([]time.Time, 0, len(seen))
	for _, day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}
