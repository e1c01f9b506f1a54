package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/retailpulse/retailpulse/internal/platform/httpx"
)

const (
	defaultTrendLimit = 12
	topProductCount   = 5
)

// Service answers the reporting queries, caching responses until the next
// data change bumps the cache version.
type Service struct {
	logger *slog.Logger
	repo   Repository
	cache  *Cache
	now    func() time.Time
}

// NewService constructs the analytics query service.
func NewService(logger *slog.Logger, repo Repository, cache *Cache) *Service {
	return &Service{logger: logger, repo: repo, cache: cache, now: time.Now}
}

// Report returns the aggregate rows matching the filter plus their sums.
func (s *Service) Report(ctx context.Context, filter ReportFilter) (Report, error) {
	if filter.PeriodType == "" {
		filter.PeriodType = PeriodMonthly
	}
	switch filter.PeriodType {
	case PeriodDaily, PeriodMonthly, PeriodYearly:
	default:
		return Report{}, fmt.Errorf("%w: unknown period %q", httpx.ErrValidation, filter.PeriodType)
	}

	loader := func(ctx context.Context) (interface{}, error) {
		rows, err := s.repo.Report(ctx, filter)
		if err != nil {
			return nil, err
		}
		report := Report{Rows: rows, Summary: ReportSummary{PeriodCount: len(rows)}}
		if report.Rows == nil {
			report.Rows = []Aggregate{}
		}
		for _, row := range rows {
			report.Summary.TotalQuantity += row.TotalQuantity
			report.Summary.TotalRevenue += row.TotalRevenue
			report.Summary.TotalCost += row.TotalCost
			report.Summary.TotalProfit += row.Profit
		}
		return report, nil
	}

	key, err := s.cache.BuildKey(ctx, keyReport(filter))
	if err != nil {
		return Report{}, err
	}
	var report Report
	if err := s.cache.FetchJSON(ctx, key, &report, loader); err != nil {
		return Report{}, err
	}
	return report, nil
}

// Trends returns trend points for the requested window. The weekly window
// plots daily aggregates; monthly and yearly windows plot their own
// granularity.
func (s *Service) Trends(ctx context.Context, filter TrendFilter) (Trends, error) {
	if filter.Period == "" {
		filter.Period = PeriodMonthly
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultTrendLimit
	}

	end := truncateDay(s.now())
	var granularity string
	var start time.Time
	switch filter.Period {
	case "weekly":
		granularity = PeriodDaily
		start = end.AddDate(0, 0, -filter.Limit*7)
	case PeriodMonthly:
		granularity = PeriodMonthly
		start = end.AddDate(0, 0, -filter.Limit*30)
	case PeriodYearly:
		granularity = PeriodYearly
		start = time.Date(end.Year()-filter.Limit, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return Trends{}, fmt.Errorf("%w: unknown period %q", httpx.ErrValidation, filter.Period)
	}

	loader := func(ctx context.Context) (interface{}, error) {
		rows, err := s.repo.TrendRows(ctx, granularity, start, end, filter.ProductID, filter.CategoryID, filter.Limit)
		if err != nil {
			return nil, err
		}
		points := make([]TrendPoint, 0, len(rows))
		for _, row := range rows {
			points = append(points, TrendPoint{
				Date:     row.DatePeriod,
				Revenue:  row.TotalRevenue,
				Profit:   row.Profit,
				Quantity: row.TotalQuantity,
				Label:    trendLabel(row),
			})
		}
		return Trends{Points: points, Period: filter.Period, TotalPeriods: len(points)}, nil
	}

	key, err := s.cache.BuildKey(ctx, keyTrends(filter))
	if err != nil {
		return Trends{}, err
	}
	var trends Trends
	if err := s.cache.FetchJSON(ctx, key, &trends, loader); err != nil {
		return Trends{}, err
	}
	return trends, nil
}

// Summary returns the storefront-wide overview. Its component queries are
// independent and run concurrently.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		var summary Summary
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			summary.TotalRevenue, err = s.repo.TotalRevenue(ctx)
			return err
		})
		g.Go(func() (err error) {
			summary.TotalOrders, err = s.repo.CountOrders(ctx)
			return err
		})
		g.Go(func() (err error) {
			summary.TotalProducts, err = s.repo.CountProducts(ctx)
			return err
		})
		g.Go(func() (err error) {
			summary.TotalCategories, err = s.repo.CountCategories(ctx)
			return err
		})
		g.Go(func() (err error) {
			summary.TopProducts, err = s.repo.TopProducts(ctx, topProductCount)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if summary.TopProducts == nil {
			summary.TopProducts = []TopProduct{}
		}
		return summary, nil
	}

	key, err := s.cache.BuildKey(ctx, keySummary())
	if err != nil {
		return Summary{}, err
	}
	var summary Summary
	if err := s.cache.FetchJSON(ctx, key, &summary, loader); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

func trendLabel(row Aggregate) string {
	switch {
	case row.ProductName != nil:
		return *row.ProductName
	case row.CategoryName != nil:
		return *row.CategoryName
	default:
		return "all"
	}
}
