package analytics

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	fileSales map[int64][]FileSaleRow
	upserts   []Group

	rollups     []rollupCall
	dailyDays   []time.Time
	reportRows  []Aggregate
	reportCalls int
	trendRows   []Aggregate
	trendCalls  int
	trendPeriod string
	trendFrom   time.Time
	trendTo     time.Time

	revenue    float64
	orders     int64
	products   int64
	categories int64
	top        []TopProduct
	topCalls   int
}

type rollupCall struct {
	periodType string
	bucket     time.Time
	from       time.Time
	to         time.Time
}

func (f *fakeRepo) ListFileSales(ctx context.Context, fileID int64) ([]FileSaleRow, error) {
	return f.fileSales[fileID], nil
}

func (f *fakeRepo) UpsertDaily(ctx context.Context, group Group) (bool, error) {
	f.upserts = append(f.upserts, group)
	return true, nil
}

func (f *fakeRepo) RollupPeriod(ctx context.Context, periodType string, bucket, from, to time.Time) error {
	f.rollups = append(f.rollups, rollupCall{periodType: periodType, bucket: bucket, from: from, to: to})
	return nil
}

func (f *fakeRepo) DistinctDailyDays(ctx context.Context) ([]time.Time, error) {
	return f.dailyDays, nil
}

func (f *fakeRepo) Report(ctx context.Context, filter ReportFilter) ([]Aggregate, error) {
	f.reportCalls++
	return f.reportRows, nil
}

func (f *fakeRepo) TrendRows(ctx context.Context, periodType string, from, to time.Time, productID, categoryID *int64, limit int) ([]Aggregate, error) {
	f.trendCalls++
	f.trendPeriod = periodType
	f.trendFrom = from
	f.trendTo = to
	return f.trendRows, nil
}

func (f *fakeRepo) TotalRevenue(ctx context.Context) (float64, error)  { return f.revenue, nil }
func (f *fakeRepo) CountOrders(ctx context.Context) (int64, error)     { return f.orders, nil }
func (f *fakeRepo) CountProducts(ctx context.Context) (int64, error)   { return f.products, nil }
func (f *fakeRepo) CountCategories(ctx context.Context) (int64, error) { return f.categories, nil }

func (f *fakeRepo) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	f.topCalls++
	return f.top, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

func TestAggregateFileComputesProfit(t *testing.T) {
	repo := &fakeRepo{fileSales: map[int64][]FileSaleRow{
		1: {
			{
				TransactionDate: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
				ProductID:       ptr(int64(42)),
				CategoryID:      ptr(int64(7)),
				Quantity:        3,
				TotalPrice:      30.00,
				UnitCost:        ptr(4.00),
			},
		},
	}}
	engine := NewEngine(testLogger(), repo)

	updated, days, err := engine.AggregateFile(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, updated)
	require.Equal(t, []time.Time{time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)}, days)

	require.Len(t, repo.upserts, 1)
	group := repo.upserts[0]
	require.Equal(t, int64(3), group.TotalQuantity)
	require.Equal(t, 30.00, group.TotalRevenue)
	require.Equal(t, 12.00, group.TotalCost)
	require.Equal(t, 18.00, group.Profit())
}

func TestAggregateFileGroupsByDayAndProduct(t *testing.T) {
	day1 := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{fileSales: map[int64][]FileSaleRow{
		1: {
			// Two sales of the same product on the same day merge.
			{TransactionDate: day1.Add(10 * time.Hour), ProductID: ptr(int64(42)), CategoryID: ptr(int64(7)), Quantity: 3, TotalPrice: 30},
			{TransactionDate: day1.Add(15 * time.Hour), ProductID: ptr(int64(42)), CategoryID: ptr(int64(7)), Quantity: 1, TotalPrice: 10},
			{TransactionDate: day2, ProductID: ptr(int64(42)), CategoryID: ptr(int64(7)), Quantity: 2, TotalPrice: 20},
			{TransactionDate: day1, ProductID: nil, CategoryID: nil, Quantity: 5, TotalPrice: 12.5},
		},
	}}
	engine := NewEngine(testLogger(), repo)

	updated, days, err := engine.AggregateFile(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 3, updated)
	require.Equal(t, []time.Time{day1, day2}, days)

	merged := repo.upserts[1] // day1 sorts its nil-product group first
	require.Equal(t, int64(4), merged.TotalQuantity)
	require.Equal(t, 40.0, merged.TotalRevenue)

	unattributed := repo.upserts[0]
	require.Nil(t, unattributed.ProductID)
	require.Equal(t, int64(5), unattributed.TotalQuantity)
	require.Equal(t, 0.0, unattributed.TotalCost)
}

func TestAggregateFileEmpty(t *testing.T) {
	repo := &fakeRepo{fileSales: map[int64][]FileSaleRow{}}
	engine := NewEngine(testLogger(), repo)

	updated, days, err := engine.AggregateFile(context.Background(), 9)
	require.NoError(t, err)
	require.Zero(t, updated)
	require.Empty(t, days)
	require.Empty(t, repo.upserts)
}

func TestRollupDaysDerivesBuckets(t *testing.T) {
	repo := &fakeRepo{}
	rollup := NewRollup(testLogger(), repo)

	days := []time.Time{
		time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), // same month, no extra bucket
		time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, rollup.RollupDays(context.Background(), days))

	var monthly, yearly []rollupCall
	for _, call := range repo.rollups {
		switch call.periodType {
		case PeriodMonthly:
			monthly = append(monthly, call)
		case PeriodYearly:
			yearly = append(yearly, call)
		}
	}
	require.Len(t, monthly, 2)
	require.Len(t, yearly, 1)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), yearly[0].bucket)
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), yearly[0].to)

	for _, call := range monthly {
		require.Equal(t, 1, call.bucket.Day())
		require.Equal(t, call.bucket, call.from)
		require.Equal(t, call.bucket.AddDate(0, 1, 0), call.to)
	}
}

func TestRollupAllUsesEveryDailyDay(t *testing.T) {
	repo := &fakeRepo{dailyDays: []time.Time{
		time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}}
	rollup := NewRollup(testLogger(), repo)

	require.NoError(t, rollup.RollupAll(context.Background()))
	// Two months and two years.
	require.Len(t, repo.rollups, 4)
}
