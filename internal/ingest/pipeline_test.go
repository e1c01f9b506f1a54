package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errClaimed = errors.New("file already processed")

type fakeClaims struct {
	claimed  map[int64]bool
	failures map[int64]string
}

func newFakeClaims() *fakeClaims {
	return &fakeClaims{claimed: map[int64]bool{}, failures: map[int64]string{}}
}

func (f *fakeClaims) Claim(ctx context.Context, fileID int64) error {
	if f.claimed[fileID] {
		return errClaimed
	}
	f.claimed[fileID] = true
	return nil
}

func (f *fakeClaims) RecordFailure(ctx context.Context, fileID int64, message string) error {
	f.failures[fileID] = message
	return nil
}

type fakeStore struct {
	categories map[int64]string
	products   map[int64]string
	sales      []SaleRecord

	failSaleAfter int // fail InsertSale once this many sales exist; 0 disables
}

func newFakeStore() *fakeStore {
	return &fakeStore{categories: map[int64]string{}, products: map[int64]string{}, failSaleAfter: 0}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	staged := &fakeTx{store: f, snapshot: len(f.sales)}
	if err := fn(ctx, staged); err != nil {
		staged.rollback()
		return err
	}
	return nil
}

type fakeTx struct {
	store      *fakeStore
	snapshot   int
	categories []int64
	products   []int64
}

func (t *fakeTx) rollback() {
	for _, id := range t.categories {
		delete(t.store.categories, id)
	}
	for _, id := range t.products {
		delete(t.store.products, id)
	}
	t.store.sales = t.store.sales[:t.snapshot]
}

func (t *fakeTx) CategoryExists(ctx context.Context, id int64) (bool, error) {
	_, ok := t.store.categories[id]
	return ok, nil
}

func (t *fakeTx) InsertCategory(ctx context.Context, id int64, name string) error {
	t.store.categories[id] = name
	t.categories = append(t.categories, id)
	return nil
}

func (t *fakeTx) ProductExists(ctx context.Context, id int64) (bool, error) {
	_, ok := t.store.products[id]
	return ok, nil
}

func (t *fakeTx) InsertProduct(ctx context.Context, id int64, name string, categoryID *int64, price float64) error {
	t.store.products[id] = name
	t.products = append(t.products, id)
	return nil
}

func (t *fakeTx) InsertSale(ctx context.Context, sale SaleRecord) error {
	if t.store.failSaleAfter > 0 && len(t.store.sales) >= t.store.failSaleAfter {
		return errors.New("storage full")
	}
	t.store.sales = append(t.store.sales, sale)
	return nil
}

type fakeAggregator struct {
	calls int
	days  []time.Time
	err   error
}

func (f *fakeAggregator) AggregateFile(ctx context.Context, fileID int64) (int, []time.Time, error) {
	f.calls++
	if f.err != nil {
		return 0, nil, f.err
	}
	return len(f.days), f.days, nil
}

type fakeNotifier struct {
	fileIDs []int64
	days    [][]time.Time
}

func (f *fakeNotifier) ImportCompleted(ctx context.Context, fileID int64, days []time.Time) {
	f.fileIDs = append(f.fileIDs, fileID)
	f.days = append(f.days, days)
}

const csvHeader = "transaction_date,product_id,product_name,category_id,category_name,quantity,unit_price,total_price\n"

func testPipeline() (*Pipeline, *fakeClaims, *fakeStore, *fakeAggregator, *fakeNotifier) {
	claims := newFakeClaims()
	store := newFakeStore()
	agg := &fakeAggregator{days: []time.Time{time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)}}
	notifier := &fakeNotifier{}
	p := NewPipeline(slog.New(slog.NewTextHandler(io.Discard, nil)), claims, store, agg, notifier)
	return p, claims, store, agg, notifier
}

func TestProcessImportsRows(t *testing.T) {
	p, _, store, agg, notifier := testPipeline()

	input := csvHeader +
		"2024-03-15 10:30:00,42,Espresso Beans,7,Coffee,3,10.00,30.00\n" +
		"2024-03-15 11:00:00,42,Espresso Beans,7,Coffee,1,10.00,10.00\n" +
		"2024-03-16,99,Grinder,7,Coffee,2,55.00,110.00\n"

	stats, err := p.Process(context.Background(), 1, strings.NewReader(input))
	require.NoError(t, err)

	require.Equal(t, 3, stats.TotalRows)
	require.Equal(t, 3, stats.ProcessedRows)
	require.Equal(t, 0, stats.SkippedRows)
	require.Equal(t, stats.TotalRows, stats.ProcessedRows+stats.SkippedRows)
	require.Equal(t, 1, stats.CategoriesAdded)
	require.Equal(t, 2, stats.ProductsAdded)
	require.Equal(t, 3, stats.SalesAdded)
	require.Equal(t, 1, stats.AnalyticsUpdated)

	require.Len(t, store.sales, 3)
	require.Equal(t, "Coffee", store.categories[7])
	require.Equal(t, "Espresso Beans", store.products[42])
	require.Equal(t, 1, agg.calls)
	require.Equal(t, []int64{1}, notifier.fileIDs)
}

func TestProcessSkipsInvalidRows(t *testing.T) {
	p, _, store, _, _ := testPipeline()

	input := csvHeader +
		"2024-03-15,42,Espresso Beans,7,Coffee,3,10.00,30.00\n" +
		"2024-03-15,43,Filters,7,Coffee,2,,5.00\n" + // missing unit_price
		"not-a-date,44,Mug,7,Coffee,1,8.00,8.00\n" + // bad date
		"2024-03-15,45,Scale,7,Coffee,0,40.00,0.00\n" // zero quantity

	stats, err := p.Process(context.Background(), 1, strings.NewReader(input))
	require.NoError(t, err)

	require.Equal(t, 4, stats.TotalRows)
	require.Equal(t, 1, stats.ProcessedRows)
	require.Equal(t, 3, stats.SkippedRows)
	require.Equal(t, stats.TotalRows, stats.ProcessedRows+stats.SkippedRows)

	// Rejected rows leave no partial writes behind.
	require.Len(t, store.sales, 1)
	require.NotContains(t, store.products, int64(43))
	require.NotContains(t, store.products, int64(44))
	require.NotContains(t, store.products, int64(45))
}

func TestProcessRollsBackFailedRow(t *testing.T) {
	p, _, store, _, _ := testPipeline()
	store.failSaleAfter = 1

	input := csvHeader +
		"2024-03-15,42,Espresso Beans,7,Coffee,3,10.00,30.00\n" +
		"2024-03-16,99,Grinder,8,Gear,2,55.00,110.00\n"

	stats, err := p.Process(context.Background(), 1, strings.NewReader(input))
	require.NoError(t, err)

	require.Equal(t, 1, stats.ProcessedRows)
	require.Equal(t, 1, stats.SkippedRows)
	require.Len(t, store.sales, 1)
	// The failed row's category and product inserts rolled back with it.
	require.NotContains(t, store.categories, int64(8))
	require.NotContains(t, store.products, int64(99))
}

func TestProcessRejectsSecondClaim(t *testing.T) {
	p, _, _, agg, _ := testPipeline()

	input := csvHeader + "2024-03-15,42,Espresso Beans,7,Coffee,3,10.00,30.00\n"

	_, err := p.Process(context.Background(), 1, strings.NewReader(input))
	require.NoError(t, err)

	stats, err := p.Process(context.Background(), 1, strings.NewReader(input))
	require.ErrorIs(t, err, errClaimed)
	require.Zero(t, stats.TotalRows)
	require.Equal(t, 1, agg.calls)
}

func TestProcessTwoFilesAccumulate(t *testing.T) {
	p, claims, store, _, _ := testPipeline()

	first := csvHeader + "2024-03-15,42,Espresso Beans,7,Coffee,3,10.00,30.00\n"
	second := csvHeader + "2024-03-15,42,Espresso Beans,7,Coffee,2,10.00,20.00\n"

	_, err := p.Process(context.Background(), 1, strings.NewReader(first))
	require.NoError(t, err)
	stats, err := p.Process(context.Background(), 2, strings.NewReader(second))
	require.NoError(t, err)

	require.Len(t, store.sales, 2)
	require.True(t, claims.claimed[1])
	require.True(t, claims.claimed[2])
	// The second file reuses the catalog rows created by the first.
	require.Equal(t, 0, stats.CategoriesAdded)
	require.Equal(t, 0, stats.ProductsAdded)
}

func TestProcessRecordsAggregationFailure(t *testing.T) {
	p, claims, _, agg, notifier := testPipeline()
	agg.err = errors.New("aggregate blew up")

	input := csvHeader + "2024-03-15,42,Espresso Beans,7,Coffee,3,10.00,30.00\n"

	_, err := p.Process(context.Background(), 1, strings.NewReader(input))
	require.Error(t, err)
	require.Contains(t, claims.failures[1], "aggregate blew up")
	require.Empty(t, notifier.fileIDs)
	// The claim stands; the operator re-uploads rather than reprocessing.
	require.True(t, claims.claimed[1])
}

func TestProcessEmptyFile(t *testing.T) {
	p, _, store, _, _ := testPipeline()

	stats, err := p.Process(context.Background(), 1, strings.NewReader(""))
	require.NoError(t, err)
	require.Zero(t, stats.TotalRows)
	require.Empty(t, store.sales)
}
