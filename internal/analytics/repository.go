package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailpulse/retailpulse/internal/platform/db"
)

// Repository persists and queries period aggregates.
type Repository interface {
	ListFileSales(ctx context.Context, fileID int64) ([]FileSaleRow, error)
	UpsertDaily(ctx context.Context, group Group) (inserted bool, err error)
	RollupPeriod(ctx context.Context, periodType string, bucket, from, to time.Time) error
	DistinctDailyDays(ctx context.Context) ([]time.Time, error)
	Report(ctx context.Context, filter ReportFilter) ([]Aggregate, error)
	TrendRows(ctx context.Context, periodType string, from, to time.Time, productID, categoryID *int64, limit int) ([]Aggregate, error)
	TotalRevenue(ctx context.Context) (float64, error)
	CountOrders(ctx context.Context) (int64, error)
	CountProducts(ctx context.Context) (int64, error)
	CountCategories(ctx context.Context) (int64, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// ListFileSales returns the sales of one uploaded file with the product cost
// and category resolved, ready for grouping.
func (r *repository) ListFileSales(ctx context.Context, fileID int64) ([]FileSaleRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT s.transaction_date, s.product_id, p.category_id, s.quantity, s.total_price, p.cost
FROM sales s
LEFT JOIN products p ON p.product_id = s.product_id
WHERE s.file_id = $1
ORDER BY s.sale_id`, fileID)
	if err != nil {
		return nil, fmt.Errorf("analytics: list file sales: %w", err)
	}
	defer rows.Close()

	var out []FileSaleRow
	for rows.Next() {
		var row FileSaleRow
		if err := rows.Scan(&row.TransactionDate, &row.ProductID, &row.CategoryID, &row.Quantity, &row.TotalPrice, &row.UnitCost); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// UpsertDaily folds one group into its daily aggregate row, incrementing the
// existing sums when the key already exists.
func (r *repository) UpsertDaily(ctx context.Context, group Group) (bool, error) {
	var inserted bool
	err := r.pool.QueryRow(ctx, `INSERT INTO period_aggregates
    (product_id, category_id, date_period, period_type, total_quantity, total_revenue, total_cost, profit, last_updated)
VALUES ($1, $2, $3, 'daily', $4, $5, $6, $7, NOW())
ON CONFLICT (date_period, COALESCE(product_id, 0), COALESCE(category_id, 0), period_type)
DO UPDATE SET
    total_quantity = period_aggregates.total_quantity + EXCLUDED.total_quantity,
    total_revenue  = period_aggregates.total_revenue + EXCLUDED.total_revenue,
    total_cost     = period_aggregates.total_cost + EXCLUDED.total_cost,
    profit         = period_aggregates.profit + EXCLUDED.profit,
    last_updated   = NOW()
RETURNING (xmax = 0)`,
		group.ProductID, group.CategoryID, group.DatePeriod, group.TotalQuantity,
		group.TotalRevenue, group.TotalCost, group.Profit()).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("analytics: upsert daily aggregate: %w", err)
	}
	return inserted, nil
}

// RollupPeriod recomputes one monthly or yearly bucket from the daily rows in
// [from, to). The bucket's previous rows are replaced wholesale so repeated
// runs converge on the same state.
func (r *repository) RollupPeriod(ctx context.Context, periodType string, bucket, from, to time.Time) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM period_aggregates WHERE period_type = $1 AND date_period = $2`,
			periodType, bucket); err != nil {
			return fmt.Errorf("analytics: clear %s bucket: %w", periodType, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO period_aggregates
    (product_id, category_id, date_period, period_type, total_quantity, total_revenue, total_cost, profit, last_updated)
SELECT product_id, category_id, $2, $1, SUM(total_quantity), SUM(total_revenue), SUM(total_cost),
       SUM(total_revenue) - SUM(total_cost), NOW()
FROM period_aggregates
WHERE period_type = 'daily' AND date_period >= $3 AND date_period < $4
GROUP BY product_id, category_id`,
			periodType, bucket, from, to); err != nil {
			return fmt.Errorf("analytics: rollup %s bucket: %w", periodType, err)
		}
		return nil
	})
}

// DistinctDailyDays lists every day carrying daily aggregates, oldest first.
func (r *repository) DistinctDailyDays(ctx context.Context) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT date_period FROM period_aggregates
WHERE period_type = 'daily' ORDER BY date_period`)
	if err != nil {
		return nil, fmt.Errorf("analytics: distinct daily days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

const aggregateColumns = `a.aggregate_id, a.product_id, p.product_name, a.category_id, c.category_name,
a.date_period, a.period_type, a.total_quantity, a.total_revenue, a.total_cost, a.profit, a.last_updated`

const aggregateJoins = `FROM period_aggregates a
LEFT JOIN products p ON p.product_id = a.product_id
LEFT JOIN categories c ON c.category_id = a.category_id`

// Report returns the aggregate rows matching the filter, oldest first.
func (r *repository) Report(ctx context.Context, filter ReportFilter) ([]Aggregate, error) {
	conds := []string{"a.period_type = $1"}
	args := []any{filter.PeriodType}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		conds = append(conds, fmt.Sprintf("a.date_period >= $%d", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		conds = append(conds, fmt.Sprintf("a.date_period <= $%d", len(args)))
	}
	switch {
	case filter.ProductID != nil:
		args = append(args, *filter.ProductID)
		conds = append(conds, fmt.Sprintf("a.product_id = $%d", len(args)))
	case filter.CategoryID != nil:
		args = append(args, *filter.CategoryID)
		conds = append(conds, fmt.Sprintf("a.category_id = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s
%s
WHERE %s
ORDER BY a.date_period, a.aggregate_id`, aggregateColumns, aggregateJoins, strings.Join(conds, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("analytics: report query: %w", err)
	}
	defer rows.Close()
	return scanAggregates(rows)
}

// TrendRows returns aggregate rows of one granularity within [from, to],
// oldest first, capped at limit.
func (r *repository) TrendRows(ctx context.Context, periodType string, from, to time.Time, productID, categoryID *int64, limit int) ([]Aggregate, error) {
	conds := []string{"a.period_type = $1", "a.date_period >= $2", "a.date_period <= $3"}
	args := []any{periodType, from, to}
	switch {
	case productID != nil:
		args = append(args, *productID)
		conds = append(conds, fmt.Sprintf("a.product_id = $%d", len(args)))
	case categoryID != nil:
		args = append(args, *categoryID)
		conds = append(conds, fmt.Sprintf("a.category_id = $%d", len(args)))
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT %s
%s
WHERE %s
ORDER BY a.date_period, a.aggregate_id
LIMIT $%d`, aggregateColumns, aggregateJoins, strings.Join(conds, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("analytics: trend query: %w", err)
	}
	defer rows.Close()
	return scanAggregates(rows)
}

func scanAggregates(rows pgx.Rows) ([]Aggregate, error) {
	var out []Aggregate
	for rows.Next() {
		var agg Aggregate
		if err := rows.Scan(&agg.AggregateID, &agg.ProductID, &agg.ProductName, &agg.CategoryID, &agg.CategoryName,
			&agg.DatePeriod, &agg.PeriodType, &agg.TotalQuantity, &agg.TotalRevenue, &agg.TotalCost,
			&agg.Profit, &agg.LastUpdated); err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, rows.Err()
}

func (r *repository) TotalRevenue(ctx context.Context) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total_price), 0) FROM sales`).Scan(&total)
	return total, err
}

func (r *repository) CountOrders(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales`).Scan(&count)
	return count, err
}

func (r *repository) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	return count, err
}

func (r *repository) CountCategories(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count)
	return count, err
}

// TopProducts ranks products by units sold across every import.
func (r *repository) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.product_id, p.product_name, SUM(s.quantity) AS total_quantity
FROM sales s
JOIN products p ON p.product_id = s.product_id
GROUP BY p.product_id, p.product_name
ORDER BY total_quantity DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("analytics: top products: %w", err)
	}
	defer rows.Close()

	var out []TopProduct
	for rows.Next() {
		var tp TopProduct
		if err := rows.Scan(&tp.ProductID, &tp.ProductName, &tp.TotalQuantity); err != nil {
			return nil, err
		}
		out = append(out, tp)
	}
	return out, rows.Err()
}
