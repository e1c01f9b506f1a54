package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailpulse/retailpulse/internal/platform/db"
)

// SaleRecord is the persisted form of one imported transaction.
type SaleRecord struct {
	TransactionDate time.Time
	ProductID       *int64
	Quantity        int64
	UnitPrice       float64
	TotalPrice      float64
	FileID          int64
}

// TxRepository exposes the per-row persistence operations. Category, product
// and sale writes for a single row commit or roll back together.
type TxRepository interface {
	CategoryExists(ctx context.Context, id int64) (bool, error)
	InsertCategory(ctx context.Context, id int64, name string) error
	ProductExists(ctx context.Context, id int64) (bool, error)
	InsertProduct(ctx context.Context, id int64, name string, categoryID *int64, price float64) error
	InsertSale(ctx context.Context, sale SaleRecord) error
}

// Repository opens row-scoped transactions against the entity store.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a read-committed transaction scoped to
// one input row.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ingest repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *txRepository) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE category_id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *txRepository) InsertCategory(ctx context.Context, id int64, name string) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO categories (category_id, category_name, created_at)
VALUES ($1,$2,NOW())`, id, name)
	return err
}

func (r *txRepository) ProductExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE product_id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *txRepository) InsertProduct(ctx context.Context, id int64, name string, categoryID *int64, price float64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO products (product_id, product_name, category_id, price, created_at, updated_at)
VALUES ($1,$2,$3,$4,NOW(),NOW())`, id, name, categoryID, price)
	return err
}

func (r *txRepository) InsertSale(ctx context.Context, sale SaleRecord) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO sales (transaction_date, product_id, quantity, unit_price, total_price, file_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW())`,
		sale.TransactionDate, sale.ProductID, sale.Quantity, sale.UnitPrice, sale.TotalPrice, sale.FileID)
	return err
}
