package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailpulse/retailpulse/internal/platform/httpx"
)

// Repository persists catalog data in PostgreSQL.
type Repository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int64) (Category, error)
	CreateCategory(ctx context.Context, c Category) (Category, error)
	UpdateCategory(ctx context.Context, id int64, c Category) error
	DeleteCategory(ctx context.Context, id int64) error

	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, id int64, p Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const uniqueViolation = "23505"

func mapConstraintErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return httpx.ErrDuplicate
	}
	return err
}

func (r *repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT category_id, category_name, COALESCE(description,''), created_at
FROM categories ORDER BY category_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *repository) GetCategory(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `SELECT category_id, category_name, COALESCE(description,''), created_at
FROM categories WHERE category_id=$1`, id).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, httpx.ErrNotFound
	}
	return c, err
}

func (r *repository) CreateCategory(ctx context.Context, c Category) (Category, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO categories (category_name, description, created_at)
VALUES ($1, NULLIF($2,''), NOW()) RETURNING category_id, created_at`, c.Name, c.Description).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return Category{}, mapConstraintErr(err)
	}
	return c, nil
}

func (r *repository) UpdateCategory(ctx context.Context, id int64, c Category) error {
	tag, err := r.pool.Exec(ctx, `UPDATE categories SET category_name=$1, description=NULLIF($2,'')
WHERE category_id=$3`, c.Name, c.Description, id)
	if err != nil {
		return mapConstraintErr(err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE category_id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

const productColumns = `p.product_id, p.product_name, p.category_id, c.category_name, p.sku,
p.price, p.cost, COALESCE(p.description,''), p.created_at, p.updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.CategoryID, &p.CategoryName, &p.SKU,
		&p.Price, &p.Cost, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListProducts uses a dynamic query due to filter combinations.
func (r *repository) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	query := `SELECT ` + productColumns + `
FROM products p LEFT JOIN categories c ON c.category_id = p.category_id WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filter.CategoryID != nil {
		argCount++
		query += ` AND p.category_id = $` + strconv.Itoa(argCount)
		args = append(args, *filter.CategoryID)
	}
	if filter.Search != "" {
		argCount++
		query += ` AND (p.product_name ILIKE $` + strconv.Itoa(argCount) + ` OR p.sku ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filter.Search+"%")
	}

	query += ` ORDER BY p.product_name ASC`

	if filter.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filter.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+`
FROM products p LEFT JOIN categories c ON c.category_id = p.category_id WHERE p.product_id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, httpx.ErrNotFound
	}
	return p, err
}

func (r *repository) CreateProduct(ctx context.Context, p Product) (Product, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx, `INSERT INTO products (product_name, category_id, sku, price, cost, description, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,$7) RETURNING product_id`,
		p.Name, p.CategoryID, p.SKU, p.Price, p.Cost, p.Description, now).Scan(&p.ID)
	if err != nil {
		return Product{}, mapConstraintErr(err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

func (r *repository) UpdateProduct(ctx context.Context, id int64, p Product) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET product_name=$1, category_id=$2, sku=$3,
price=$4, cost=$5, description=NULLIF($6,''), updated_at=NOW() WHERE product_id=$7`,
		p.Name, p.CategoryID, p.SKU, p.Price, p.Cost, p.Description, id)
	if err != nil {
		return mapConstraintErr(err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE product_id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
