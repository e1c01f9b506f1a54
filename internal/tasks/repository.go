package tasks

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailpulse/retailpulse/internal/platform/httpx"
)

// Repository persists tasks in PostgreSQL.
type Repository interface {
	List(ctx context.Context, completed *bool) ([]Task, error)
	Get(ctx context.Context, id int64) (Task, error)
	Create(ctx context.Context, description string) (Task, error)
	UpdateDescription(ctx context.Context, id int64, description string) error
	SetCompletion(ctx context.Context, id int64, completed bool) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const taskColumns = `task_id, task_description, created_at, completed_at, is_completed`

func (r *repository) List(ctx context.Context, completed *bool) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := []interface{}{}
	if completed != nil {
		query += ` WHERE is_completed = $1`
		args = append(args, *completed)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []Task{}
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Description, &t.CreatedAt, &t.CompletedAt, &t.IsCompleted); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Task, error) {
	var t Task
	err := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE task_id=$1`, id).
		Scan(&t.ID, &t.Description, &t.CreatedAt, &t.CompletedAt, &t.IsCompleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, httpx.ErrNotFound
	}
	return t, err
}

func (r *repository) Create(ctx context.Context, description string) (Task, error) {
	var t Task
	err := r.pool.QueryRow(ctx, `INSERT INTO tasks (task_description, created_at, is_completed)
VALUES ($1, NOW(), FALSE) RETURNING `+taskColumns, description).
		Scan(&t.ID, &t.Description, &t.CreatedAt, &t.CompletedAt, &t.IsCompleted)
	return t, err
}

func (r *repository) UpdateDescription(ctx context.Context, id int64, description string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tasks SET task_description=$1 WHERE task_id=$2`, description, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) SetCompletion(ctx context.Context, id int64, completed bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tasks SET is_completed=$1,
completed_at=CASE WHEN $1 THEN NOW() ELSE NULL END WHERE task_id=$2`, completed, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE task_id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
