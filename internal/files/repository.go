package files

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailpulse/retailpulse/internal/platform/httpx"
)

// ErrAlreadyProcessed rejects reprocessing of a claimed file.
var ErrAlreadyProcessed = errors.New("file already processed")

// Repository persists uploaded file records in PostgreSQL.
type Repository interface {
	List(ctx context.Context) ([]File, error)
	Get(ctx context.Context, id int64) (File, error)
	Create(ctx context.Context, f File) (File, error)
	Delete(ctx context.Context, id int64) error

	// Claim atomically flips processed false -> true. It is the idempotence
	// guard for the ingestion pipeline: a file can be claimed exactly once.
	Claim(ctx context.Context, id int64) error
	RecordFailure(ctx context.Context, id int64, message string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const fileColumns = `file_id, file_name, original_filename, file_size, file_type, upload_date, processed, processing_errors`

func scanFile(row pgx.Row) (File, error) {
	var f File
	err := row.Scan(&f.ID, &f.StoredName, &f.OriginalFilename, &f.Size, &f.Type,
		&f.UploadDate, &f.Processed, &f.ProcessingErrors)
	return f, err
}

func (r *repository) List(ctx context.Context) ([]File, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+fileColumns+` FROM uploaded_files ORDER BY upload_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (File, error) {
	f, err := scanFile(r.pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM uploaded_files WHERE file_id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return File{}, httpx.ErrNotFound
	}
	return f, err
}

func (r *repository) Create(ctx context.Context, f File) (File, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO uploaded_files (file_name, original_filename, file_size, file_type, upload_date, processed)
VALUES ($1,$2,$3,$4,NOW(),FALSE) RETURNING file_id, upload_date`,
		f.StoredName, f.OriginalFilename, f.Size, f.Type).Scan(&f.ID, &f.UploadDate)
	if err != nil {
		return File{}, err
	}
	return f, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM uploaded_files WHERE file_id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) Claim(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE uploaded_files SET processed=TRUE
WHERE file_id=$1 AND processed=FALSE`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	// Either the file is missing or another request claimed it first.
	var processed bool
	err = r.pool.QueryRow(ctx, `SELECT processed FROM uploaded_files WHERE file_id=$1`, id).Scan(&processed)
	if errors.Is(err, pgx.ErrNoRows) {
		return httpx.ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrAlreadyProcessed
}

func (r *repository) RecordFailure(ctx context.Context, id int64, message string) error {
	_, err := r.pool.Exec(ctx, `UPDATE uploaded_files SET processing_errors=$1 WHERE file_id=$2`, message, id)
	return err
}
