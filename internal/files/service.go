package files

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/retailpulse/retailpulse/internal/platform/httpx"
)

// Service coordinates file records with their on-disk payloads.
type Service struct {
	repo    Repository
	storage *Storage
}

// NewService wires the repository with disk storage.
func NewService(repo Repository, storage *Storage) *Service {
	return &Service{repo: repo, storage: storage}
}

func (s *Service) List(ctx context.Context) ([]File, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (File, error) {
	if id <= 0 {
		return File{}, fmt.Errorf("%w: invalid file id", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Upload stores a CSV payload and records it. Only .csv uploads are accepted.
func (s *Service) Upload(ctx context.Context, originalName string, src io.Reader) (File, error) {
	if !strings.HasSuffix(strings.ToLower(originalName), ".csv") {
		return File{}, fmt.Errorf("%w: only CSV uploads are supported", httpx.ErrValidation)
	}

	storedName, size, err := s.storage.Save(originalName, src)
	if err != nil {
		return File{}, err
	}

	file, err := s.repo.Create(ctx, File{
		StoredName:       storedName,
		OriginalFilename: originalName,
		Size:             size,
		Type:             "csv",
	})
	if err != nil {
		_ = s.storage.Remove(storedName)
		return File{}, err
	}
	return file, nil
}

// Open returns a reader over the stored payload of a file record.
func (s *Service) Open(ctx context.Context, id int64) (File, io.ReadCloser, error) {
	file, err := s.Get(ctx, id)
	if err != nil {
		return File{}, nil, err
	}
	rc, err := s.storage.Open(file.StoredName)
	if err != nil {
		return File{}, nil, fmt.Errorf("%w: stored payload missing", httpx.ErrNotFound)
	}
	return file, rc, nil
}

// Delete removes the disk payload and the record. Sales referencing the file
// cascade at the database level.
func (s *Service) Delete(ctx context.Context, id int64) error {
	file, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.Remove(file.StoredName); err != nil {
		return fmt.Errorf("files: remove payload: %w", err)
	}
	return s.repo.Delete(ctx, id)
}

// Path resolves the on-disk location for downloads.
func (s *Service) Path(file File) string {
	return s.storage.Path(file.StoredName)
}
