package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage writes uploaded documents to the local disk.
type Storage struct {
	dir string
}

// NewStorage ensures the upload directory exists.
func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("files: create upload dir: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Save streams the payload to disk under a generated stored name.
func (s *Storage) Save(originalName string, src io.Reader) (storedName string, size int64, err error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	storedName = uuid.NewString() + ext

	dst, err := os.Create(filepath.Join(s.dir, storedName))
	if err != nil {
		return "", 0, fmt.Errorf("files: create: %w", err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("files: close: %w", cerr)
		}
	}()

	size, err = io.Copy(dst, src)
	if err != nil {
		return "", 0, fmt.Errorf("files: write: %w", err)
	}
	return storedName, size, nil
}

// Open returns a reader over a stored document.
func (s *Storage) Open(storedName string) (*os.File, error) {
	return os.Open(filepath.Join(s.dir, storedName))
}

// Path resolves the on-disk location of a stored document.
func (s *Storage) Path(storedName string) string {
	return filepath.Join(s.dir, storedName)
}

// Remove deletes a stored document. Missing files are not an error.
func (s *Storage) Remove(storedName string) error {
	err := os.Remove(filepath.Join(s.dir, storedName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
