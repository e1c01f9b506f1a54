package files

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retailpulse/retailpulse/internal/platform/httpx"
)

type fakeRepo struct {
	nextID   int64
	records  map[int64]File
	failures map[int64]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[int64]File{}, failures: map[int64]string{}}
}

func (f *fakeRepo) List(ctx context.Context) ([]File, error) {
	list := make([]File, 0, len(f.records))
	for _, rec := range f.records {
		list = append(list, rec)
	}
	return list, nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (File, error) {
	rec, ok := f.records[id]
	if !ok {
		return File{}, httpx.ErrNotFound
	}
	return rec, nil
}

func (f *fakeRepo) Create(ctx context.Context, rec File) (File, error) {
	f.nextID++
	rec.ID = f.nextID
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.records[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeRepo) Claim(ctx context.Context, id int64) error {
	rec, ok := f.records[id]
	if !ok {
		return httpx.ErrNotFound
	}
	if rec.Processed {
		return ErrAlreadyProcessed
	}
	rec.Processed = true
	f.records[id] = rec
	return nil
}

func (f *fakeRepo) RecordFailure(ctx context.Context, id int64, message string) error {
	f.failures[id] = message
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, string) {
	t.Helper()
	dir := t.TempDir()
	storage, err := NewStorage(dir)
	require.NoError(t, err)
	repo := newFakeRepo()
	return NewService(repo, storage), repo, dir
}

func TestUploadStoresCSV(t *testing.T) {
	svc, repo, dir := newTestService(t)

	file, err := svc.Upload(context.Background(), "sales_march.CSV", strings.NewReader("a,b,c\n"))
	require.NoError(t, err)
	require.Equal(t, "sales_march.CSV", file.OriginalFilename)
	require.Equal(t, int64(6), file.Size)
	require.False(t, file.Processed)
	require.Contains(t, repo.records, file.ID)

	payload, err := os.ReadFile(filepath.Join(dir, file.StoredName))
	require.NoError(t, err)
	require.Equal(t, "a,b,c\n", string(payload))
}

func TestUploadRejectsNonCSV(t *testing.T) {
	svc, repo, dir := newTestService(t)

	_, err := svc.Upload(context.Background(), "sales.xlsx", strings.NewReader("nope"))
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Empty(t, repo.records)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestOpenRoundTrips(t *testing.T) {
	svc, _, _ := newTestService(t)

	uploaded, err := svc.Upload(context.Background(), "sales.csv", strings.NewReader("x,y\n1,2\n"))
	require.NoError(t, err)

	file, rc, err := svc.Open(context.Background(), uploaded.ID)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	require.Equal(t, uploaded.ID, file.ID)
	payload, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "x,y\n1,2\n", string(payload))
}

func TestOpenMissingFile(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.Open(context.Background(), 404)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestDeleteRemovesPayloadAndRecord(t *testing.T) {
	svc, repo, dir := newTestService(t)

	file, err := svc.Upload(context.Background(), "sales.csv", strings.NewReader("a\n"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), file.ID))
	require.Empty(t, repo.records)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestClaimIsOneShot(t *testing.T) {
	_, repo, _ := newTestService(t)
	rec, err := repo.Create(context.Background(), File{StoredName: "x.csv"})
	require.NoError(t, err)

	require.NoError(t, repo.Claim(context.Background(), rec.ID))
	require.ErrorIs(t, repo.Claim(context.Background(), rec.ID), ErrAlreadyProcessed)
}
