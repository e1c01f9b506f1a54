package tasks

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/retailpulse/retailpulse/internal/platform/httpx"
)

type fakeRepo struct {
	nextID int64
	tasks  map[int64]Task
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tasks: map[int64]Task{}}
}

func (f *fakeRepo) List(ctx context.Context, completed *bool) ([]Task, error) {
	list := []Task{}
	for _, task := range f.tasks {
		if completed != nil && task.IsCompleted != *completed {
			continue
		}
		list = append(list, task)
	}
	return list, nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return Task{}, httpx.ErrNotFound
	}
	return task, nil
}

func (f *fakeRepo) Create(ctx context.Context, description string) (Task, error) {
	f.nextID++
	task := Task{ID: f.nextID, Description: description, CreatedAt: time.Now()}
	f.tasks[task.ID] = task
	return task, nil
}

func (f *fakeRepo) UpdateDescription(ctx context.Context, id int64, description string) error {
	task, ok := f.tasks[id]
	if !ok {
		return httpx.ErrNotFound
	}
	task.Description = description
	f.tasks[id] = task
	return nil
}

func (f *fakeRepo) SetCompletion(ctx context.Context, id int64, completed bool) error {
	task, ok := f.tasks[id]
	if !ok {
		return httpx.ErrNotFound
	}
	task.IsCompleted = completed
	if completed {
		now := time.Now()
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}
	f.tasks[id] = task
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.tasks[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}

func newTestRouter(repo Repository) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo))
	r := chi.NewRouter()
	r.Route("/tasks", handler.MountRoutes)
	return r
}

func TestCreateAndGetTask(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tasks",
		strings.NewReader(`{"task_description":"restock shelves"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "restock shelves", created.Description)
	require.False(t, created.IsCompleted)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateTaskRequiresDescription(t *testing.T) {
	router := newTestRouter(newFakeRepo())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompleteAndReopenTask(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)
	_, err := repo.Create(context.Background(), "count inventory")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tasks/1/complete", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, repo.tasks[1].IsCompleted)
	require.NotNil(t, repo.tasks[1].CompletedAt)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tasks/1/reopen", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, repo.tasks[1].IsCompleted)
	require.Nil(t, repo.tasks[1].CompletedAt)
}

func TestListTasksFiltersCompleted(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)
	_, err := repo.Create(context.Background(), "open item")
	require.NoError(t, err)
	done, err := repo.Create(context.Background(), "done item")
	require.NoError(t, err)
	require.NoError(t, repo.SetCompletion(context.Background(), done.ID, true))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks?completed=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tasks []Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Tasks, 1)
	require.Equal(t, "done item", body.Tasks[0].Description)
}

func TestDeleteTask(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)
	_, err := repo.Create(context.Background(), "ephemeral")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/tasks/1", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/tasks/1", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
