package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/retailpulse/retailpulse/internal/ingest"
	"github.com/retailpulse/retailpulse/internal/platform/httpx"
)

// Processor runs the ingestion pipeline over an uploaded file's payload.
type Processor interface {
	Process(ctx context.Context, fileID int64, src io.Reader) (ingest.Stats, error)
}

// ImportObserver records import outcomes for metrics.
type ImportObserver interface {
	ObserveImport(processed, skipped int)
}

// Handler exposes upload, download and processing of sales files.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	processor Processor
	observer  ImportObserver
	maxUpload int64
}

// NewHandler constructs the files HTTP handler. observer may be nil.
func NewHandler(logger *slog.Logger, service *Service, processor Processor, observer ImportObserver, maxUpload int64) *Handler {
	return &Handler{logger: logger, service: service, processor: processor, observer: observer, maxUpload: maxUpload}
}

// MountRoutes attaches file routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.upload)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/download", h.download)
	r.Post("/{id}/process", h.process)
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list files", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"files": list})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid file id")
		return
	}
	file, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, file)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "multipart form required and must fit the upload limit")
		return
	}
	src, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "missing file field")
		return
	}
	defer func() { _ = src.Close() }()

	file, err := h.service.Upload(r.Context(), header.Filename, src)
	if err != nil {
		h.logger.Error("upload file", slog.Any("error", err), slog.String("name", header.Filename))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, file)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid file id")
		return
	}
	file, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.OriginalFilename))
	w.Header().Set("Content-Type", "text/csv")
	http.ServeFile(w, r, h.service.Path(file))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid file id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete file", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid file id")
		return
	}

	file, src, err := h.service.Open(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	defer func() { _ = src.Close() }()

	stats, err := h.processor.Process(r.Context(), file.ID, src)
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			httpx.Problem(w, http.StatusConflict, "Conflict", "file already processed")
			return
		}
		h.logger.Error("process file", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	if h.observer != nil {
		h.observer.ObserveImport(stats.ProcessedRows, stats.SkippedRows)
	}
	httpx.JSON(w, http.StatusOK, stats)
}
