package tasks

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/retailpulse/retailpulse/internal/platform/httpx"
)

// Handler exposes task CRUD over JSON.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the tasks HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes attaches task routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/complete", h.complete)
	r.Post("/{id}/reopen", h.reopen)
}

type taskPayload struct {
	Description string `json:"task_description" validate:"required,max=4000"`
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var completed *bool
	if raw := r.URL.Query().Get("completed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid completed filter")
			return
		}
		completed = &v
	}
	list, err := h.service.List(r.Context(), completed)
	if err != nil {
		h.logger.Error("list tasks", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tasks": list})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid task id")
		return
	}
	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload taskPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	task, err := h.service.Create(r.Context(), payload.Description)
	if err != nil {
		h.logger.Error("create task", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, task)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid task id")
		return
	}
	var payload taskPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdateDescription(r.Context(), id, payload.Description); err != nil {
		h.logger.Error("update task", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid task id")
		return
	}
	if err := h.service.Complete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) reopen(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid task id")
		return
	}
	if err := h.service.Reopen(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid task id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
