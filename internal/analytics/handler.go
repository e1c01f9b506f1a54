package analytics

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/retailpulse/retailpulse/internal/platform/httpx"
)

// Handler exposes the reporting queries over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches analytics routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/report", h.report)
	r.Get("/trends", h.trends)
	r.Get("/summary", h.summary)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := ReportFilter{PeriodType: query.Get("period")}

	var ok bool
	if filter.StartDate, ok = parseDateParam(query.Get("start_date")); !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "start_date must be YYYY-MM-DD")
		return
	}
	if filter.EndDate, ok = parseDateParam(query.Get("end_date")); !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "end_date must be YYYY-MM-DD")
		return
	}
	if filter.ProductID, ok = parseIDParam(query.Get("product_id")); !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product_id")
		return
	}
	if filter.CategoryID, ok = parseIDParam(query.Get("category_id")); !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid category_id")
		return
	}

	report, err := h.service.Report(r.Context(), filter)
	if err != nil {
		h.logger.Error("sales report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) trends(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := TrendFilter{Period: query.Get("period")}

	var ok bool
	if filter.ProductID, ok = parseIDParam(query.Get("product_id")); !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product_id")
		return
	}
	if filter.CategoryID, ok = parseIDParam(query.Get("category_id")); !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid category_id")
		return
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	trends, err := h.service.Trends(r.Context(), filter)
	if err != nil {
		h.logger.Error("sales trends", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, trends)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.logger.Error("sales summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func parseDateParam(raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	ts, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, false
	}
	return &ts, true
}

func parseIDParam(raw string) (*int64, bool) {
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, false
	}
	return &id, true
}
