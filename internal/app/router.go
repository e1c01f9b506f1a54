package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/retailpulse/retailpulse/internal/analytics"
	"github.com/retailpulse/retailpulse/internal/catalog"
	"github.com/retailpulse/retailpulse/internal/files"
	"github.com/retailpulse/retailpulse/internal/observability"
	"github.com/retailpulse/retailpulse/internal/tasks"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	CatalogHandler   *catalog.Handler
	TaskHandler      *tasks.Handler
	FileHandler      *files.Handler
	AnalyticsHandler *analytics.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with RetailPulse defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		if params.CatalogHandler != nil {
			params.CatalogHandler.MountRoutes(r)
		}
		if params.TaskHandler != nil {
			r.Route("/tasks", params.TaskHandler.MountRoutes)
		}
		if params.FileHandler != nil {
			r.Route("/files", params.FileHandler.MountRoutes)
		}
		if params.AnalyticsHandler != nil {
			r.Route("/analytics", params.AnalyticsHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
