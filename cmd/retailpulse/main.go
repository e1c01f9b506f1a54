package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/retailpulse/retailpulse/internal/analytics"
	"github.com/retailpulse/retailpulse/internal/app"
	"github.com/retailpulse/retailpulse/internal/catalog"
	"github.com/retailpulse/retailpulse/internal/files"
	"github.com/retailpulse/retailpulse/internal/ingest"
	"github.com/retailpulse/retailpulse/internal/observability"
	"github.com/retailpulse/retailpulse/internal/platform/cache"
	"github.com/retailpulse/retailpulse/internal/platform/db"
	"github.com/retailpulse/retailpulse/internal/tasks"
	"github.com/retailpulse/retailpulse/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	storage, err := files.NewStorage(cfg.UploadDir)
	if err != nil {
		logger.Error("init upload storage", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	taskRepo := tasks.NewRepository(pool)
	taskService := tasks.NewService(taskRepo)
	taskHandler := tasks.NewHandler(logger, taskService)

	analyticsRepo := analytics.NewRepository(pool)
	analyticsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL)
	analyticsEngine := analytics.NewEngine(logger, analyticsRepo)
	analyticsService := analytics.NewService(logger, analyticsRepo, analyticsCache)
	analyticsHandler := analytics.NewHandler(logger, analyticsService)
	if err := analyticsCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	notifier := jobs.NewNotifier(logger, analyticsCache, jobClient)

	fileRepo := files.NewRepository(pool)
	fileService := files.NewService(fileRepo, storage)
	ingestRepo := ingest.NewRepository(pool)
	pipeline := ingest.NewPipeline(logger, fileRepo, ingestRepo, analyticsEngine, notifier)
	fileHandler := files.NewHandler(logger, fileService, pipeline, metrics, cfg.MaxUploadSize)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		CatalogHandler:   catalogHandler,
		TaskHandler:      taskHandler,
		FileHandler:      fileHandler,
		AnalyticsHandler: analyticsHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
