package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/retailpulse/retailpulse/internal/analytics"
	"github.com/retailpulse/retailpulse/internal/app"
	"github.com/retailpulse/retailpulse/internal/platform/cache"
	"github.com/retailpulse/retailpulse/internal/platform/db"
	"github.com/retailpulse/retailpulse/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	analyticsRepo := analytics.NewRepository(pool)
	analyticsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL)
	deriver := analytics.NewRollup(logger, analyticsRepo)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAnalyticsRollup, Handler: jobs.NewRollupHandler(logger, deriver, analyticsCache)},
			{Type: jobs.TaskAnalyticsRollupAll, Handler: jobs.NewRollupAllHandler(logger, deriver, analyticsCache)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "45 1 * * *", Task: jobs.NewRollupAllTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
