package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-mfg/internal/app"
	jobmetrics "github.com/odyssey-erp/odyssey-mfg/internal/jobs"
	"github.com/odyssey-erp/odyssey-mfg/internal/observability"
	"github.com/odyssey-erp/odyssey-mfg/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-mfg/internal/platform/db"
	"github.com/odyssey-erp/odyssey-mfg/internal/platform/tracing"
	"github.com/odyssey-erp/odyssey-mfg/internal/shared"
	"github.com/odyssey-erp/odyssey-mfg/jobs"
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

	tracer, err := tracing.Init(ctx, "odyssey-worker", cfg.AppEnv, cfg.OTelTraces)
	if err != nil {
		logger.Error("init tracing", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracer.Shutdown(shutdownCtx)
	}()

	pool, err := db.New(ctx, cfg.PGDSN, db.WithMaxConns(cfg.PGMaxConns), db.WithApplicationName("odyssey-worker"))
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}

	metrics := observability.NewMetrics()
	services := app.NewServices(app.ServiceDeps{
		Config:  cfg,
		Logger:  logger,
		Pool:    pool,
		Metrics: metrics.Lifecycle(),
		Tracer:  tracer.Tracer("odyssey/lifecycle"),
	})
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())
	if cfg.WorkerMetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.WorkerMetricsAddr, logger); err != nil {
				logger.Warn("metrics server", slog.Any("error", err))
			}
		}()
	}

	idempotency := shared.NewIdempotencyStore(pool)
	eventJob := jobs.NewEventJob(services.Bus, idempotency, logger, jobMetrics)
	pruneJob := jobs.NewPruneJob(idempotency, logger, jobMetrics)
	sweepJob := jobs.NewSweepJob(services.OrderRepo, services.Evaluator, logger, jobMetrics)

	sweepTask, err := jobs.NewSweepTask(cfg.SweepBatchSize)
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}
	pruneTask, err := jobs.NewPruneTask(cfg.IdempotencyRetention)
	if err != nil {
		logger.Error("build prune task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts.AsynqOpt(),
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLifecycleEvent, Handler: eventJob.Handle},
			{Type: jobs.TaskLifecycleSweep, Handler: sweepJob.Handle},
			{Type: jobs.TaskIdempotencyPrune, Handler: pruneJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SweepCron, Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(1), asynq.Unique(5 * time.Minute)}},
			{Spec: cfg.PruneCron, Task: pruneTask, Options: []asynq.Option{asynq.MaxRetry(3), asynq.Unique(time.Hour)}},
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
