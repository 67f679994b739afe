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

	"github.com/odyssey-erp/odyssey-mfg/internal/app"
	"github.com/odyssey-erp/odyssey-mfg/internal/dispatch"
	"github.com/odyssey-erp/odyssey-mfg/internal/events"
	"github.com/odyssey-erp/odyssey-mfg/internal/lifecycle"
	"github.com/odyssey-erp/odyssey-mfg/internal/observability"
	"github.com/odyssey-erp/odyssey-mfg/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-mfg/internal/platform/db"
	"github.com/odyssey-erp/odyssey-mfg/internal/platform/tracing"
	"github.com/odyssey-erp/odyssey-mfg/internal/production"
	"github.com/odyssey-erp/odyssey-mfg/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-mfg/internal/sales/quotations"
	"github.com/odyssey-erp/odyssey-mfg/internal/settings"
	"github.com/odyssey-erp/odyssey-mfg/jobs"
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

	tracer, err := tracing.Init(ctx, "odyssey-api", cfg.AppEnv, cfg.OTelTraces)
	if err != nil {
		logger.Error("init tracing", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown", slog.Any("error", err))
		}
	}()

	dbpool, err := db.New(ctx, cfg.PGDSN, db.WithMaxConns(cfg.PGMaxConns), db.WithApplicationName("odyssey-api"))
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, dbpool); err != nil {
			logger.Error("migrate schema", slog.Any("error", err))
			os.Exit(1)
		}
	}

	redisOpts := cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	var settingsCache *settings.Cache
	redisClient, err := cache.New(ctx, redisOpts)
	if err != nil {
		logger.Warn("redis unavailable, settings cache disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		settingsCache = settings.NewCache(redisClient, cfg.SettingsCacheTTL).WithLogger(logger)
	}
	settingsStore := settings.NewStore(settings.NewRepository(dbpool), settingsCache, logger)

	metrics := observability.NewMetrics()

	var publisher events.Publisher
	if cfg.EventsAsync {
		client := jobs.NewClient(redisOpts.AsynqOpt())
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("asynq client close", slog.Any("error", err))
			}
		}()
		publisher = client
		logger.Info("lifecycle events delivered through worker queue")
	}

	services := app.NewServices(app.ServiceDeps{
		Config:    cfg,
		Logger:    logger,
		Pool:      dbpool,
		Settings:  settingsStore,
		Metrics:   metrics.Lifecycle(),
		Tracer:    tracer.Tracer("odyssey/lifecycle"),
		Publisher: publisher,
	})

	inspector := asynq.NewInspector(redisOpts.AsynqOpt())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Pool:              dbpool,
		Metrics:           metrics,
		OrdersHandler:     orders.NewHandler(logger, services.Orders),
		LifecycleHandler:  lifecycle.NewHandler(logger, services.Orchestrator, services.Evaluator),
		ProductionHandler: production.NewHandler(logger, services.Production),
		DispatchHandler:   dispatch.NewHandler(logger, services.Dispatch),
		QuotationsHandler: quotations.NewHandler(logger, services.Quotations),
		SettingsHandler:   settings.NewHandler(logger, settingsStore),
		JobHandler:        jobs.NewHandler(inspector, logger),
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
