package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/locaops/rental-backend/internal/alerts"
	"github.com/locaops/rental-backend/internal/incidents"
	"github.com/locaops/rental-backend/internal/items"
	"github.com/locaops/rental-backend/internal/reconciliation"
	"github.com/locaops/rental-backend/internal/sweep"
	"github.com/locaops/rental-backend/pkg/config"
	"github.com/locaops/rental-backend/pkg/db"
	"github.com/locaops/rental-backend/pkg/logger"
	"github.com/locaops/rental-backend/pkg/metrics"
	"github.com/locaops/rental-backend/pkg/migrate"
	"github.com/locaops/rental-backend/pkg/outbox"
	"github.com/locaops/rental-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "drift-sweeper"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "drift-sweeper"

	logg = logger.New(logger.Options{
		ServiceName: "drift-sweeper",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	sweepMetrics := metrics.NewSweepMetrics(registry)

	itemRepo := items.NewRepository(dbClient.DB())
	incidentRepo := incidents.NewRepository(dbClient.DB())
	detector, err := reconciliation.NewDetector(itemRepo, incidentRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create drift detector", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	alertService, err := alerts.NewService(outboxService, "drift-sweeper")
	if err != nil {
		logg.Error(context.Background(), "failed to create alert service", err)
		os.Exit(1)
	}

	driftJob, err := sweep.NewDriftJob(sweep.DriftJobParams{
		DB:       dbClient.DB(),
		Detector: detector,
		Alerts:   alertService,
		Metrics:  sweepMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create drift job", err)
		os.Exit(1)
	}

	lock, err := sweep.NewRedisLock(redisClient, redisClient.LockKey("drift-sweep"), cfg.Sweep.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep lock", err)
		os.Exit(1)
	}

	service, err := sweep.NewService(sweep.ServiceParams{
		Logger:   logg,
		Registry: sweep.NewRegistry(driftJob),
		Lock:     lock,
		Metrics:  sweepMetrics,
		Interval: cfg.Sweep.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep service", err)
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:    ":" + cfg.Sweep.Port,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(context.Background(), "metrics server stopped unexpectedly", err)
		}
	}()
	defer metricsServer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "drift-sweeper",
		"interval":    cfg.Sweep.Interval.String(),
	})
	logg.Info(ctx, "starting drift sweeper")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "drift sweeper stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "drift sweeper shutting down gracefully")
}
