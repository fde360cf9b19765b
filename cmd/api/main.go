package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/locaops/rental-backend/api/routes"
	"github.com/locaops/rental-backend/internal/alerts"
	"github.com/locaops/rental-backend/internal/availability"
	"github.com/locaops/rental-backend/internal/incidents"
	"github.com/locaops/rental-backend/internal/items"
	"github.com/locaops/rental-backend/internal/reconciliation"
	"github.com/locaops/rental-backend/pkg/config"
	"github.com/locaops/rental-backend/pkg/db"
	"github.com/locaops/rental-backend/pkg/logger"
	"github.com/locaops/rental-backend/pkg/migrate"
	"github.com/locaops/rental-backend/pkg/outbox"
	"github.com/locaops/rental-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	itemRepo := items.NewRepository(dbClient.DB())
	incidentRepo := incidents.NewRepository(dbClient.DB())

	itemService, err := items.NewService(itemRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create item service", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	alertService, err := alerts.NewService(outboxService, "api")
	if err != nil {
		logg.Error(context.Background(), "failed to create alert service", err)
		os.Exit(1)
	}

	resolver, err := reconciliation.NewResolver(dbClient.DB(), itemRepo, incidentRepo, alertService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock resolver", err)
		os.Exit(1)
	}
	detector, err := reconciliation.NewDetector(itemRepo, incidentRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create drift detector", err)
		os.Exit(1)
	}

	availabilityService, err := availability.NewService(dbClient.DB(), itemRepo, availability.NewRepository(dbClient.DB()), alertService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create availability service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Items:        itemService,
			Availability: availabilityService,
			Incidents:    incidentRepo,
			Resolver:     resolver,
			Detector:     detector,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
