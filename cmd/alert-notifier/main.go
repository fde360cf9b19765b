package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/locaops/rental-backend/internal/notifier"
	"github.com/locaops/rental-backend/pkg/config"
	"github.com/locaops/rental-backend/pkg/logger"
	"github.com/locaops/rental-backend/pkg/outbox/idempotency"
	"github.com/locaops/rental-backend/pkg/pubsub"
	"github.com/locaops/rental-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "alert-notifier"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "alert-notifier"

	logg = logger.New(logger.Options{
		ServiceName: "alert-notifier",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	subscription := pubsubClient.AlertsSubscription()
	if subscription == nil {
		logg.Error(context.Background(), "alerts subscription not configured", errors.New("subscription missing"))
		os.Exit(1)
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Outbox.IdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	consumer, err := notifier.NewConsumer(notifier.NewAlertDecoders(), manager, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create alert consumer", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "alert-notifier",
	})
	logg.Info(ctx, "starting alert notifier")

	if err := consumer.Run(ctx, subscription); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "alert notifier stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "alert notifier shutting down gracefully")
}
