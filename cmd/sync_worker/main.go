package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-ddd-cqrs-users/config"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/application/synchronizer"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/container"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/persistence"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/rabbitmq"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/helpers"
)

// sync_worker consumes integration events from RabbitMQ and projects them into the read store. It runs
// alongside an API started with PUBLISH_INTEGRATION_EVENTS=true.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-sync-worker", cfg.Env)
	helpers.SetLevel(logger, cfg.LogLevel)
	if cfg.RabbitMQURL == "" || cfg.RabbitMQSyncQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// migrations belong to the API
	cfg.RunMigrations = false
	store, closeStore, err := container.OpenWriteStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open write store: %v", err)
	}
	defer closeStore()
	read, err := container.OpenReadStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open read store: %v", err)
	}
	rdb := container.OpenRedis(ctx, cfg, logger)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	// read-only use of the write side: no dispatcher
	source := persistence.NewUserRepository(store, nil, logger)
	sync := container.NewSynchronizer(cfg, source, read, rdb, logger)

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL, cfg.RabbitMQSyncQueue, cfg.RabbitMQPrefetch,
		sync.HandleIntegrationMessage,
		func(err error) bool { return errors.Is(err, synchronizer.ErrRetryable) },
		logger,
	)
	if err != nil {
		log.Fatalf("failed to init consumer: %v", err)
	}
	defer consumer.Close()

	if err := consumer.Run(ctx); err != nil {
		logger.WithError(err).Error("sync worker stopped")
		return
	}
	logger.Info("sync worker exited properly")
}
