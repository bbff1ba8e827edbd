package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-cqrs-users/config"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/application"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/container"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/event"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/eventbus"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/gcs"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/persistence"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/rabbitmq"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/router"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/helpers"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/mailer/templates"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	helpers.SetLevel(logger, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	// Events are handed to workers after commit; handlers never block the request.
	registry := eventbus.NewRegistry()
	dispatcher := eventbus.NewAsyncDispatcher(eventbus.NewDispatcher(registry, logger), logger, cfg.DispatchWorkers, cfg.DispatchQueueSize)
	repo := persistence.NewUserRepository(store, dispatcher, logger)

	if cfg.SyncInProcess {
		sync := container.NewSynchronizer(cfg, repo, read, rdb, logger)
		registry.RegisterAll(event.UserTypes(), eventbus.HandlerFunc("user-sync", sync.HandleDomainEvent))
	}
	var publishers []*rabbitmq.Publisher
	if cfg.PublishIntegrationEvents {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQSyncQueue)
		if err != nil {
			log.Fatalf("failed to init sync publisher: %v", err)
		}
		publishers = append(publishers, pub)
		registry.RegisterAll(event.UserTypes(), rabbitmq.NewEventForwarder(pub))
	}
	if !cfg.SyncInProcess && !cfg.PublishIntegrationEvents {
		logger.Warn("SYNC_IN_PROCESS and PUBLISH_INTEGRATION_EVENTS are both off; the read model will not be updated")
	}
	if cfg.MailSendEnabled {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			log.Fatalf("failed to init email publisher: %v", err)
		}
		publishers = append(publishers, pub)
		notifier := application.NewNotifier(repo, pub, templates.Brand{
			AppName:        cfg.AppName,
			CompanyName:    cfg.CompanyName,
			CompanyAddress: cfg.CompanyAddress,
			SupportURL:     cfg.SupportURL,
		})
		registry.RegisterAll(notifier.Types(), notifier)
	}

	var images application.ImageStore
	if cfg.GCSBucket != "" {
		gcsClient, err := gcs.NewClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			log.Fatalf("failed to init GCS client: %v", err)
		}
		defer func() { _ = gcsClient.Close() }()
		imageStore := gcs.NewImageStore(gcsClient, cfg.GCSBucket)
		images = imageStore
		container.SetImageURL(imageStore.URL)
	}

	users := application.NewUserService(repo, helpers.NewBcryptHasher(cfg.BcryptCost), images, logger)
	queries := application.NewQueryService(read, container.Limits(cfg))

	// Provide singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetRedis(rdb)
	container.SetUserService(users)
	container.SetQueryService(queries)

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(), middleware.RealIP())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins(),
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Location", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	// drain queued events before the publishers and stores go away
	if err := dispatcher.Close(ctxShutdown); err != nil {
		logger.WithError(err).Warn("event dispatcher did not drain")
	}
	for _, p := range publishers {
		p.Close()
	}
	logger.WithFields(logrus.Fields{"write_store": cfg.WriteStore, "read_store": cfg.ReadStore}).Info("server exited properly")
}
