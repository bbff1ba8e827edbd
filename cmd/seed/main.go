package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-ddd-cqrs-users/config"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/application"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/container"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/entity"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/event"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/eventbus"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/persistence"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/apperror"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/helpers"
)

// seed creates a demo user through the command side and projects it synchronously, so the read store
// is populated without a running API or worker.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	store, closeStore, err := container.OpenWriteStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open write store: %v", err)
	}
	defer closeStore()
	read, err := container.OpenReadStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open read store: %v", err)
	}

	registry := eventbus.NewRegistry()
	repo := persistence.NewUserRepository(store, eventbus.NewDispatcher(registry, logger), logger)
	sync := container.NewSynchronizer(cfg, repo, read, nil, logger)
	registry.RegisterAll(event.UserTypes(), eventbus.HandlerFunc("user-sync", sync.HandleDomainEvent))

	users := application.NewUserService(repo, helpers.NewBcryptHasher(cfg.BcryptCost), nil, logger)

	email, password := "demo@example.com", "password123"
	birth := time.Date(1990, time.January, 15, 0, 0, 0, 0, time.UTC)
	lat, lon := -6.2, 106.816666
	u, err := users.Create(ctx, application.CreateUserInput{
		Email:     email,
		Phone:     "+6281200000000",
		FirstName: "Demo",
		LastName:  "User",
		Password:  password,
		Birthdate: &birth,
		Latitude:  &lat,
		Longitude: &lon,
		AboutMe:   "Seeded account",
	})
	switch {
	case apperror.Is(err, apperror.KindConflict):
		existing, gErr := repo.GetByEmail(ctx, email, true)
		if gErr != nil {
			log.Fatalf("demo user exists but cannot be loaded: %v", gErr)
		}
		// re-project in case the read store was wiped
		if _, sErr := sync.Sync(ctx, event.NewUserChanged(event.UserProfileUpdated, existing.ID().String(), time.Now())); sErr != nil {
			log.Fatalf("failed to project demo user: %v", sErr)
		}
		u = existing
	case err != nil:
		log.Fatalf("failed to seed user: %v", err)
	}
	printUser(u, password)
}

func printUser(u *entity.User, password string) {
	fmt.Printf("seeded user: id=%s email=%s name=%s password=%s\n", u.ID(), u.Email(), u.Name(), password)
}
