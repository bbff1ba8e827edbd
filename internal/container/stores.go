package container

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-cqrs-users/config"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/pagination"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/repository"
	esinfra "github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/elasticsearch"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/postgres"
)

// Store kinds selectable through WRITE_STORE and READ_STORE.
const (
	StorePostgres      = "postgres"
	StoreElasticsearch = "elasticsearch"
	StoreMemory        = "memory"
)

// Limits returns the page-size bounds from configuration.
func Limits(c *config.Config) pagination.Limits {
	return pagination.Limits{Default: c.PageSizeDefault, Max: c.PageSizeMax}
}

// OpenWriteStore builds the configured write store. The returned close func is never nil.
func OpenWriteStore(ctx context.Context, c *config.Config, log *logrus.Logger) (repository.UserStore, func(), error) {
	switch c.WriteStore {
	case StoreMemory:
		log.Warn("using in-memory write store; data is lost on restart")
		return memory.NewUserStore(), func() {}, nil
	case StorePostgres, "":
		if c.RunMigrations {
			if err := pginfra.Migrate(c.PostgresDSN(), c.MigrationsDir, log); err != nil {
				return nil, nil, err
			}
		}
		pool, err := pginfra.NewPool(ctx, c.PostgresDSN(), pginfra.PoolOptions{
			MaxConns:        c.DBMaxConns,
			MinConns:        c.DBMinConns,
			MaxConnLifetime: c.DBMaxConnLife,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("connected to postgres")
		return pginfra.NewUserStore(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown WRITE_STORE %q", c.WriteStore)
	}
}

// OpenReadStore builds the configured read store and makes sure its index exists.
func OpenReadStore(ctx context.Context, c *config.Config, log *logrus.Logger) (repository.UserReadRepository, error) {
	switch c.ReadStore {
	case StoreMemory:
		log.Warn("using in-memory read store; projections are lost on restart")
		return memory.NewUserReadRepository(Limits(c)), nil
	case StoreElasticsearch, "":
		client, err := esinfra.NewClient(esinfra.ClientOptions{
			Addresses: c.ESAddrs(),
			Username:  c.ElasticsearchUser,
			Password:  c.ElasticsearchPass,
		})
		if err != nil {
			return nil, err
		}
		repo := esinfra.NewUserReadRepository(client, esinfra.Options{
			Index:   c.ESUsersIndex,
			Refresh: c.ESRefresh,
			Limits:  Limits(c),
			Timeout: c.ESTimeout,
		}, log)
		if err := repo.EnsureIndex(ctx); err != nil {
			return nil, err
		}
		log.WithField("index", c.ESUsersIndex).Info("elasticsearch read store ready")
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown READ_STORE %q", c.ReadStore)
	}
}
