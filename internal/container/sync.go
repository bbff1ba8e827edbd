package container

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-cqrs-users/config"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/application/synchronizer"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/repository"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/memory"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/redisstore"
)

// OpenRedis connects to Redis. It returns nil when Redis is unset or unreachable; rate limiting and
// cross-process deduplication are then off.
func OpenRedis(ctx context.Context, c *config.Config, log *logrus.Logger) *redis.Client {
	if c.RedisAddr == "" {
		return nil
	}
	rdb, err := redisstore.NewClient(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
	if err != nil {
		log.WithError(err).Warn("redis unavailable; rate limiting and shared dedup disabled")
		return nil
	}
	return rdb
}

// NewSynchronizer builds the read-model synchronizer. Event ids are claimed in Redis when available,
// in process memory otherwise.
func NewSynchronizer(c *config.Config, source synchronizer.Source, read repository.UserReadRepository, rdb *redis.Client, log *logrus.Logger) *synchronizer.Synchronizer {
	s := synchronizer.New(source, read, log)
	if c.SyncRefetchTimeout > 0 {
		s.RefetchTimeout = c.SyncRefetchTimeout
	}
	if rdb != nil {
		return s.WithDeduplicator(redisstore.NewDeduplicator(rdb, c.SyncDedupTTL))
	}
	return s.WithDeduplicator(memory.NewDeduplicator(c.SyncDedupTTL))
}
