package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-ddd-cqrs-users/pkg/apperror"
)

const dedupPrefix = "user-sync:event:"

// Deduplicator claims event ids with SET NX so redelivered integration events sync once per TTL.
type Deduplicator struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewDeduplicator(rdb redis.Cmdable, ttl time.Duration) *Deduplicator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Deduplicator{rdb: rdb, ttl: ttl}
}

// Claim reports true when eventID was not seen within the TTL.
func (d *Deduplicator) Claim(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, Key(eventID), time.Now().UTC().Format(time.RFC3339Nano), d.ttl).Result()
	if err != nil {
		return false, apperror.Transient("claim event", err)
	}
	return ok, nil
}

// Release forgets a claim so a redelivery is processed again.
func (d *Deduplicator) Release(ctx context.Context, eventID string) error {
	if err := d.rdb.Del(ctx, Key(eventID)).Err(); err != nil {
		return apperror.Transient("release event", err)
	}
	return nil
}

func Key(eventID string) string { return dedupPrefix + eventID }
