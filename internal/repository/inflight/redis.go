package inflight

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/bookrag/internal/domain"
)

var keyPrefix = domain.KeyPrefix + "warmup:"

// DefaultTTL bounds how long a marker outlives a crashed replica.
const DefaultTTL = 5 * time.Minute

// lockStore is the consumer interface for the Redis in-flight set (ISP).
type lockStore interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// Redis shares in-flight markers across replicas with SET NX EX.
type Redis struct {
	store lockStore
	ttl   time.Duration
}

// NewRedis creates a Redis-backed in-flight set. A non-positive ttl uses DefaultTTL.
func NewRedis(s lockStore, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{store: s, ttl: ttl}
}

// Acquire sets the marker for key if no replica holds it.
func (r *Redis) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := r.store.SetNX(ctx, keyPrefix+key, []byte("1"), r.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire warm-up marker %q: %w", key, err)
	}
	return ok, nil
}

// Release deletes the marker for key.
func (r *Redis) Release(ctx context.Context, key string) error {
	if err := r.store.Del(ctx, keyPrefix+key); err != nil {
		return fmt.Errorf("release warm-up marker %q: %w", key, err)
	}
	return nil
}
