package semcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain"
	"github.com/kailas-cloud/bookrag/internal/domain/cache"
)

var keyPrefix = domain.KeyPrefix + "semcache:"

// expiryMargin keeps a Redis key alive past the cache TTL so the read path,
// not the server, observes and evicts stale entries.
const expiryMargin = time.Hour

// createdAtField is the JSON field compared by conditional deletes; see entryDTO.
const createdAtField = "created_at"

// kvStore is the consumer interface for the Redis entry store (ISP).
type kvStore interface {
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Set(ctx context.Context, key string, value []byte) error
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	DelIfField(ctx context.Context, key, field, want string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Redis stores entries as JSON strings, one key per keyword, shared across replicas.
type Redis struct {
	store  kvStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis creates a Redis-backed entry store. A positive ttl sets key expiry to ttl plus a margin.
func NewRedis(s kvStore, ttl time.Duration, logger *zap.Logger) *Redis {
	return &Redis{store: s, ttl: ttl, logger: logger}
}

// List scans all entries and returns them oldest first.
func (r *Redis) List(ctx context.Context) ([]cache.Entry, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan entries: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	out := make([]cache.Entry, 0, len(values))
	for i, data := range values {
		if data == nil {
			// expired or deleted between SCAN and MGET
			continue
		}
		var d entryDTO
		if err := json.Unmarshal(data, &d); err != nil {
			r.logger.Warn("Skipping undecodable cache entry", zap.String("key", keys[i]), zap.Error(err))
			continue
		}
		out = append(out, fromDTO(&d))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Put writes e under its keyword, replacing any previous entry.
func (r *Redis) Put(ctx context.Context, e cache.Entry) error {
	data, err := json.Marshal(toDTO(&e))
	if err != nil {
		return fmt.Errorf("%w: encode entry: %w", domain.ErrCacheStore, err)
	}

	key := entryKey(e.Keyword)
	if r.ttl > 0 {
		err = r.store.SetWithTTL(ctx, key, data, r.ttl+expiryMargin)
	} else {
		err = r.store.Set(ctx, key, data)
	}
	if err != nil {
		return fmt.Errorf("%w: put %q: %w", domain.ErrCacheStore, e.Keyword, err)
	}
	return nil
}

// Delete removes the entry for keyword if its stored created_at still equals createdAt.
// The comparison and the delete run as one server-side script.
func (r *Redis) Delete(ctx context.Context, keyword string, createdAt time.Time) (bool, error) {
	deleted, err := r.store.DelIfField(ctx, entryKey(keyword), createdAtField, createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return false, fmt.Errorf("%w: delete %q: %w", domain.ErrCacheStore, keyword, err)
	}
	return deleted, nil
}

func entryKey(keyword string) string {
	h := sha256.Sum256([]byte(keyword))
	return keyPrefix + hex.EncodeToString(h[:])
}
