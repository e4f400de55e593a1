package semcache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain/cache"
	"github.com/kailas-cloud/bookrag/internal/domain/search/mode"
	"github.com/kailas-cloud/bookrag/internal/domain/search/query"
	"github.com/kailas-cloud/bookrag/internal/domain/search/result"
	"github.com/kailas-cloud/bookrag/internal/domain/vector"
	"github.com/kailas-cloud/bookrag/internal/metrics"
)

// Defaults.
const (
	DefaultSimilarityThreshold = 0.98
	DefaultTTL                 = 24 * time.Hour
	DefaultMaxIdentities       = 4096
)

// Store is the backing store of cached entries, one per keyword.
type Store interface {
	// List returns a snapshot; callers may Delete while iterating it.
	List(ctx context.Context) ([]cache.Entry, error)
	// Put writes e, replacing any entry with the same keyword.
	Put(ctx context.Context, e cache.Entry) error
	// Delete removes the entry for keyword only while it is still the one created at createdAt,
	// and reports whether it did. A newer entry written in between is kept.
	Delete(ctx context.Context, keyword string, createdAt time.Time) (bool, error)
}

// Options tune similarity matching and expiry.
// A zero TTL selects DefaultTTL; a negative TTL disables expiry.
type Options struct {
	SimilarityThreshold float64
	TTL                 time.Duration
	// MaxIdentities caps the exact-identity map; the oldest identities go first.
	MaxIdentities int
	Now           func() time.Time
}

func (o *Options) applyDefaults() {
	if o.SimilarityThreshold <= 0 {
		o.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	if o.MaxIdentities <= 0 {
		o.MaxIdentities = DefaultMaxIdentities
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Cache is a semantic cache of augmented outcomes.
// Lookups try the exact query identity first, then scan stored entries by cosine similarity.
type Cache struct {
	store  Store
	opts   Options
	logger *zap.Logger

	mu    sync.RWMutex
	local map[query.Identity]cache.Entry
}

// New creates a semantic cache over store.
func New(store Store, opts Options, logger *zap.Logger) *Cache {
	opts.applyDefaults()
	return &Cache{
		store:  store,
		opts:   opts,
		logger: logger.Named("semcache"),
		local:  make(map[query.Identity]cache.Entry),
	}
}

// Lookup returns a live entry matching q, evicting expired entries it encounters.
func (c *Cache) Lookup(ctx context.Context, q query.Query) (cache.Entry, bool) {
	now := c.opts.Now()

	if e, ok := c.localGet(q.Identity()); ok {
		if !e.Expired(now, c.opts.TTL) {
			metrics.SemanticCacheLookupsTotal.WithLabelValues("hit").Inc()
			return e, true
		}
		c.evict(ctx, &e)
		metrics.SemanticCacheLookupsTotal.WithLabelValues("expired").Inc()
	}

	if !q.HasVector() {
		metrics.SemanticCacheLookupsTotal.WithLabelValues("miss").Inc()
		return cache.Entry{}, false
	}

	entries, err := c.store.List(ctx)
	if err != nil {
		c.logger.Warn("Cache store list failed, treating as miss", zap.Error(err))
		metrics.SemanticCacheLookupsTotal.WithLabelValues("miss").Inc()
		return cache.Entry{}, false
	}

	for i := range entries {
		e := &entries[i]
		if vector.CosineSimilarity(q.Vector(), e.Vector) < c.opts.SimilarityThreshold {
			continue
		}
		if e.Expired(now, c.opts.TTL) {
			c.evict(ctx, e)
			metrics.SemanticCacheLookupsTotal.WithLabelValues("expired").Inc()
			continue
		}
		metrics.SemanticCacheLookupsTotal.WithLabelValues("hit").Inc()
		return *e, true
	}

	metrics.SemanticCacheLookupsTotal.WithLabelValues("miss").Inc()
	return cache.Entry{}, false
}

// Store caches an augmented outcome. Failures are logged and swallowed.
func (c *Cache) Store(ctx context.Context, q query.Query, out result.Outcome) {
	if q.Mode() != mode.Augmented {
		return
	}

	createdAt := out.CreatedAt
	if createdAt.IsZero() {
		createdAt = c.opts.Now()
	}
	e := cache.Entry{
		Keyword:         q.Keyword(),
		ISBN:            q.ISBN(),
		Vector:          q.Vector(),
		Items:           out.Items,
		Total:           out.Total,
		Recommendations: out.Recommendations,
		CreatedAt:       createdAt,
	}

	c.localPut(q.Identity(), e)

	// Entries without a vector can never match by similarity.
	if len(e.Vector) == 0 {
		return
	}
	if err := c.store.Put(ctx, e); err != nil {
		c.logger.Warn("Cache store write failed",
			zap.String("keyword", e.Keyword),
			zap.Error(err),
		)
	}
}

// evict removes the expired e from the store and drops both the warm-up and interactive
// identities still pointing at it. Identities rewritten since e was read are kept.
func (c *Cache) evict(ctx context.Context, e *cache.Entry) {
	c.mu.Lock()
	for _, warmup := range []bool{false, true} {
		id := query.Identity{Mode: mode.Augmented, Keyword: e.Keyword, ISBN: e.ISBN, Warmup: warmup}
		if cur, ok := c.local[id]; ok && cur.CreatedAt.Equal(e.CreatedAt) {
			delete(c.local, id)
		}
	}
	c.mu.Unlock()

	deleted, err := c.store.Delete(ctx, e.Keyword, e.CreatedAt)
	if err != nil {
		c.logger.Warn("Cache store delete failed",
			zap.String("keyword", e.Keyword),
			zap.Error(err),
		)
		return
	}
	if !deleted {
		c.logger.Debug("Expired cache entry already replaced", zap.String("keyword", e.Keyword))
		return
	}
	c.logger.Debug("Evicted expired cache entry",
		zap.String("keyword", e.Keyword),
		zap.Time("created_at", e.CreatedAt),
	)
}

func (c *Cache) localGet(id query.Identity) (cache.Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.local[id]
	return e, ok
}

// localPut records e under id, then drops expired identities and trims the map
// to MaxIdentities by age.
func (c *Cache) localPut(id query.Identity, e cache.Entry) {
	now := c.opts.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.local[id] = e

	for k, v := range c.local {
		if v.Expired(now, c.opts.TTL) {
			delete(c.local, k)
		}
	}
	for len(c.local) > c.opts.MaxIdentities {
		var oldest query.Identity
		var oldestAt time.Time
		first := true
		for k, v := range c.local {
			if k == id {
				continue
			}
			if first || v.CreatedAt.Before(oldestAt) {
				oldest, oldestAt, first = k, v.CreatedAt, false
			}
		}
		delete(c.local, oldest)
	}
}
