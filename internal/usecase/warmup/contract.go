package warmup

import (
	"context"

	"github.com/kailas-cloud/bookrag/internal/domain/cache"
	"github.com/kailas-cloud/bookrag/internal/domain/search/page"
	"github.com/kailas-cloud/bookrag/internal/domain/search/query"
	"github.com/kailas-cloud/bookrag/internal/domain/search/result"
)

// InFlight is the dedup set of keywords being warmed. Acquire must be an atomic insert-if-absent.
type InFlight interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Cache is the read side of the semantic cache.
type Cache interface {
	Lookup(ctx context.Context, q query.Query) (cache.Entry, bool)
}

// Runner executes the augmented strategy on a warm-up query.
type Runner interface {
	Search(ctx context.Context, p page.Page, q query.Query) (result.Outcome, error)
}
