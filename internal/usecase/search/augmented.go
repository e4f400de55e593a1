package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain/cache"
	"github.com/kailas-cloud/bookrag/internal/domain/recommendation"
	"github.com/kailas-cloud/bookrag/internal/domain/search/mode"
	"github.com/kailas-cloud/bookrag/internal/domain/search/page"
	"github.com/kailas-cloud/bookrag/internal/domain/search/query"
	"github.com/kailas-cloud/bookrag/internal/domain/search/result"
)

// Augmented is hybrid retrieval annotated with language-model recommendations.
//
// A cache hit is returned as is. An interactive miss schedules a warm-up and returns
// the plain hybrid result, so user-facing latency never includes a model call.
// A warm-up miss selects candidates, asks the model, and writes the answer to the cache.
type Augmented struct {
	hybrid      *Hybrid
	cache       SemanticCache
	candidates  CandidateSelector
	recommender Recommender
	warmup      WarmupTrigger
	logger      *zap.Logger
	now         func() time.Time
}

// NewAugmented creates the augmented strategy.
func NewAugmented(
	hybrid *Hybrid,
	c SemanticCache,
	candidates CandidateSelector,
	recommender Recommender,
	logger *zap.Logger,
) *Augmented {
	return &Augmented{
		hybrid:      hybrid,
		cache:       c,
		candidates:  candidates,
		recommender: recommender,
		logger:      logger.Named("augmented"),
		now:         time.Now,
	}
}

// WithWarmup connects the asynchronous warm-up trigger. Without it, interactive
// misses still return hybrid results but never populate the cache.
func (s *Augmented) WithWarmup(t WarmupTrigger) *Augmented {
	s.warmup = t
	return s
}

// Mode implements Strategy.
func (s *Augmented) Mode() mode.Mode { return mode.Augmented }

// Search implements Strategy.
func (s *Augmented) Search(ctx context.Context, p page.Page, q query.Query) (result.Outcome, error) {
	q = s.hybrid.vector.embedder.ensureVector(ctx, q)

	if entry, ok := s.cache.Lookup(ctx, q); ok {
		return outcomeFromEntry(&entry, p), nil
	}

	if !q.IsWarmup() {
		if s.warmup != nil {
			s.warmup.TriggerWarmup(q.Keyword())
		}
		return s.hybrid.Search(ctx, p, q)
	}

	fused, err := s.hybrid.Fuse(ctx, q)
	if err != nil {
		return result.Outcome{}, err
	}

	window := fused.Items
	if len(window) > s.hybrid.retrievalK {
		window = window[:s.hybrid.retrievalK]
	}

	var recs []recommendation.Recommendation
	candidates := s.candidates.Select(window, q.IsWarmup())
	if len(candidates) > 0 {
		recs = s.recommender.Recommend(ctx, q.Keyword(), candidates)
	} else {
		s.logger.Debug("No recommendation candidates, skipping generation",
			zap.String("keyword", q.Keyword()),
			zap.Int("fused", fused.Total),
		)
	}

	full := result.Outcome{
		Items:           fused.Items,
		Total:           fused.Total,
		Recommendations: recs,
		CreatedAt:       s.now(),
	}
	s.cache.Store(ctx, q, full)

	full.Items = pageOf(full.Items, p)
	return full, nil
}

func outcomeFromEntry(e *cache.Entry, p page.Page) result.Outcome {
	return result.Outcome{
		Items:           pageOf(e.Items, p),
		Total:           e.Total,
		Recommendations: e.Recommendations,
		CreatedAt:       e.CreatedAt,
		Cached:          true,
	}
}
