package search

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/bookrag/internal/domain/search/mode"
	"github.com/kailas-cloud/bookrag/internal/domain/search/page"
	"github.com/kailas-cloud/bookrag/internal/domain/search/query"
	"github.com/kailas-cloud/bookrag/internal/domain/search/result"
)

// DefaultRetrievalK is the internal page size for each retrieval before fusion.
const DefaultRetrievalK = 100

// Hybrid runs lexical and vector retrieval at a fixed breadth and fuses them with RRF.
// The caller's page is sliced out of the fused ranking, so ranking does not depend on page size.
type Hybrid struct {
	lexical    *Lexical
	vector     *Vector
	retrievalK int
	rrfK       int
	now        func() time.Time
}

// NewHybrid creates the hybrid strategy on top of the lexical and vector strategies.
func NewHybrid(lexical *Lexical, vector *Vector) *Hybrid {
	return &Hybrid{
		lexical:    lexical,
		vector:     vector,
		retrievalK: DefaultRetrievalK,
		rrfK:       DefaultRRFK,
		now:        time.Now,
	}
}

// WithRetrievalK overrides the per-retrieval breadth.
func (s *Hybrid) WithRetrievalK(k int) *Hybrid {
	if k > 0 {
		s.retrievalK = k
	}
	return s
}

// WithRRFK overrides the RRF constant.
func (s *Hybrid) WithRRFK(k int) *Hybrid {
	if k > 0 {
		s.rrfK = k
	}
	return s
}

// Mode implements Strategy.
func (s *Hybrid) Mode() mode.Mode { return mode.Hybrid }

// Search implements Strategy.
func (s *Hybrid) Search(ctx context.Context, p page.Page, q query.Query) (result.Outcome, error) {
	q = s.vector.embedder.ensureVector(ctx, q)

	fused, err := s.Fuse(ctx, q)
	if err != nil {
		return result.Outcome{}, err
	}

	return result.Outcome{
		Items:     pageOf(fused.Items, p),
		Total:     fused.Total,
		CreatedAt: s.now(),
	}, nil
}

// Fuse retrieves both rankings concurrently and returns the full fused list.
// The vector side never fails the call: it degrades to an empty ranking.
func (s *Hybrid) Fuse(ctx context.Context, q query.Query) (result.Fused, error) {
	window := page.First(s.retrievalK)

	var lex, vec result.Page
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lex, err = s.lexical.retrieve(gctx, window, q)
		return err
	})
	g.Go(func() error {
		vec = s.vector.retrieve(gctx, window, q)
		return nil
	})
	if err := g.Wait(); err != nil {
		return result.Fused{}, err
	}

	return FuseK(s.rrfK, lex.Items, vec.Items), nil
}

func pageOf(items []result.RankedItem, p page.Page) []result.RankedItem {
	start, end := p.Window(len(items))
	return items[start:end]
}
