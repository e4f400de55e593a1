package search

import (
	"context"

	"github.com/kailas-cloud/bookrag/internal/domain/cache"
	"github.com/kailas-cloud/bookrag/internal/domain/recommendation"
	"github.com/kailas-cloud/bookrag/internal/domain/search/mode"
	"github.com/kailas-cloud/bookrag/internal/domain/search/page"
	"github.com/kailas-cloud/bookrag/internal/domain/search/query"
	"github.com/kailas-cloud/bookrag/internal/domain/search/result"
)

// Strategy is one retrieval policy. All four modes share this contract.
type Strategy interface {
	Mode() mode.Mode
	Search(ctx context.Context, p page.Page, q query.Query) (result.Outcome, error)
}

// LexicalFilter narrows lexical retrieval.
// Keyword is OR-matched across title, author, publisher and subtitle;
// FullText additionally matches the description. ISBN is an exact match ANDed in.
type LexicalFilter struct {
	Keyword  string
	ISBN     string
	FullText bool
}

// Retriever is the storage contract for book retrieval.
type Retriever interface {
	LexicalSearch(ctx context.Context, p page.Page, f LexicalFilter) (result.Page, error)
	VectorSearch(ctx context.Context, p page.Page, vector []float32) (result.Page, error)
	List(ctx context.Context, p page.Page) (result.Page, error)
	CountAll(ctx context.Context) (int, error)
}

// SemanticCache stores augmented outcomes keyed by embedding similarity.
type SemanticCache interface {
	Lookup(ctx context.Context, q query.Query) (cache.Entry, bool)
	Store(ctx context.Context, q query.Query, out result.Outcome)
}

// CandidateSelector gates fused items before they reach the language model.
type CandidateSelector interface {
	Select(items []result.RankedItem, warmup bool) []recommendation.Candidate
}

// Recommender asks the language model to judge candidates.
type Recommender interface {
	Recommend(ctx context.Context, queryText string, candidates []recommendation.Candidate) []recommendation.Recommendation
}

// WarmupTrigger schedules asynchronous cache population for a keyword. It must not block.
type WarmupTrigger interface {
	TriggerWarmup(keyword string)
}
