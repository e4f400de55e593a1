package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain"
	"github.com/kailas-cloud/bookrag/internal/domain/search/mode"
	"github.com/kailas-cloud/bookrag/internal/domain/search/page"
	"github.com/kailas-cloud/bookrag/internal/domain/search/query"
	"github.com/kailas-cloud/bookrag/internal/domain/search/result"
)

// Vector ranks books by cosine similarity between the query embedding and stored book embeddings.
type Vector struct {
	repo     Retriever
	embedder queryEmbedder
	logger   *zap.Logger
	now      func() time.Time
}

// NewVector creates the vector strategy. embed computes the query embedding when the
// query does not carry one.
func NewVector(repo Retriever, embed domain.Embedder, logger *zap.Logger) *Vector {
	logger = logger.Named("vector")
	return &Vector{
		repo:     repo,
		embedder: queryEmbedder{embed: embed, logger: logger},
		logger:   logger,
		now:      time.Now,
	}
}

// Mode implements Strategy.
func (s *Vector) Mode() mode.Mode { return mode.Vector }

// Search implements Strategy. A missing embedding or a retrieval failure yields an empty outcome.
func (s *Vector) Search(ctx context.Context, p page.Page, q query.Query) (result.Outcome, error) {
	res := s.retrieve(ctx, p, s.embedder.ensureVector(ctx, q))
	return result.Outcome{Items: res.Items, Total: res.Total, CreatedAt: s.now()}, nil
}

func (s *Vector) retrieve(ctx context.Context, p page.Page, q query.Query) result.Page {
	if !q.HasVector() {
		return result.Page{}
	}

	res, err := s.repo.VectorSearch(ctx, p, q.Vector())
	if err != nil {
		s.logger.Warn("Vector search failed, returning empty page",
			zap.String("keyword", q.Keyword()),
			zap.Error(err),
		)
		return result.Page{}
	}
	return res
}
