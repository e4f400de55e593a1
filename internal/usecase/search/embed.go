package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain"
	"github.com/kailas-cloud/bookrag/internal/domain/search/query"
)

// queryEmbedder attaches a keyword embedding to queries that arrive without one.
type queryEmbedder struct {
	embed  domain.Embedder
	logger *zap.Logger
}

// ensureVector returns q with an embedding when one can be computed.
// Embedding failures are logged and the query is returned unchanged.
func (e queryEmbedder) ensureVector(ctx context.Context, q query.Query) query.Query {
	if q.HasVector() || q.Keyword() == "" || e.embed == nil {
		return q
	}

	res, err := e.embed.Embed(ctx, q.Keyword())
	if err != nil {
		e.logger.Warn("Query embedding failed, continuing without vector",
			zap.String("keyword", q.Keyword()),
			zap.Error(err),
		)
		return q
	}

	domain.UsageFromContext(ctx).AddEmbeddingTokens(res.TotalTokens)
	return q.WithVector(res.Embedding)
}
