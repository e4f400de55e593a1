package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain"
	"github.com/kailas-cloud/bookrag/internal/domain/search/mode"
	"github.com/kailas-cloud/bookrag/internal/domain/search/page"
	"github.com/kailas-cloud/bookrag/internal/domain/search/query"
	"github.com/kailas-cloud/bookrag/internal/domain/search/result"
	"github.com/kailas-cloud/bookrag/internal/metrics"
)

// Service dispatches a query to the strategy registered for its mode.
type Service struct {
	strategies map[mode.Mode]Strategy
	logger     *zap.Logger
}

// New creates a search service from the given strategies. A later strategy for the
// same mode replaces an earlier one.
func New(logger *zap.Logger, strategies ...Strategy) *Service {
	m := make(map[mode.Mode]Strategy, len(strategies))
	for _, s := range strategies {
		m[s.Mode()] = s
	}
	return &Service{strategies: m, logger: logger.Named("search")}
}

// Search executes the query with the strategy matching its mode.
func (s *Service) Search(ctx context.Context, p page.Page, q query.Query) (result.Outcome, error) {
	strategy, ok := s.strategies[q.Mode()]
	if !ok {
		return result.Outcome{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedMode, q.Mode())
	}

	start := time.Now()
	out, err := strategy.Search(ctx, p, q)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(string(q.Mode()), status).Inc()
	metrics.SearchRequestDuration.WithLabelValues(string(q.Mode())).Observe(duration.Seconds())

	if err != nil {
		s.logger.Error("Search failed",
			zap.String("mode", string(q.Mode())),
			zap.String("keyword", q.Keyword()),
			zap.Bool("warmup", q.IsWarmup()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return result.Outcome{}, fmt.Errorf("search %s: %w", q.Mode(), err)
	}

	s.logger.Debug("Search completed",
		zap.String("mode", string(q.Mode())),
		zap.String("keyword", q.Keyword()),
		zap.Bool("warmup", q.IsWarmup()),
		zap.Bool("cached", out.Cached),
		zap.Int("total", out.Total),
		zap.Int("recommendations", len(out.Recommendations)),
		zap.Duration("duration", duration),
	)

	return out, nil
}
