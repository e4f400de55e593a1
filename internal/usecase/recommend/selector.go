package recommend

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain"
	"github.com/kailas-cloud/bookrag/internal/domain/recommendation"
	"github.com/kailas-cloud/bookrag/internal/metrics"
)

// Selector asks the language model to judge recommendation candidates.
// It never fails its caller: generation or parse errors produce an empty list.
type Selector struct {
	gen       domain.Generator
	descChars int
	logger    *zap.Logger
}

// NewSelector creates a recommendation selector.
func NewSelector(gen domain.Generator, logger *zap.Logger) *Selector {
	return &Selector{gen: gen, descChars: DefaultDescriptionChars, logger: logger.Named("recommend")}
}

// WithDescriptionChars overrides the content excerpt length used in prompts.
func (s *Selector) WithDescriptionChars(n int) *Selector {
	if n > 0 {
		s.descChars = n
	}
	return s
}

// Recommend prompts the model with candidates and returns its parsed verdicts,
// each carrying the similarity and fused score of the matching candidate.
func (s *Selector) Recommend(
	ctx context.Context, queryText string, candidates []recommendation.Candidate,
) []recommendation.Recommendation {
	if len(candidates) == 0 {
		return nil
	}

	// Prompt position matters: the best-scored candidates go first.
	sorted := make([]recommendation.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FusedScore > sorted[j].FusedScore
	})

	prompt := buildPrompt(queryText, sorted, s.descChars)

	res, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("Recommendation generation failed",
			zap.String("query", queryText),
			zap.Int("candidates", len(sorted)),
			zap.Error(err),
		)
		return nil
	}
	domain.UsageFromContext(ctx).AddGenerationTokens(res.PromptTokens + res.CompletionTokens)

	recs, err := parseResponse(res.Text)
	if err != nil {
		metrics.RecommendationParseErrorsTotal.Inc()
		s.logger.Warn("Discarding unparseable model response",
			zap.String("query", queryText),
			zap.Int("response_len", len(res.Text)),
			zap.Error(err),
		)
		return nil
	}

	return s.attachProvenance(queryText, recs, sorted)
}

// attachProvenance copies retrieval scores from candidates by id.
// Recommendations for ids that were never offered are dropped.
func (s *Selector) attachProvenance(
	queryText string, recs []recommendation.Recommendation, candidates []recommendation.Candidate,
) []recommendation.Recommendation {
	byID := make(map[string]*recommendation.Candidate, len(candidates))
	for i := range candidates {
		byID[candidates[i].ID] = &candidates[i]
	}

	out := recs[:0]
	seen := make(map[string]bool, len(recs))
	for _, r := range recs {
		c, ok := byID[r.ID]
		if !ok {
			s.logger.Debug("Dropping recommendation for unknown id",
				zap.String("query", queryText),
				zap.String("id", r.ID),
			)
			continue
		}
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true

		r.FusedScore = c.FusedScore
		if c.Similarity != nil {
			sim := *c.Similarity
			r.Similarity = &sim
		}
		out = append(out, r)
	}
	return out
}
