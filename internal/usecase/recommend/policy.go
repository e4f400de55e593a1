package recommend

import (
	"github.com/kailas-cloud/bookrag/internal/domain/recommendation"
	"github.com/kailas-cloud/bookrag/internal/domain/search/result"
)

// Candidate selection defaults.
const (
	DefaultThreshold     = 0.02
	DefaultMaxCandidates = 5
	DefaultFallbackSize  = 3
)

// Policy decides which fused items are worth a language-model call.
type Policy struct {
	// Threshold is the minimum fused score, inclusive.
	Threshold float64
	// MaxCandidates caps qualifying candidates.
	MaxCandidates int
	// FallbackSize is how many top items are used when nothing qualifies (warm-up only).
	FallbackSize int
}

// DefaultPolicy returns the production candidate policy.
func DefaultPolicy() Policy {
	return Policy{
		Threshold:     DefaultThreshold,
		MaxCandidates: DefaultMaxCandidates,
		FallbackSize:  DefaultFallbackSize,
	}
}

// Select returns the qualifying candidates from items ordered by descending fused score.
// When none qualify and warmup is set, the top FallbackSize items are used instead
// so the model still receives context. Interactive selections never fall back.
func (p Policy) Select(items []result.RankedItem, warmup bool) []recommendation.Candidate {
	var out []recommendation.Candidate
	for _, it := range items {
		if len(out) >= p.MaxCandidates {
			break
		}
		if score, ok := it.FusedScore(); ok && score >= p.Threshold {
			out = append(out, CandidateFrom(it))
		}
	}
	if len(out) > 0 || !warmup {
		return out
	}

	n := min(p.FallbackSize, len(items))
	for _, it := range items[:n] {
		out = append(out, CandidateFrom(it))
	}
	return out
}

// CandidateFrom flattens a ranked item into a prompt candidate.
func CandidateFrom(it result.RankedItem) recommendation.Candidate {
	b := it.Book()
	c := recommendation.Candidate{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		PublishedDate: b.PublishedDate,
		Description:   b.Description,
		ReviewSummary: b.ReviewSummary,
	}
	if b.HasRating() {
		c.Rating = b.Rating
		c.ReviewCount = b.ReviewCount
	}
	if score, ok := it.FusedScore(); ok {
		c.FusedScore = score
	}
	if sim, ok := it.Similarity(); ok {
		c.Similarity = &sim
	}
	return c
}
