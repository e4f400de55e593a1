package cache

import (
	"time"

	"github.com/kailas-cloud/bookrag/internal/domain/recommendation"
	"github.com/kailas-cloud/bookrag/internal/domain/search/result"
)

// Entry is one cached augmented answer. Vector is always the embedding of Keyword.
type Entry struct {
	Keyword         string
	ISBN            string
	Vector          []float32
	Items           []result.RankedItem
	Total           int
	Recommendations []recommendation.Recommendation
	CreatedAt       time.Time
}

// Expired reports whether the entry is older than ttl at the given instant.
// A non-positive ttl never expires.
func (e *Entry) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(e.CreatedAt) > ttl
}
