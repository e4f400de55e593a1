package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/bookrag/internal/domain/search/mode"
)

// MaxKeywordLength is the maximum allowed keyword length.
const MaxKeywordLength = 1024

// Query is one immutable search request.
type Query struct {
	keyword string
	isbn    string
	mode    mode.Mode
	vector  []float32
	warmup  bool
}

// Identity is the comparable part of a Query used for exact-match lookups.
// The warm-up flag is part of identity: a warm-up query and its interactive twin are distinct keys.
type Identity struct {
	Mode    mode.Mode
	Keyword string
	ISBN    string
	Warmup  bool
}

// New validates and normalizes search parameters. Defaults: mode=hybrid.
func New(keyword, isbn string, m mode.Mode, vector []float32, warmup bool) (Query, error) {
	keyword = strings.TrimSpace(keyword)
	isbn = strings.TrimSpace(isbn)
	if len(keyword) > MaxKeywordLength {
		return Query{}, fmt.Errorf("keyword too long (max %d chars)", MaxKeywordLength)
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Query{}, fmt.Errorf("invalid search mode: %q", m)
	}
	return Query{keyword: keyword, isbn: isbn, mode: m, vector: vector, warmup: warmup}, nil
}

// Keyword returns the free-text query.
func (q Query) Keyword() string { return q.keyword }

// ISBN returns the exact-match isbn filter (may be empty).
func (q Query) ISBN() string { return q.isbn }

// Mode returns the requested retrieval strategy.
func (q Query) Mode() mode.Mode { return q.mode }

// Vector returns the precomputed keyword embedding (nil if absent).
func (q Query) Vector() []float32 { return q.vector }

// HasVector reports whether a non-empty embedding is attached.
func (q Query) HasVector() bool { return len(q.vector) > 0 }

// IsWarmup reports whether this query runs on the cache warm-up path.
func (q Query) IsWarmup() bool { return q.warmup }

// HasFilters reports whether keyword or isbn narrows the result set.
func (q Query) HasFilters() bool { return q.keyword != "" || q.isbn != "" }

// WithVector returns a copy carrying the given embedding.
func (q Query) WithVector(v []float32) Query {
	q.vector = v
	return q
}

// Identity returns the exact-match key of this query.
func (q Query) Identity() Identity {
	return Identity{Mode: q.mode, Keyword: q.keyword, ISBN: q.isbn, Warmup: q.warmup}
}
