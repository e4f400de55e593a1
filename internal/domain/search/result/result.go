package result

import (
	"time"

	"github.com/kailas-cloud/bookrag/internal/domain/book"
	"github.com/kailas-cloud/bookrag/internal/domain/recommendation"
)

// RankedItem is one retrieved book in a ranked list.
type RankedItem struct {
	book          book.Book
	similarity    float64
	hasSimilarity bool
	fused         float64
	hasFused      bool
}

// New creates a ranked item without scores.
func New(b book.Book) RankedItem {
	return RankedItem{book: b}
}

// NewWithSimilarity creates a ranked item produced by vector retrieval.
func NewWithSimilarity(b book.Book, similarity float64) RankedItem {
	return RankedItem{book: b, similarity: similarity, hasSimilarity: true}
}

// Reconstruct rebuilds a ranked item from persisted fields (used by storage adapters).
func Reconstruct(b book.Book, similarity *float64, fused *float64) RankedItem {
	r := RankedItem{book: b}
	if similarity != nil {
		r.similarity, r.hasSimilarity = *similarity, true
	}
	if fused != nil {
		r.fused, r.hasFused = *fused, true
	}
	return r
}

// ID returns the book identifier.
func (r RankedItem) ID() string { return r.book.ID }

// Book returns the book attributes.
func (r RankedItem) Book() book.Book { return r.book }

// Similarity returns the cosine similarity to the query vector, if known.
func (r RankedItem) Similarity() (float64, bool) { return r.similarity, r.hasSimilarity }

// FusedScore returns the RRF score, if the item went through fusion.
func (r RankedItem) FusedScore() (float64, bool) { return r.fused, r.hasFused }

// WithSimilarity returns a copy with the similarity set.
func (r RankedItem) WithSimilarity(s float64) RankedItem {
	r.similarity, r.hasSimilarity = s, true
	return r
}

// WithFusedScore returns a copy with the fused score set.
func (r RankedItem) WithFusedScore(s float64) RankedItem {
	r.fused, r.hasFused = s, true
	return r
}

// Fused is the output of rank fusion: items ordered by descending fused score.
type Fused struct {
	Items []RankedItem
	Total int
}

// Page is one window of a paged retrieval.
type Page struct {
	Items []RankedItem
	Total int
}

// Outcome is what a search strategy returns to its caller.
type Outcome struct {
	Items           []RankedItem
	Total           int
	Recommendations []recommendation.Recommendation
	CreatedAt       time.Time
	// Cached is true when the outcome was served from the semantic cache.
	Cached bool
}
