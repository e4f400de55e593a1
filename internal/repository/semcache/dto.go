package semcache

import (
	"time"

	"github.com/kailas-cloud/bookrag/internal/domain/book"
	"github.com/kailas-cloud/bookrag/internal/domain/cache"
	"github.com/kailas-cloud/bookrag/internal/domain/recommendation"
	"github.com/kailas-cloud/bookrag/internal/domain/search/result"
)

// entryDTO is the JSON form of a cache entry.
type entryDTO struct {
	Keyword         string                          `json:"keyword"`
	ISBN            string                          `json:"isbn,omitempty"`
	Vector          []float32                       `json:"vector"`
	Items           []itemDTO                       `json:"items"`
	Total           int                             `json:"total"`
	Recommendations []recommendation.Recommendation `json:"recommendations,omitempty"`
	CreatedAt       time.Time                       `json:"created_at"`
}

type itemDTO struct {
	ID            string   `json:"id"`
	ISBN          string   `json:"isbn,omitempty"`
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle,omitempty"`
	Author        string   `json:"author,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Description   string   `json:"description,omitempty"`
	Rating        float64  `json:"rating,omitempty"`
	ReviewCount   int      `json:"review_count,omitempty"`
	ReviewSummary string   `json:"review_summary,omitempty"`
	Similarity    *float64 `json:"similarity,omitempty"`
	FusedScore    *float64 `json:"fused_score,omitempty"`
}

func toDTO(e *cache.Entry) entryDTO {
	items := make([]itemDTO, len(e.Items))
	for i, it := range e.Items {
		b := it.Book()
		d := itemDTO{
			ID:            b.ID,
			ISBN:          b.ISBN,
			Title:         b.Title,
			Subtitle:      b.Subtitle,
			Author:        b.Author,
			Publisher:     b.Publisher,
			PublishedDate: b.PublishedDate,
			Description:   b.Description,
			Rating:        b.Rating,
			ReviewCount:   b.ReviewCount,
			ReviewSummary: b.ReviewSummary,
		}
		if s, ok := it.Similarity(); ok {
			d.Similarity = &s
		}
		if s, ok := it.FusedScore(); ok {
			d.FusedScore = &s
		}
		items[i] = d
	}
	return entryDTO{
		Keyword:         e.Keyword,
		ISBN:            e.ISBN,
		Vector:          e.Vector,
		Items:           items,
		Total:           e.Total,
		Recommendations: e.Recommendations,
		CreatedAt:       e.CreatedAt,
	}
}

func fromDTO(d *entryDTO) cache.Entry {
	items := make([]result.RankedItem, len(d.Items))
	for i := range d.Items {
		it := &d.Items[i]
		items[i] = result.Reconstruct(book.Book{
			ID:            it.ID,
			ISBN:          it.ISBN,
			Title:         it.Title,
			Subtitle:      it.Subtitle,
			Author:        it.Author,
			Publisher:     it.Publisher,
			PublishedDate: it.PublishedDate,
			Description:   it.Description,
			Rating:        it.Rating,
			ReviewCount:   it.ReviewCount,
			ReviewSummary: it.ReviewSummary,
		}, it.Similarity, it.FusedScore)
	}
	return cache.Entry{
		Keyword:         d.Keyword,
		ISBN:            d.ISBN,
		Vector:          d.Vector,
		Items:           items,
		Total:           d.Total,
		Recommendations: d.Recommendations,
		CreatedAt:       d.CreatedAt,
	}
}
