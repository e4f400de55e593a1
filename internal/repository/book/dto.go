package book

import (
	"strconv"

	"github.com/kailas-cloud/bookrag/internal/db/redis"
	dombook "github.com/kailas-cloud/bookrag/internal/domain/book"
)

// Hash field names of an indexed book.
const (
	fieldISBN          = "isbn"
	fieldTitle         = "title"
	fieldSubtitle      = "subtitle"
	fieldAuthor        = "author"
	fieldPublisher     = "publisher"
	fieldPublishedDate = "published_date"
	fieldDescription   = "description"
	fieldRating        = "rating"
	fieldReviewCount   = "review_count"
	fieldReviewSummary = "review_summary"
	fieldEmbedding     = "embedding"
)

// keywordFields are OR-matched by lexical search; fieldDescription joins them in full-text mode.
var keywordFields = []string{fieldTitle, fieldAuthor, fieldPublisher, fieldSubtitle}

// returnFields is every stored attribute except the embedding.
var returnFields = []string{
	fieldISBN, fieldTitle, fieldSubtitle, fieldAuthor, fieldPublisher, fieldPublishedDate,
	fieldDescription, fieldRating, fieldReviewCount, fieldReviewSummary,
}

// buildHashFields flattens a book for HSET. Books without an embedding get no vector
// field and are therefore invisible to KNN search.
func buildHashFields(b *dombook.Book, embedding []float32) map[string]string {
	m := map[string]string{
		fieldISBN:          b.ISBN,
		fieldTitle:         b.Title,
		fieldSubtitle:      b.Subtitle,
		fieldAuthor:        b.Author,
		fieldPublisher:     b.Publisher,
		fieldPublishedDate: b.PublishedDate,
		fieldDescription:   b.Description,
		fieldRating:        strconv.FormatFloat(b.Rating, 'f', -1, 64),
		fieldReviewCount:   strconv.Itoa(b.ReviewCount),
		fieldReviewSummary: b.ReviewSummary,
	}
	if len(embedding) > 0 {
		m[fieldEmbedding] = string(redis.VectorToBytes(embedding))
	}
	return m
}

// parseHashFields converts returned fields into a domain book. Unparseable numerics read as zero.
func parseHashFields(id string, m map[string]string) dombook.Book {
	rating, _ := strconv.ParseFloat(m[fieldRating], 64)
	reviews, _ := strconv.Atoi(m[fieldReviewCount])
	return dombook.Book{
		ID:            id,
		ISBN:          m[fieldISBN],
		Title:         m[fieldTitle],
		Subtitle:      m[fieldSubtitle],
		Author:        m[fieldAuthor],
		Publisher:     m[fieldPublisher],
		PublishedDate: m[fieldPublishedDate],
		Description:   m[fieldDescription],
		Rating:        rating,
		ReviewCount:   reviews,
		ReviewSummary: m[fieldReviewSummary],
	}
}
