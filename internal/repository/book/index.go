package book

import (
	"github.com/kailas-cloud/bookrag/internal/db"
	"github.com/kailas-cloud/bookrag/internal/domain"
)

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

func indexName() string { return domain.KeyPrefix + "book:idx" }

func keyPrefix() string { return domain.KeyPrefix + "book:" }

func bookKey(id string) string { return keyPrefix() + id }

// buildIndex defines the catalog index: text fields for keyword matching, an exact isbn tag,
// numeric rating signals and an HNSW cosine vector field.
func buildIndex(vectorDim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	return db.NewIndex(indexName()).
		Prefix(keyPrefix()).
		Text(fieldTitle).
		Text(fieldSubtitle).
		Text(fieldAuthor).
		Text(fieldPublisher).
		Text(fieldDescription).
		Tag(fieldISBN).
		Numeric(fieldRating).
		Numeric(fieldReviewCount).
		VectorHNSW(fieldEmbedding, vectorDim, db.DistanceCosine, hnsw.M, hnsw.EFConstruct).
		Build()
}
