package catalog

import (
	"context"

	bookrepo "github.com/kailas-cloud/bookrag/internal/repository/book"
)

// Saver upserts indexed books.
type Saver interface {
	Save(ctx context.Context, books []bookrepo.Indexed) error
}
