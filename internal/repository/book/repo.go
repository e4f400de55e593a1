package book

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/bookrag/internal/db"
	dombook "github.com/kailas-cloud/bookrag/internal/domain/book"
	"github.com/kailas-cloud/bookrag/internal/domain/search/page"
	"github.com/kailas-cloud/bookrag/internal/domain/search/result"
	"github.com/kailas-cloud/bookrag/internal/usecase/search"
)

// store is the consumer interface for the catalog (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Compile-time check: Repo implements search.Retriever.
var _ search.Retriever = (*Repo)(nil)

// Indexed is a book together with its description embedding, ready for storage.
type Indexed struct {
	Book      dombook.Book
	Embedding []float32
}

// Repo is the Redis-backed book catalog.
type Repo struct {
	store     store
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a book repository for embeddings of the given dimension.
func New(s store, vectorDim int) *Repo {
	return &Repo{store: s, vectorDim: vectorDim, hnsw: HNSWConfig{M: 16, EFConstruct: 200}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// EnsureIndex creates the catalog index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName())
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(r.vectorDim, r.hnsw)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Save upserts books in one pipelined round-trip.
func (r *Repo) Save(ctx context.Context, books []Indexed) error {
	items := make([]db.HashSetItem, 0, len(books))
	for i := range books {
		b := &books[i]
		if b.Book.ID == "" {
			return fmt.Errorf("book %d: empty id", i)
		}
		if len(b.Embedding) > 0 && len(b.Embedding) != r.vectorDim {
			return fmt.Errorf("book %s: embedding has %d dimensions, index expects %d",
				b.Book.ID, len(b.Embedding), r.vectorDim)
		}
		items = append(items, db.HashSetItem{
			Key:    bookKey(b.Book.ID),
			Fields: buildHashFields(&b.Book, b.Embedding),
		})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("save books: %w", err)
	}
	return nil
}

// LexicalSearch matches the keyword across title, author, publisher and subtitle
// (plus description in full-text mode) and ANDs an exact isbn filter.
func (r *Repo) LexicalSearch(ctx context.Context, p page.Page, f search.LexicalFilter) (result.Page, error) {
	fields := keywordFields
	if f.FullText {
		fields = append(append([]string(nil), keywordFields...), fieldDescription)
	}

	q := &db.TextQuery{
		IndexName:    indexName(),
		Text:         f.Keyword,
		TextFields:   fields,
		Offset:       p.Offset(),
		Limit:        p.Size,
		ReturnFields: returnFields,
	}
	if f.ISBN != "" {
		q.Tags = map[string]string{fieldISBN: f.ISBN}
	}

	sr, err := r.store.SearchText(ctx, q)
	if err != nil {
		return result.Page{}, fmt.Errorf("lexical search: %w", err)
	}
	return toPage(sr, false), nil
}

// VectorSearch ranks books by cosine similarity to vector. Books without an embedding are excluded.
func (r *Repo) VectorSearch(ctx context.Context, p page.Page, vector []float32) (result.Page, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(),
		VectorField:  fieldEmbedding,
		Vector:       vector,
		K:            p.Offset() + p.Size,
		Offset:       p.Offset(),
		Limit:        p.Size,
		ReturnFields: returnFields,
	})
	if err != nil {
		return result.Page{}, fmt.Errorf("vector search: %w", err)
	}
	return toPage(sr, true), nil
}

// List returns an unfiltered page of the catalog.
func (r *Repo) List(ctx context.Context, p page.Page) (result.Page, error) {
	sr, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName:    indexName(),
		Offset:       p.Offset(),
		Limit:        p.Size,
		ReturnFields: returnFields,
	})
	if err != nil {
		return result.Page{}, fmt.Errorf("list books: %w", err)
	}
	return toPage(sr, false), nil
}

// CountAll returns the number of indexed books.
func (r *Repo) CountAll(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

func toPage(sr *db.SearchResult, withSimilarity bool) result.Page {
	if sr == nil || sr.Total == 0 {
		return result.Page{}
	}

	items := make([]result.RankedItem, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		b := parseHashFields(strings.TrimPrefix(e.Key, keyPrefix()), e.Fields)
		if withSimilarity {
			items = append(items, result.NewWithSimilarity(b, e.Score))
		} else {
			items = append(items, result.New(b))
		}
	}
	return result.Page{Items: items, Total: sr.Total}
}
