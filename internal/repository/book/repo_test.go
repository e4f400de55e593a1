package book

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/bookrag/internal/db"
	dombook "github.com/kailas-cloud/bookrag/internal/domain/book"
	"github.com/kailas-cloud/bookrag/internal/domain/search/page"
	"github.com/kailas-cloud/bookrag/internal/usecase/search"
)

func duneFields() map[string]string {
	return map[string]string{
		"isbn":           "9780441013593",
		"title":          "Dune",
		"author":         "Frank Herbert",
		"published_date": "1965",
		"rating":         "4.3",
		"review_count":   "1200",
	}
}

func TestEnsureIndex_CreatesWhenMissing(t *testing.T) {
	var created *db.IndexDefinition
	ms := &mockStore{
		createIndexFn: func(_ context.Context, def *db.IndexDefinition) error {
			created = def
			return nil
		},
	}

	if err := New(ms, 4).EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected FT.CREATE")
	}
	if created.Name != "bookrag:book:idx" || created.Prefixes[0] != "bookrag:book:" {
		t.Errorf("unexpected index: %s %v", created.Name, created.Prefixes)
	}
	last := created.Fields[len(created.Fields)-1]
	if last.Type != db.IndexFieldVector || last.VectorDim != 4 || last.VectorDistance != db.DistanceCosine {
		t.Errorf("unexpected vector field: %+v", last)
	}
}

func TestEnsureIndex_SkipsExisting(t *testing.T) {
	ms := &mockStore{
		indexExistsFn: func(context.Context, string) (bool, error) { return true, nil },
		createIndexFn: func(context.Context, *db.IndexDefinition) error {
			t.Fatal("unexpected FT.CREATE")
			return nil
		},
	}
	if err := New(ms, 4).EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureIndex_RaceIsNotAnError(t *testing.T) {
	ms := &mockStore{
		createIndexFn: func(context.Context, *db.IndexDefinition) error { return db.ErrIndexExists },
	}
	if err := New(ms, 4).EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSave(t *testing.T) {
	var got []db.HashSetItem
	ms := &mockStore{
		hsetMultiFn: func(_ context.Context, items []db.HashSetItem) error {
			got = items
			return nil
		},
	}
	repo := New(ms, 2)

	err := repo.Save(context.Background(), []Indexed{
		{Book: dombook.Book{ID: "b1", Title: "Dune", Rating: 4.3, ReviewCount: 12}, Embedding: []float32{0.1, 0.2}},
		{Book: dombook.Book{ID: "b2", Title: "No Vector"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Key != "bookrag:book:b1" {
		t.Fatalf("unexpected items: %+v", got)
	}
	if len(got[0].Fields["embedding"]) != 8 {
		t.Errorf("expected 8-byte embedding, got %d", len(got[0].Fields["embedding"]))
	}
	if got[0].Fields["rating"] != "4.3" || got[0].Fields["review_count"] != "12" {
		t.Errorf("unexpected numerics: %v", got[0].Fields)
	}
	if _, ok := got[1].Fields["embedding"]; ok {
		t.Error("expected no embedding field for book without vector")
	}
}

func TestSave_Validation(t *testing.T) {
	repo := New(&mockStore{}, 2)

	if err := repo.Save(context.Background(), []Indexed{{Book: dombook.Book{}}}); err == nil {
		t.Error("expected error for empty id")
	}
	err := repo.Save(context.Background(), []Indexed{{Book: dombook.Book{ID: "b"}, Embedding: []float32{1}}})
	if err == nil {
		t.Error("expected error for dimension mismatch")
	}
}

func TestLexicalSearch(t *testing.T) {
	var got *db.TextQuery
	ms := &mockStore{
		searchTextFn: func(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
			got = q
			return &db.SearchResult{
				Total:   7,
				Entries: []db.SearchEntry{{Key: "bookrag:book:b1", Fields: duneFields()}},
			}, nil
		},
	}

	res, err := New(ms, 4).LexicalSearch(context.Background(), page.New(2, 10), search.LexicalFilter{
		Keyword: "dune", ISBN: "9780441013593",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Offset != 20 || got.Limit != 10 || got.Text != "dune" {
		t.Errorf("unexpected query: %+v", got)
	}
	if !slices.Equal(got.TextFields, []string{"title", "author", "publisher", "subtitle"}) {
		t.Errorf("unexpected text fields: %v", got.TextFields)
	}
	if got.Tags["isbn"] != "9780441013593" {
		t.Errorf("expected isbn tag, got %v", got.Tags)
	}
	if res.Total != 7 || len(res.Items) != 1 {
		t.Fatalf("unexpected page: %+v", res)
	}
	b := res.Items[0].Book()
	if b.ID != "b1" || b.Title != "Dune" || b.Rating != 4.3 || b.ReviewCount != 1200 {
		t.Errorf("unexpected book: %+v", b)
	}
	if _, ok := res.Items[0].Similarity(); ok {
		t.Error("lexical items carry no similarity")
	}
}

func TestLexicalSearch_FullText(t *testing.T) {
	var got *db.TextQuery
	ms := &mockStore{
		searchTextFn: func(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
			got = q
			return &db.SearchResult{}, nil
		},
	}

	_, err := New(ms, 4).LexicalSearch(context.Background(), page.New(0, 10), search.LexicalFilter{
		Keyword: "desert planet", FullText: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Contains(got.TextFields, "description") {
		t.Errorf("expected description in full-text fields, got %v", got.TextFields)
	}
	if got.Tags != nil {
		t.Errorf("expected no tags, got %v", got.Tags)
	}
	if slices.Contains(keywordFields, "description") {
		t.Error("full-text mode must not mutate the shared keyword field list")
	}
}

func TestVectorSearch(t *testing.T) {
	var got *db.KNNQuery
	ms := &mockStore{
		searchKNNFn: func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
			got = q
			return &db.SearchResult{
				Total:   1,
				Entries: []db.SearchEntry{{Key: "bookrag:book:b1", Score: 0.93, Fields: duneFields()}},
			}, nil
		},
	}

	res, err := New(ms, 4).VectorSearch(context.Background(), page.New(1, 5), []float32{0.1, 0.2, 0.3, 0.4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.K != 10 || got.Offset != 5 || got.Limit != 5 || got.VectorField != "embedding" {
		t.Errorf("unexpected query: %+v", got)
	}
	sim, ok := res.Items[0].Similarity()
	if !ok || sim != 0.93 {
		t.Errorf("expected similarity 0.93, got %v (%v)", sim, ok)
	}
}

func TestVectorSearch_Error(t *testing.T) {
	ms := &mockStore{
		searchKNNFn: func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
			return nil, &db.Error{Op: db.OpSearch, Err: context.DeadlineExceeded}
		},
	}
	_, err := New(ms, 4).VectorSearch(context.Background(), page.New(0, 5), []float32{1, 0, 0, 0})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped deadline error, got %v", err)
	}
}

func TestList(t *testing.T) {
	var got *db.TextQuery
	ms := &mockStore{
		searchTextFn: func(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
			got = q
			return &db.SearchResult{}, nil
		},
	}

	res, err := New(ms, 4).List(context.Background(), page.New(0, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Text != "" || got.Tags != nil || got.Limit != 20 {
		t.Errorf("expected unfiltered query, got %+v", got)
	}
	if res.Total != 0 || res.Items != nil {
		t.Errorf("expected empty page, got %+v", res)
	}
}

func TestCountAll(t *testing.T) {
	ms := &mockStore{
		searchCountFn: func(_ context.Context, index, query string) (int, error) {
			if index != "bookrag:book:idx" || query != "*" {
				t.Errorf("unexpected count args: %s %s", index, query)
			}
			return 42, nil
		},
	}
	n, err := New(ms, 4).CountAll(context.Background())
	if err != nil || n != 42 {
		t.Fatalf("expected 42, got %d (%v)", n, err)
	}
}
