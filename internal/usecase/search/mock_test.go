package search

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/kailas-cloud/bookrag/internal/domain"
	"github.com/kailas-cloud/bookrag/internal/domain/book"
	"github.com/kailas-cloud/bookrag/internal/domain/cache"
	"github.com/kailas-cloud/bookrag/internal/domain/recommendation"
	"github.com/kailas-cloud/bookrag/internal/domain/search/page"
	"github.com/kailas-cloud/bookrag/internal/domain/search/query"
	"github.com/kailas-cloud/bookrag/internal/domain/search/result"
)

// --- Mock Retriever ---

type mockRetriever struct {
	mu sync.Mutex

	lexical []result.RankedItem
	vector  []result.RankedItem
	listed  []result.RankedItem

	lexErr error
	vecErr error

	lexFilters  []LexicalFilter
	lexPages    []page.Page
	vecPages    []page.Page
	listCalls   int
	vectorCalls int
}

func (m *mockRetriever) LexicalSearch(_ context.Context, p page.Page, f LexicalFilter) (result.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lexFilters = append(m.lexFilters, f)
	m.lexPages = append(m.lexPages, p)
	if m.lexErr != nil {
		return result.Page{}, m.lexErr
	}
	return window(m.lexical, p), nil
}

func (m *mockRetriever) VectorSearch(_ context.Context, p page.Page, _ []float32) (result.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectorCalls++
	m.vecPages = append(m.vecPages, p)
	if m.vecErr != nil {
		return result.Page{}, m.vecErr
	}
	return window(m.vector, p), nil
}

func (m *mockRetriever) List(_ context.Context, p page.Page) (result.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	return window(m.listed, p), nil
}

func (m *mockRetriever) CountAll(_ context.Context) (int, error) {
	return len(m.listed), nil
}

func window(items []result.RankedItem, p page.Page) result.Page {
	start, end := p.Window(len(items))
	return result.Page{Items: items[start:end], Total: len(items)}
}

// --- Mock Embedder ---

type mockEmbedder struct {
	mu     sync.Mutex
	vector []float32
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vector, PromptTokens: 3, TotalTokens: 3}, nil
}

// --- Mock SemanticCache ---

type mockCache struct {
	entry   cache.Entry
	hit     bool
	lookups int
	stored  []result.Outcome
	queries []query.Query
}

func (m *mockCache) Lookup(_ context.Context, q query.Query) (cache.Entry, bool) {
	m.lookups++
	m.queries = append(m.queries, q)
	return m.entry, m.hit
}

func (m *mockCache) Store(_ context.Context, _ query.Query, out result.Outcome) {
	m.stored = append(m.stored, out)
}

// --- Mock Recommender ---

type mockRecommender struct {
	recs       []recommendation.Recommendation
	calls      int
	candidates []recommendation.Candidate
}

func (m *mockRecommender) Recommend(
	_ context.Context, _ string, candidates []recommendation.Candidate,
) []recommendation.Recommendation {
	m.calls++
	m.candidates = candidates
	return m.recs
}

// --- Mock CandidateSelector ---

type mockSelector struct {
	out    []recommendation.Candidate
	warmup bool
	seen   int
}

func (m *mockSelector) Select(items []result.RankedItem, warmup bool) []recommendation.Candidate {
	m.warmup = warmup
	m.seen = len(items)
	return m.out
}

// --- Mock WarmupTrigger ---

type mockTrigger struct {
	keywords []string
}

func (m *mockTrigger) TriggerWarmup(keyword string) {
	m.keywords = append(m.keywords, keyword)
}

var errStorage = errors.New("storage unavailable")

func books(prefix string, n int) []result.RankedItem {
	items := make([]result.RankedItem, n)
	for i := range items {
		id := prefix + strconv.Itoa(i)
		items[i] = result.New(book.Book{ID: id, Title: "Book " + id})
	}
	return items
}

func similarBooks(prefix string, n int) []result.RankedItem {
	items := make([]result.RankedItem, n)
	for i := range items {
		id := prefix + strconv.Itoa(i)
		items[i] = result.NewWithSimilarity(book.Book{ID: id, Title: "Book " + id}, 0.9-float64(i)*0.01)
	}
	return items
}
