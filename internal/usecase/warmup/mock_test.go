package warmup

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/kailas-cloud/bookrag/internal/domain"
	"github.com/kailas-cloud/bookrag/internal/domain/book"
	"github.com/kailas-cloud/bookrag/internal/domain/cache"
	"github.com/kailas-cloud/bookrag/internal/domain/search/page"
	"github.com/kailas-cloud/bookrag/internal/domain/search/query"
	"github.com/kailas-cloud/bookrag/internal/domain/search/result"
	"github.com/kailas-cloud/bookrag/internal/usecase/search"
)

type mockInFlight struct {
	mu         sync.Mutex
	held       map[string]bool
	acquireErr error
	releases   []string
}

func newMockInFlight() *mockInFlight {
	return &mockInFlight{held: make(map[string]bool)}
}

func (m *mockInFlight) Acquire(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.acquireErr != nil {
		return false, m.acquireErr
	}
	if m.held[key] {
		return false, nil
	}
	m.held[key] = true
	return true, nil
}

func (m *mockInFlight) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	m.releases = append(m.releases, key)
	return nil
}

func (m *mockInFlight) heldCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.held)
}

func (m *mockInFlight) isHeld(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[key]
}

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
	return domain.EmbeddingResult{Embedding: m.vector, TotalTokens: 3}, nil
}

type mockCache struct {
	hit bool
}

func (m *mockCache) Lookup(_ context.Context, _ query.Query) (cache.Entry, bool) {
	return cache.Entry{}, m.hit
}

type mockRunner struct {
	mu      sync.Mutex
	queries []query.Query
	err     error
	panics  bool
	block   chan struct{}
}

func (m *mockRunner) Search(ctx context.Context, _ page.Page, q query.Query) (result.Outcome, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()
	if m.panics {
		panic("runner exploded")
	}
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return result.Outcome{}, ctx.Err()
		}
	}
	return result.Outcome{}, m.err
}

func (m *mockRunner) calls() []query.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]query.Query(nil), m.queries...)
}

// countingGenerator answers with a fixed recommendation and counts calls.
type countingGenerator struct {
	mu    sync.Mutex
	calls int
	gate  chan struct{}
}

func (g *countingGenerator) Generate(_ context.Context, _ string) (domain.GenerationResult, error) {
	if g.gate != nil {
		<-g.gate
	}
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	return domain.GenerationResult{Text: "```json\n[{\"id\":\"b0\",\"relevance\":90,\"rationale\":\"Fits.\"}]\n```"}, nil
}

func (g *countingGenerator) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// catalog is an in-memory search.Retriever.
type catalog struct {
	items []result.RankedItem
}

var _ search.Retriever = (*catalog)(nil)

func newCatalog(n int) *catalog {
	items := make([]result.RankedItem, n)
	for i := range items {
		id := "b" + strconv.Itoa(i)
		items[i] = result.New(book.Book{ID: id, Title: "Book " + id})
	}
	return &catalog{items: items}
}

func (c *catalog) window(p page.Page) result.Page {
	start, end := p.Window(len(c.items))
	return result.Page{Items: c.items[start:end], Total: len(c.items)}
}

func (c *catalog) LexicalSearch(_ context.Context, p page.Page, _ search.LexicalFilter) (result.Page, error) {
	return c.window(p), nil
}

func (c *catalog) VectorSearch(_ context.Context, p page.Page, _ []float32) (result.Page, error) {
	out := c.window(p)
	items := make([]result.RankedItem, len(out.Items))
	for i, it := range out.Items {
		items[i] = it.WithSimilarity(0.9)
	}
	out.Items = items
	return out, nil
}

func (c *catalog) List(_ context.Context, p page.Page) (result.Page, error) {
	return c.window(p), nil
}

func (c *catalog) CountAll(_ context.Context) (int, error) {
	return len(c.items), nil
}

var errBoom = errors.New("boom")
