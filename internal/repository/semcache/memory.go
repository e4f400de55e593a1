package semcache

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/bookrag/internal/domain/cache"
)

// Memory is a process-local entry store. List returns a copy in insertion order,
// so lookups may delete while iterating.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]cache.Entry
	order   []string
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]cache.Entry)}
}

// List returns a snapshot of all entries.
func (m *Memory) List(_ context.Context) ([]cache.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]cache.Entry, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.entries[k])
	}
	return out, nil
}

// Put stores e, replacing the entry with the same keyword in place.
func (m *Memory) Put(_ context.Context, e cache.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[e.Keyword]; !ok {
		m.order = append(m.order, e.Keyword)
	}
	m.entries[e.Keyword] = e
	return nil
}

// Delete removes the entry for keyword if it was created at createdAt.
func (m *Memory) Delete(_ context.Context, keyword string, createdAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[keyword]
	if !ok || !e.CreatedAt.Equal(createdAt) {
		return false, nil
	}
	delete(m.entries, keyword)
	for i, k := range m.order {
		if k == keyword {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}
