// Package inflight holds the warm-up dedup markers: one marker per keyword
// while its warm-up is scheduled or running.
package inflight

import (
	"context"
	"sync"
)

// Memory is a process-local in-flight set.
type Memory struct {
	keys sync.Map
}

// NewMemory creates an empty in-flight set.
func NewMemory() *Memory {
	return &Memory{}
}

// Acquire inserts key and reports whether it was absent.
func (m *Memory) Acquire(_ context.Context, key string) (bool, error) {
	_, loaded := m.keys.LoadOrStore(key, struct{}{})
	return !loaded, nil
}

// Release removes key.
func (m *Memory) Release(_ context.Context, key string) error {
	m.keys.Delete(key)
	return nil
}
