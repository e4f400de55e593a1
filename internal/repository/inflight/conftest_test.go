package inflight

import (
	"context"
	"time"
)

// mockLockStore implements the consumer interface for tests.
type mockLockStore struct {
	setNXFn func(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	delFn   func(ctx context.Context, keys ...string) error
}

func (m *mockLockStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if m.setNXFn != nil {
		return m.setNXFn(ctx, key, value, ttl)
	}
	return true, nil
}

func (m *mockLockStore) Del(ctx context.Context, keys ...string) error {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return nil
}
