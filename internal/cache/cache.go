// Package cache provides a namespaced key-value cache with lazy
// expiry. The in-memory store backs tests and single-process runs;
// the Redis store persists entries across restarts.
package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL applies when Set is called with a non-positive ttl.
const DefaultTTL = 5 * time.Minute

// Store is the cache contract. Get treats expired entries as absent
// and removes them at that point; there is no background sweep.
// Invalidate with no keys purges the store's whole namespace.
type Store[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

type entry[T any] struct {
	value  T
	expiry time.Time
}

// Memory is the in-process Store.
type Memory[T any] struct {
	mu        sync.Mutex
	namespace string
	entries   map[string]entry[T]

	// now is overridable in tests; defaults to time.Now.
	now func() time.Time
}

func NewMemory[T any](namespace string) *Memory[T] {
	return &Memory[T]{
		namespace: namespace,
		entries:   make(map[string]entry[T]),
		now:       time.Now,
	}
}

func (m *Memory[T]) Get(_ context.Context, key string) (T, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	full := m.namespace + ":" + key
	e, ok := m.entries[full]
	if !ok {
		return zero, false, nil
	}
	if m.now().After(e.expiry) {
		delete(m.entries, full)
		return zero, false, nil
	}
	return e.value, true, nil
}

func (m *Memory[T]) Set(_ context.Context, key string, value T, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Entries are replaced wholesale, never patched.
	m.entries[m.namespace+":"+key] = entry[T]{value: value, expiry: m.now().Add(ttl)}
	return nil
}

func (m *Memory[T]) Invalidate(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(keys) == 0 {
		m.entries = make(map[string]entry[T])
		return nil
	}
	for _, key := range keys {
		delete(m.entries, m.namespace+":"+key)
	}
	return nil
}
