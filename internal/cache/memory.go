package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

const sweepThreshold = 1024

// MemoryStore keeps entries in a process-local map. The mutex only protects
// the map itself; it does not serialize fetches for the same key.
type MemoryStore[T any] struct {
	policy
	mu      sync.RWMutex
	entries map[string]Entry[T]
}

func NewMemoryStore[T any](ttl time.Duration, opts ...Option) *MemoryStore[T] {
	return &MemoryStore[T]{policy: newPolicy(ttl, opts), entries: make(map[string]Entry[T])}
}

func (m *MemoryStore[T]) Get(_ context.Context, key string) (Entry[T], bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok, nil
}

func (m *MemoryStore[T]) Set(_ context.Context, key string, value T) (Entry[T], error) {
	e := Entry[T]{Value: value, FetchedAtMillis: m.nowMillis()}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[strings.Clone(key)] = e
	if len(m.entries) > sweepThreshold {
		for k, v := range m.entries {
			if m.expired(v.FetchedAtMillis) {
				delete(m.entries, k)
			}
		}
	}
	return e, nil
}

func (m *MemoryStore[T]) IsExpired(e Entry[T]) bool { return m.expired(e.FetchedAtMillis) }

// Len returns the number of stored entries, expired ones included.
func (m *MemoryStore[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// NoopStore never stores anything; every Get is a miss.
type NoopStore[T any] struct{}

func (NoopStore[T]) Get(context.Context, string) (Entry[T], bool, error) {
	return Entry[T]{}, false, nil
}

func (NoopStore[T]) Set(_ context.Context, _ string, value T) (Entry[T], error) {
	return Entry[T]{Value: value}, nil
}

func (NoopStore[T]) IsExpired(Entry[T]) bool { return true }
