package cache

import (
	"sync"
	"sync/atomic"
)

// Key identifies one cached record
type Key struct {
	Type string
	ID   string
}

// Manager is an unbounded, TTL-free record cache keyed by (type, id).
// It is safe for concurrent use.
type Manager[V any] struct {
	entries sync.Map // Key -> V

	// Statistics
	hits   atomic.Uint64
	misses atomic.Uint64

	// Called after each lookup, used for metrics
	onLookup func(elementType string, hit bool)
}

// NewManager creates a new cache manager
func NewManager[V any]() *Manager[V] {
	return &Manager[V]{}
}

// OnLookup registers a hook invoked after every Get
func (m *Manager[V]) OnLookup(fn func(elementType string, hit bool)) {
	m.onLookup = fn
}

// Get returns the cached value for (elementType, id)
func (m *Manager[V]) Get(elementType, id string) (V, bool) {
	cached, ok := m.entries.Load(Key{Type: elementType, ID: id})
	if !ok {
		m.misses.Add(1)
		m.notify(elementType, false)
		var zero V
		return zero, false
	}
	m.hits.Add(1)
	m.notify(elementType, true)
	return cached.(V), true
}

// Set adds or replaces the value for (elementType, id)
func (m *Manager[V]) Set(elementType, id string, value V) {
	m.entries.Store(Key{Type: elementType, ID: id}, value)
}

// Invalidate removes the value for (elementType, id)
func (m *Manager[V]) Invalidate(elementType, id string) {
	m.entries.Delete(Key{Type: elementType, ID: id})
}

// Clear removes all entries and resets statistics
func (m *Manager[V]) Clear() {
	m.entries.Range(func(key, _ any) bool {
		m.entries.Delete(key)
		return true
	})
	m.hits.Store(0)
	m.misses.Store(0)
}

// Len returns the number of cached entries
func (m *Manager[V]) Len() int {
	n := 0
	m.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Stats returns cache statistics
func (m *Manager[V]) Stats() CacheStats {
	hits := m.hits.Load()
	misses := m.misses.Load()

	total := hits + misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	byType := make(map[string]int)
	m.entries.Range(func(key, _ any) bool {
		byType[key.(Key).Type]++
		return true
	})

	entries := 0
	for _, n := range byType {
		entries += n
	}

	return CacheStats{
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate,
		Entries: entries,
		ByType:  byType,
	}
}

// CacheStats holds cache statistics
type CacheStats struct {
	Hits    uint64
	Misses  uint64
	HitRate float64
	Entries int
	ByType  map[string]int
}

func (m *Manager[V]) notify(elementType string, hit bool) {
	if m.onLookup != nil {
		m.onLookup(elementType, hit)
	}
}
