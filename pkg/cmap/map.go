package cmap

import (
	"fmt"
	"hash/maphash"
	"sync"
)

// DefaultShardCount is used by New.
const DefaultShardCount = 16

// Map is a concurrent map split into shards.
type Map[K comparable, V any] struct {
	shards []*shard[K, V]
	mask   uint64
	seed   maphash.Seed
}

type shard[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// New creates a map with DefaultShardCount shards.
func New[K comparable, V any]() *Map[K, V] {
	return NewWithShards[K, V](DefaultShardCount)
}

// NewWithShards creates a map with n shards. n is rounded to
// DefaultShardCount unless it is a power of two.
func NewWithShards[K comparable, V any](n int) *Map[K, V] {
	if n <= 0 || n&(n-1) != 0 {
		n = DefaultShardCount
	}
	m := &Map[K, V]{
		shards: make([]*shard[K, V], n),
		mask:   uint64(n - 1),
		seed:   maphash.MakeSeed(),
	}
	for i := range m.shards {
		m.shards[i] = &shard[K, V]{items: make(map[K]V)}
	}
	return m
}

func (m *Map[K, V]) shardFor(key K) *shard[K, V] {
	var h uint64
	switch k := any(key).(type) {
	case string:
		h = maphash.String(m.seed, k)
	default:
		h = maphash.String(m.seed, fmt.Sprint(k))
	}
	return m.shards[h&m.mask]
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

// Set stores value under key.
func (m *Map[K, V]) Set(key K, value V) {
	s := m.shardFor(key)
	s.mu.Lock()
	s.items[key] = value
	s.mu.Unlock()
}

// GetOrCompute returns the value under key, storing the result of create
// first if the key is absent. create runs at most once per missing key
// and under the shard lock, so it must not touch the map.
func (m *Map[K, V]) GetOrCompute(key K, create func() V) V {
	s := m.shardFor(key)
	s.mu.RLock()
	v, ok := s.items[key]
	s.mu.RUnlock()
	if ok {
		return v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.items[key]; ok {
		return v
	}
	v = create()
	s.items[key] = v
	return v
}

// Delete removes key.
func (m *Map[K, V]) Delete(key K) {
	s := m.shardFor(key)
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

// DeleteFunc removes every entry for which del returns true and reports
// how many were removed. Shards are locked one at a time.
func (m *Map[K, V]) DeleteFunc(del func(key K, value V) bool) int {
	n := 0
	for _, s := range m.shards {
		s.mu.Lock()
		for k, v := range s.items {
			if del(k, v) {
				delete(s.items, k)
				n++
			}
		}
		s.mu.Unlock()
	}
	return n
}

// Range calls fn for each entry until fn returns false. The view is not a
// snapshot: shards are read-locked one at a time.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// Count returns the number of entries.
func (m *Map[K, V]) Count() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}
