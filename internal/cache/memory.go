package cache

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type entry struct {
	value    []byte
	storedAt time.Time
	ttl      time.Duration
}

func (e entry) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.storedAt) > e.ttl
}

// Memory is an in-process TTL cache. Expired entries are evicted lazily on
// read and, when Run is used, periodically by a janitor.
type Memory struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time

	hits   atomic.Uint64
	misses atomic.Uint64
}

// MemoryOption customises a Memory cache.
type MemoryOption func(*Memory)

// WithClock replaces time.Now, used by tests to move time forward.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates an empty in-process cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		items: make(map[string]entry),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	now := m.now()

	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()

	if !ok {
		m.miss()
		return nil, ErrMiss
	}
	if e.expired(now) {
		m.mu.Lock()
		// Only evict the entry we observed; a concurrent Set may have replaced it.
		if cur, still := m.items[key]; still && cur.storedAt.Equal(e.storedAt) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		m.miss()
		return nil, ErrMiss
	}

	m.hits.Add(1)
	cacheRequests.WithLabelValues("memory", "hit").Inc()
	return slices.Clone(e.value), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: slices.Clone(value), storedAt: m.now(), ttl: ttl}

	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	return m.deleteWhere(func(key string) bool { return strings.HasPrefix(key, prefix) }), nil
}

func (m *Memory) DeletePattern(_ context.Context, pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return m.deleteWhere(re.MatchString), nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.items = make(map[string]entry)
	m.mu.Unlock()
	return nil
}

// Has reports whether key holds a live entry without touching hit counters.
func (m *Memory) Has(key string) bool {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	return ok && !e.expired(m.now())
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Cleanup evicts every expired entry and returns how many were removed.
func (m *Memory) Cleanup() int {
	now := m.now()
	return m.deleteWhereEntry(func(_ string, e entry) bool { return e.expired(now) })
}

// Run evicts expired entries every interval until ctx is cancelled.
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Cleanup()
		}
	}
}

func (m *Memory) Stats(_ context.Context) []Stats {
	return []Stats{{
		Tier:    "memory",
		Entries: m.Len(),
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
	}}
}

func (m *Memory) miss() {
	m.misses.Add(1)
	cacheRequests.WithLabelValues("memory", "miss").Inc()
}

func (m *Memory) deleteWhere(match func(key string) bool) int {
	return m.deleteWhereEntry(func(key string, _ entry) bool { return match(key) })
}

func (m *Memory) deleteWhereEntry(match func(key string, e entry) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, e := range m.items {
		if match(key, e) {
			delete(m.items, key)
			removed++
		}
	}
	return removed
}
