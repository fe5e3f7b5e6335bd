package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is an in-process Cache whose entries expire after a TTL. It is
// safe for concurrent use.
type MemoryCache struct {
	mu        sync.Mutex
	data      map[string]memoryEntry
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryCache creates an empty MemoryCache. A non-positive ttl keeps
// entries until the process exits.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		data:      make(map[string]memoryEntry),
		ttl:       ttl,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.data[key]
	if !ok {
		return nil, false
	}
	if m.expired(entry, m.now()) {
		delete(m.data, key)
		return nil, false
	}
	return entry.value, true
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	entry := memoryEntry{value: stored}
	if m.ttl > 0 {
		entry.expires = now.Add(m.ttl)
		if now.Sub(m.lastSweep) >= m.ttl {
			m.sweep(now)
		}
	}
	m.data[key] = entry
	return nil
}

// Len returns the number of cached entries, including expired ones not yet
// swept.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func (m *MemoryCache) expired(entry memoryEntry, now time.Time) bool {
	return !entry.expires.IsZero() && !now.Before(entry.expires)
}

// sweep drops every expired entry. Callers hold mu.
func (m *MemoryCache) sweep(now time.Time) {
	for key, entry := range m.data {
		if m.expired(entry, now) {
			delete(m.data, key)
		}
	}
	m.lastSweep = now
}
