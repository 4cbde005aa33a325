package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store. Invalidate matches by substring.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	gen     int64
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Generation(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen, nil
}

func (m *MemoryStore) SetIfGeneration(_ context.Context, key string, value []byte, ttl time.Duration, gen int64) (bool, error) {
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return false, nil
	}
	m.entries[key] = e
	return true, nil
}

func (m *MemoryStore) Invalidate(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	for key := range m.entries {
		if strings.Contains(key, pattern) {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
