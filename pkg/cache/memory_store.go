package cache

import (
	"context"
	"sync"
	"time"
)

const defaultMaxEntries = 1000

// MemoryStore is an in-memory implementation of ResultStore with per-entry
// TTL and LRU eviction at capacity.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry

	maxEntries int
	enabled    bool

	hits   int64
	misses int64

	// done channel for the TTL sweep goroutine
	done chan struct{}
}

type memoryEntry struct {
	record       Record
	expiresAt    time.Time
	lastAccessAt time.Time
}

// NewMemoryStore creates a new in-memory result cache.
func NewMemoryStore(config MemoryConfig, enabled bool) *MemoryStore {
	maxEntries := config.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	store := &MemoryStore{
		entries:    make(map[string]*memoryEntry),
		maxEntries: maxEntries,
		enabled:    enabled,
		done:       make(chan struct{}),
	}

	go store.sweepExpired()

	return store
}

// IsEnabled returns whether the store is active.
func (m *MemoryStore) IsEnabled() bool {
	return m.enabled
}

// CheckConnection verifies the store is usable.
func (m *MemoryStore) CheckConnection(_ context.Context) error {
	if !m.enabled {
		return ErrStoreDisabled
	}
	return nil
}

// Close releases resources held by the store.
func (m *MemoryStore) Close() error {
	close(m.done)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

// Get retrieves a cached record. Expired entries count as misses.
func (m *MemoryStore) Get(_ context.Context, key string) (*Record, error) {
	if !m.enabled {
		return nil, ErrStoreDisabled
	}
	if key == "" {
		return nil, ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.entries[key]
	if !exists || time.Now().After(entry.expiresAt) {
		if exists {
			delete(m.entries, key)
		}
		m.misses++
		return nil, ErrNotFound
	}

	entry.lastAccessAt = time.Now()
	m.hits++

	// Return a copy
	record := entry.record
	return &record, nil
}

// Set stores a record, evicting the least recently used entry at capacity.
func (m *MemoryStore) Set(_ context.Context, key string, record *Record, ttl time.Duration) error {
	if !m.enabled {
		return ErrStoreDisabled
	}
	if key == "" || record == nil {
		return ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictLRU()
	}

	now := time.Now()
	m.entries[key] = &memoryEntry{
		record:       *record,
		expiresAt:    now.Add(ttl),
		lastAccessAt: now,
	}
	return nil
}

// evictLRU removes the least recently used entry. Caller holds the lock.
func (m *MemoryStore) evictLRU() {
	var victim string
	var oldest time.Time
	for key, entry := range m.entries {
		if victim == "" || entry.lastAccessAt.Before(oldest) {
			victim = key
			oldest = entry.lastAccessAt
		}
	}
	if victim != "" {
		delete(m.entries, victim)
	}
}

// Flush removes all cached records.
func (m *MemoryStore) Flush(_ context.Context) error {
	if !m.enabled {
		return ErrStoreDisabled
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*memoryEntry)
	return nil
}

// Stats reports cache statistics.
func (m *MemoryStore) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stats{
		Backend:   string(MemoryBackend),
		Connected: m.enabled,
		Entries:   int64(len(m.entries)),
		Hits:      m.hits,
		Misses:    m.misses,
	}, nil
}

// EntryCount returns the current number of entries (for testing).
func (m *MemoryStore) EntryCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// sweepExpired removes entries that have exceeded their TTL.
func (m *MemoryStore) sweepExpired() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			now := time.Now()
			for key, entry := range m.entries {
				if now.After(entry.expiresAt) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
