package memory

import (
	"context"
	"sync"
	"time"

	"reliefwatch/internal/domain"
)

// cacheEntry holds one cached candidate list with its expiry.
type cacheEntry struct {
	crises    []*domain.Crisis
	expiresAt time.Time
}

func (e *cacheEntry) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

// StateStore is an in-memory implementation of store.StateStore. Expired
// entries are dropped lazily on read.
type StateStore struct {
	mu      sync.RWMutex
	entries map[domain.CrisisType]*cacheEntry
}

// NewStateStore creates a new in-memory state store.
func NewStateStore() *StateStore {
	return &StateStore{
		entries: make(map[domain.CrisisType]*cacheEntry),
	}
}

// GetOpenCrises retrieves the cached candidates for a type.
// Returns nil, nil when no live cache entry exists.
func (s *StateStore) GetOpenCrises(ctx context.Context, t domain.CrisisType) ([]*domain.Crisis, error) {
	s.mu.RLock()
	entry, ok := s.entries[t]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if entry.expired() {
		s.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// refreshed the entry.
		if cur, ok := s.entries[t]; ok && cur.expired() {
			delete(s.entries, t)
		}
		s.mu.Unlock()
		return nil, nil
	}

	results := make([]*domain.Crisis, 0, len(entry.crises))
	for _, c := range entry.crises {
		cp := *c
		results = append(results, &cp)
	}
	return results, nil
}

// SetOpenCrises caches the candidate list for a type with the given TTL.
func (s *StateStore) SetOpenCrises(ctx context.Context, t domain.CrisisType, crises []*domain.Crisis, ttl time.Duration) error {
	cps := make([]*domain.Crisis, 0, len(crises))
	for _, c := range crises {
		cp := *c
		cps = append(cps, &cp)
	}

	entry := &cacheEntry{crises: cps}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[t] = entry
	s.mu.Unlock()
	return nil
}

// Invalidate drops the cache entry for a type.
func (s *StateStore) Invalidate(ctx context.Context, t domain.CrisisType) error {
	s.mu.Lock()
	delete(s.entries, t)
	s.mu.Unlock()
	return nil
}

// Close releases resources. No-op for the in-memory store.
func (s *StateStore) Close() error {
	return nil
}
