package store

import (
	"context"
	"time"

	"reliefwatch/internal/domain"
)

// StateStore is a TTL-bound cache of open-crisis candidates, keyed by crisis
// type. The correlation engine consults it before hitting the crisis
// repository; the repository remains the source of truth for writes.
// Entries are invalidated whenever a crisis of that type is created or
// escalated. All methods must be safe for concurrent use.
type StateStore interface {
	// GetOpenCrises retrieves the cached open-crisis candidates for a type.
	// Returns nil, nil when no cache entry exists (distinct from an empty,
	// cached candidate list).
	GetOpenCrises(ctx context.Context, t domain.CrisisType) ([]*domain.Crisis, error)

	// SetOpenCrises caches the candidate list for a type with the given TTL.
	SetOpenCrises(ctx context.Context, t domain.CrisisType, crises []*domain.Crisis, ttl time.Duration) error

	// Invalidate drops the cache entry for a type.
	Invalidate(ctx context.Context, t domain.CrisisType) error

	// Close releases any resources held by the store.
	Close() error
}
