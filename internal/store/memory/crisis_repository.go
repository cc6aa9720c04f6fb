package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"reliefwatch/internal/domain"
)

// CrisisRepository is an in-memory implementation of store.CrisisRepository.
type CrisisRepository struct {
	mu     sync.RWMutex
	crises map[string]*domain.Crisis
}

// NewCrisisRepository creates a new in-memory crisis repository.
func NewCrisisRepository() *CrisisRepository {
	return &CrisisRepository{
		crises: make(map[string]*domain.Crisis),
	}
}

// Create stores a new crisis.
func (r *CrisisRepository) Create(ctx context.Context, c *domain.Crisis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *c
	r.crises[c.ID] = &cp
	return nil
}

// Update modifies an existing crisis.
func (r *CrisisRepository) Update(ctx context.Context, c *domain.Crisis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.crises[c.ID]; !ok {
		return domain.ErrCrisisNotFound
	}
	cp := *c
	r.crises[c.ID] = &cp
	return nil
}

// GetByID retrieves a crisis by its ID.
func (r *CrisisRepository) GetByID(ctx context.Context, id string) (*domain.Crisis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.crises[id]
	if !ok {
		return nil, domain.ErrCrisisNotFound
	}
	cp := *c
	return &cp, nil
}

// List retrieves crises matching the filter criteria.
func (r *CrisisRepository) List(ctx context.Context, filter domain.CrisisFilter) ([]*domain.Crisis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*domain.Crisis
	for _, c := range r.crises {
		if filter.Type != "" && c.Type != filter.Type {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Severity != "" && !c.Severity.AtLeast(filter.Severity) {
			continue
		}
		if !filter.Since.IsZero() && c.DetectedAt.Before(filter.Since) {
			continue
		}
		cp := *c
		results = append(results, &cp)
	}

	// Most recently detected first.
	sort.Slice(results, func(i, j int) bool {
		return results[i].DetectedAt.After(results[j].DetectedAt)
	})

	start := filter.Offset
	if start > len(results) {
		start = len(results)
	}
	end := len(results)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return results[start:end], nil
}

// ListOpenByType retrieves open crises of the given type, most recently
// detected first.
func (r *CrisisRepository) ListOpenByType(ctx context.Context, t domain.CrisisType) ([]*domain.Crisis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*domain.Crisis
	for _, c := range r.crises {
		if c.Type != t || !c.IsOpen() {
			continue
		}
		cp := *c
		results = append(results, &cp)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].DetectedAt.After(results[j].DetectedAt)
	})
	return results, nil
}

// ListDetectedSince retrieves crises detected within the trailing window
// with severity at or above the floor.
func (r *CrisisRepository) ListDetectedSince(ctx context.Context, since time.Time, minSeverity domain.Severity) ([]*domain.Crisis, error) {
	return r.List(ctx, domain.CrisisFilter{Since: since, Severity: minSeverity})
}

// Clear removes all data from the repository. Useful for test cleanup.
func (r *CrisisRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.crises = make(map[string]*domain.Crisis)
}
