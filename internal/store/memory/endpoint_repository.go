// Package memory provides in-memory implementations of the store interfaces.
// These are used for tests and for running the service without external
// dependencies.
package memory

import (
	"context"
	"sync"

	"reliefwatch/internal/domain"
)

// EndpointRepository is an in-memory implementation of store.EndpointRepository.
// Endpoints are indexed by both ID and public path for fast receipt lookups.
type EndpointRepository struct {
	mu        sync.RWMutex
	endpoints map[string]*domain.IngestionEndpoint
	byPath    map[string]*domain.IngestionEndpoint
}

// NewEndpointRepository creates a new in-memory endpoint repository.
func NewEndpointRepository() *EndpointRepository {
	return &EndpointRepository{
		endpoints: make(map[string]*domain.IngestionEndpoint),
		byPath:    make(map[string]*domain.IngestionEndpoint),
	}
}

// Create stores a new endpoint.
func (r *EndpointRepository) Create(ctx context.Context, ep *domain.IngestionEndpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *ep
	r.endpoints[ep.ID] = &cp
	r.byPath[ep.Path] = &cp
	return nil
}

// Update modifies an existing endpoint.
func (r *EndpointRepository) Update(ctx context.Context, ep *domain.IngestionEndpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.endpoints[ep.ID]
	if !ok {
		return domain.ErrEndpointNotFound
	}

	// Counters are owned by the increment methods; keep the stored values.
	cp := *ep
	cp.TotalReceived = existing.TotalReceived
	cp.TotalFailed = existing.TotalFailed

	if existing.Path != ep.Path {
		delete(r.byPath, existing.Path)
	}
	r.endpoints[ep.ID] = &cp
	r.byPath[cp.Path] = &cp
	return nil
}

// Delete removes an endpoint by ID.
func (r *EndpointRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.endpoints[id]
	if !ok {
		return domain.ErrEndpointNotFound
	}
	delete(r.byPath, ep.Path)
	delete(r.endpoints, id)
	return nil
}

// GetByID retrieves an endpoint by its ID.
func (r *EndpointRepository) GetByID(ctx context.Context, id string) (*domain.IngestionEndpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ep, ok := r.endpoints[id]
	if !ok {
		return nil, domain.ErrEndpointNotFound
	}
	cp := *ep
	return &cp, nil
}

// GetByPath retrieves an endpoint by its public receipt path.
func (r *EndpointRepository) GetByPath(ctx context.Context, path string) (*domain.IngestionEndpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ep, ok := r.byPath[path]
	if !ok {
		return nil, domain.ErrEndpointNotFound
	}
	cp := *ep
	return &cp, nil
}

// List retrieves all endpoints.
func (r *EndpointRepository) List(ctx context.Context) ([]*domain.IngestionEndpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]*domain.IngestionEndpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		cp := *ep
		results = append(results, &cp)
	}
	return results, nil
}

// IncrementReceived atomically increments the total-received counter.
func (r *EndpointRepository) IncrementReceived(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.endpoints[id]
	if !ok {
		return domain.ErrEndpointNotFound
	}
	ep.TotalReceived++
	return nil
}

// IncrementFailed atomically increments the total-failed counter.
func (r *EndpointRepository) IncrementFailed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.endpoints[id]
	if !ok {
		return domain.ErrEndpointNotFound
	}
	ep.TotalFailed++
	return nil
}

// Clear removes all data from the repository. Useful for test cleanup.
func (r *EndpointRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.endpoints = make(map[string]*domain.IngestionEndpoint)
	r.byPath = make(map[string]*domain.IngestionEndpoint)
}
