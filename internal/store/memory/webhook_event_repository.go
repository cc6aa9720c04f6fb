package memory

import (
	"context"
	"sort"
	"sync"

	"reliefwatch/internal/domain"
)

// WebhookEventRepository is an in-memory implementation of
// store.WebhookEventRepository.
type WebhookEventRepository struct {
	mu     sync.RWMutex
	events map[string]*domain.WebhookEvent
}

// NewWebhookEventRepository creates a new in-memory webhook event repository.
func NewWebhookEventRepository() *WebhookEventRepository {
	return &WebhookEventRepository{
		events: make(map[string]*domain.WebhookEvent),
	}
}

// Create stores a new webhook event.
func (r *WebhookEventRepository) Create(ctx context.Context, we *domain.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *we
	r.events[we.ID] = &cp
	return nil
}

// Update modifies an existing webhook event.
func (r *WebhookEventRepository) Update(ctx context.Context, we *domain.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[we.ID]; !ok {
		return domain.ErrWebhookEventNotFound
	}
	cp := *we
	r.events[we.ID] = &cp
	return nil
}

// GetByID retrieves a webhook event by its ID.
func (r *WebhookEventRepository) GetByID(ctx context.Context, id string) (*domain.WebhookEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	we, ok := r.events[id]
	if !ok {
		return nil, domain.ErrWebhookEventNotFound
	}
	cp := *we
	return &cp, nil
}

// ListPending retrieves pending webhook events, oldest first, up to limit.
func (r *WebhookEventRepository) ListPending(ctx context.Context, limit int) ([]*domain.WebhookEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*domain.WebhookEvent
	for _, we := range r.events {
		if we.Status != domain.WebhookStatusPending {
			continue
		}
		cp := *we
		results = append(results, &cp)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Clear removes all data from the repository. Useful for test cleanup.
func (r *WebhookEventRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = make(map[string]*domain.WebhookEvent)
}
