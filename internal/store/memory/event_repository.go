package memory

import (
	"context"
	"sort"
	"sync"

	"reliefwatch/internal/domain"
)

// EventRepository is an in-memory implementation of store.EventRepository.
type EventRepository struct {
	mu     sync.RWMutex
	events map[string]*domain.Event
}

// NewEventRepository creates a new in-memory event repository.
func NewEventRepository() *EventRepository {
	return &EventRepository{
		events: make(map[string]*domain.Event),
	}
}

// Create stores a new event.
func (r *EventRepository) Create(ctx context.Context, ev *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *ev
	r.events[ev.ID] = &cp
	return nil
}

// Update modifies an existing event.
func (r *EventRepository) Update(ctx context.Context, ev *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[ev.ID]; !ok {
		return domain.ErrEventNotFound
	}
	cp := *ev
	r.events[ev.ID] = &cp
	return nil
}

// GetByID retrieves an event by its ID.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, ok := r.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	cp := *ev
	return &cp, nil
}

// List retrieves events matching the filter criteria.
func (r *EventRepository) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*domain.Event
	for _, ev := range r.events {
		if filter.CrisisID != "" && ev.CrisisID != filter.CrisisID {
			continue
		}
		if filter.SourceKind != "" && ev.SourceKind != filter.SourceKind {
			continue
		}
		if filter.Analyzed != nil && ev.Analyzed != *filter.Analyzed {
			continue
		}
		cp := *ev
		results = append(results, &cp)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].FetchedAt.Before(results[j].FetchedAt)
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

// ListUnanalyzed retrieves unanalyzed events, oldest first, up to limit.
func (r *EventRepository) ListUnanalyzed(ctx context.Context, limit int) ([]*domain.Event, error) {
	analyzed := false
	return r.List(ctx, domain.EventFilter{Analyzed: &analyzed, Limit: limit})
}

// Clear removes all data from the repository. Useful for test cleanup.
func (r *EventRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = make(map[string]*domain.Event)
}
