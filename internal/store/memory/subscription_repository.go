package memory

import (
	"context"
	"sync"

	"reliefwatch/internal/domain"
)

// SubscriptionRepository is an in-memory implementation of
// store.SubscriptionRepository.
type SubscriptionRepository struct {
	mu   sync.RWMutex
	subs map[string]*domain.AlertSubscription
}

// NewSubscriptionRepository creates a new in-memory subscription repository.
func NewSubscriptionRepository() *SubscriptionRepository {
	return &SubscriptionRepository{
		subs: make(map[string]*domain.AlertSubscription),
	}
}

// Create stores a new subscription.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *domain.AlertSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *sub
	r.subs[sub.ID] = &cp
	return nil
}

// Update modifies an existing subscription.
func (r *SubscriptionRepository) Update(ctx context.Context, sub *domain.AlertSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[sub.ID]; !ok {
		return domain.ErrSubscriptionNotFound
	}
	cp := *sub
	r.subs[sub.ID] = &cp
	return nil
}

// GetByID retrieves a subscription by its ID.
func (r *SubscriptionRepository) GetByID(ctx context.Context, id string) (*domain.AlertSubscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.subs[id]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	cp := *sub
	return &cp, nil
}

// GetByVerificationToken retrieves a subscription by its verification token.
func (r *SubscriptionRepository) GetByVerificationToken(ctx context.Context, token string) (*domain.AlertSubscription, error) {
	return r.findByToken(func(s *domain.AlertSubscription) bool {
		return s.VerificationToken == token
	})
}

// GetByUnsubscribeToken retrieves a subscription by its unsubscribe token.
func (r *SubscriptionRepository) GetByUnsubscribeToken(ctx context.Context, token string) (*domain.AlertSubscription, error) {
	return r.findByToken(func(s *domain.AlertSubscription) bool {
		return s.UnsubscribeToken == token
	})
}

func (r *SubscriptionRepository) findByToken(match func(*domain.AlertSubscription) bool) (*domain.AlertSubscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, sub := range r.subs {
		if match(sub) {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, domain.ErrSubscriptionNotFound
}

// ListByCadence retrieves verified, active subscriptions with the cadence.
func (r *SubscriptionRepository) ListByCadence(ctx context.Context, cadence domain.Cadence) ([]*domain.AlertSubscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*domain.AlertSubscription
	for _, sub := range r.subs {
		if sub.Cadence != cadence || !sub.Eligible() {
			continue
		}
		cp := *sub
		results = append(results, &cp)
	}
	return results, nil
}

// Clear removes all data from the repository. Useful for test cleanup.
func (r *SubscriptionRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subs = make(map[string]*domain.AlertSubscription)
}
