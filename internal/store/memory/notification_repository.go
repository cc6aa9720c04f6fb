package memory

import (
	"context"
	"sort"
	"sync"

	"reliefwatch/internal/domain"
)

// NotificationRepository is an in-memory implementation of
// store.NotificationRepository. Rows are indexed by (subscription, crisis)
// pair so the immediate-cadence idempotency check is a single lookup.
type NotificationRepository struct {
	mu            sync.RWMutex
	notifications map[string]*domain.SentNotification
	byPair        map[string]*domain.SentNotification
}

// NewNotificationRepository creates a new in-memory notification repository.
func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{
		notifications: make(map[string]*domain.SentNotification),
		byPair:        make(map[string]*domain.SentNotification),
	}
}

func pairKey(subscriptionID, crisisID string) string {
	return subscriptionID + ":" + crisisID
}

// Create stores a new ledger row.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.SentNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *n
	r.notifications[n.ID] = &cp
	if n.CrisisID != "" {
		r.byPair[pairKey(n.SubscriptionID, n.CrisisID)] = &cp
	}
	return nil
}

// Update modifies an existing ledger row.
func (r *NotificationRepository) Update(ctx context.Context, n *domain.SentNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notifications[n.ID]; !ok {
		return domain.ErrNotificationNotFound
	}
	cp := *n
	r.notifications[n.ID] = &cp
	if n.CrisisID != "" {
		r.byPair[pairKey(n.SubscriptionID, n.CrisisID)] = &cp
	}
	return nil
}

// GetBySubscriptionAndCrisis retrieves the row for a (subscription, crisis)
// pair. Returns nil, nil when no row exists.
func (r *NotificationRepository) GetBySubscriptionAndCrisis(ctx context.Context, subscriptionID, crisisID string) (*domain.SentNotification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.byPair[pairKey(subscriptionID, crisisID)]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

// ListBySubscription retrieves rows for a subscription, newest first.
func (r *NotificationRepository) ListBySubscription(ctx context.Context, subscriptionID string, limit int) ([]*domain.SentNotification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*domain.SentNotification
	for _, n := range r.notifications {
		if n.SubscriptionID != subscriptionID {
			continue
		}
		cp := *n
		results = append(results, &cp)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Clear removes all data from the repository. Useful for test cleanup.
func (r *NotificationRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = make(map[string]*domain.SentNotification)
	r.byPair = make(map[string]*domain.SentNotification)
}
