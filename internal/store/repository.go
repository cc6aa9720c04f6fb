// Package store defines interfaces for data persistence and state management.
// These abstractions allow swapping implementations (PostgreSQL, Redis,
// in-memory) without changing business logic.
package store

import (
	"context"
	"time"

	"reliefwatch/internal/domain"
)

// EndpointRepository defines the interface for ingestion endpoint persistence.
type EndpointRepository interface {
	// Create stores a new endpoint.
	Create(ctx context.Context, ep *domain.IngestionEndpoint) error

	// Update modifies an existing endpoint.
	Update(ctx context.Context, ep *domain.IngestionEndpoint) error

	// Delete removes an endpoint by ID.
	Delete(ctx context.Context, id string) error

	// GetByID retrieves an endpoint by its ID.
	GetByID(ctx context.Context, id string) (*domain.IngestionEndpoint, error)

	// GetByPath retrieves an endpoint by its public receipt path.
	GetByPath(ctx context.Context, path string) (*domain.IngestionEndpoint, error)

	// List retrieves all endpoints.
	List(ctx context.Context) ([]*domain.IngestionEndpoint, error)

	// IncrementReceived atomically increments the total-received counter.
	IncrementReceived(ctx context.Context, id string) error

	// IncrementFailed atomically increments the total-failed counter.
	IncrementFailed(ctx context.Context, id string) error
}

// WebhookEventRepository defines the interface for webhook event persistence.
type WebhookEventRepository interface {
	// Create stores a new webhook event.
	Create(ctx context.Context, we *domain.WebhookEvent) error

	// Update modifies an existing webhook event.
	Update(ctx context.Context, we *domain.WebhookEvent) error

	// GetByID retrieves a webhook event by its ID.
	GetByID(ctx context.Context, id string) (*domain.WebhookEvent, error)

	// ListPending retrieves webhook events still awaiting processing,
	// oldest first, up to limit.
	ListPending(ctx context.Context, limit int) ([]*domain.WebhookEvent, error)
}

// EventRepository defines the interface for event persistence.
type EventRepository interface {
	// Create stores a new event.
	Create(ctx context.Context, ev *domain.Event) error

	// Update modifies an existing event. Only the crisis link and the
	// analyzed flag change after creation.
	Update(ctx context.Context, ev *domain.Event) error

	// GetByID retrieves an event by its ID.
	GetByID(ctx context.Context, id string) (*domain.Event, error)

	// List retrieves events matching the filter criteria.
	List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error)

	// ListUnanalyzed retrieves events not yet processed by the correlation
	// engine, oldest first, up to limit.
	ListUnanalyzed(ctx context.Context, limit int) ([]*domain.Event, error)
}

// CrisisRepository defines the interface for crisis persistence.
type CrisisRepository interface {
	// Create stores a new crisis.
	Create(ctx context.Context, c *domain.Crisis) error

	// Update modifies an existing crisis.
	Update(ctx context.Context, c *domain.Crisis) error

	// GetByID retrieves a crisis by its ID.
	GetByID(ctx context.Context, id string) (*domain.Crisis, error)

	// List retrieves crises matching the filter criteria.
	List(ctx context.Context, filter domain.CrisisFilter) ([]*domain.Crisis, error)

	// ListOpenByType retrieves open crises (EMERGING, DEVELOPING, ONGOING)
	// of the given type, most recently detected first.
	ListOpenByType(ctx context.Context, t domain.CrisisType) ([]*domain.Crisis, error)

	// ListDetectedSince retrieves crises detected within the trailing
	// window with severity at or above the given floor.
	ListDetectedSince(ctx context.Context, since time.Time, minSeverity domain.Severity) ([]*domain.Crisis, error)
}

// SubscriptionRepository defines the interface for subscription persistence.
type SubscriptionRepository interface {
	// Create stores a new subscription.
	Create(ctx context.Context, sub *domain.AlertSubscription) error

	// Update modifies an existing subscription.
	Update(ctx context.Context, sub *domain.AlertSubscription) error

	// GetByID retrieves a subscription by its ID.
	GetByID(ctx context.Context, id string) (*domain.AlertSubscription, error)

	// GetByVerificationToken retrieves a subscription by its verification token.
	GetByVerificationToken(ctx context.Context, token string) (*domain.AlertSubscription, error)

	// GetByUnsubscribeToken retrieves a subscription by its unsubscribe token.
	GetByUnsubscribeToken(ctx context.Context, token string) (*domain.AlertSubscription, error)

	// ListByCadence retrieves verified, active subscriptions with the
	// given cadence.
	ListByCadence(ctx context.Context, cadence domain.Cadence) ([]*domain.AlertSubscription, error)
}

// NotificationRepository defines the interface for the delivery ledger.
type NotificationRepository interface {
	// Create stores a new ledger row.
	Create(ctx context.Context, n *domain.SentNotification) error

	// Update modifies an existing ledger row.
	Update(ctx context.Context, n *domain.SentNotification) error

	// GetBySubscriptionAndCrisis retrieves the ledger row for a
	// (subscription, crisis) pair. Returns nil, nil when no row exists.
	// The existence of a row, regardless of status, is the immediate-
	// cadence idempotency check.
	GetBySubscriptionAndCrisis(ctx context.Context, subscriptionID, crisisID string) (*domain.SentNotification, error)

	// ListBySubscription retrieves ledger rows for a subscription,
	// newest first, up to limit.
	ListBySubscription(ctx context.Context, subscriptionID string, limit int) ([]*domain.SentNotification, error)
}
