package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"reliefwatch/internal/domain"
)

// SubscriptionRepository implements store.SubscriptionRepository using PostgreSQL.
type SubscriptionRepository struct {
	db *DB
}

// NewSubscriptionRepository creates a new PostgreSQL-backed subscription repository.
func NewSubscriptionRepository(db *DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `id, email, name, regions, crisis_types,
	   min_severity, cadence, verified, active, unsubscribe_token,
	   verification_token, last_notified_at, created_at, updated_at`

// Create stores a new subscription.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *domain.AlertSubscription) error {
	query := `
		INSERT INTO alert_subscriptions (
			id, email, name, regions, crisis_types, min_severity, cadence,
			verified, active, unsubscribe_token, verification_token,
			last_notified_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	regions, crisisTypes, err := marshalSubscriptionLists(sub)
	if err != nil {
		return err
	}

	_, err = r.db.pool.Exec(ctx, query,
		sub.ID,
		sub.Email,
		nullableString(sub.Name),
		regions,
		crisisTypes,
		sub.MinSeverity,
		sub.Cadence,
		sub.Verified,
		sub.Active,
		sub.UnsubscribeToken,
		sub.VerificationToken,
		sub.LastNotifiedAt,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// Update modifies an existing subscription.
func (r *SubscriptionRepository) Update(ctx context.Context, sub *domain.AlertSubscription) error {
	query := `
		UPDATE alert_subscriptions SET
			email = $2,
			name = $3,
			regions = $4,
			crisis_types = $5,
			min_severity = $6,
			cadence = $7,
			verified = $8,
			active = $9,
			last_notified_at = $10,
			updated_at = $11
		WHERE id = $1
	`

	regions, crisisTypes, err := marshalSubscriptionLists(sub)
	if err != nil {
		return err
	}

	result, err := r.db.pool.Exec(ctx, query,
		sub.ID,
		sub.Email,
		nullableString(sub.Name),
		regions,
		crisisTypes,
		sub.MinSeverity,
		sub.Cadence,
		sub.Verified,
		sub.Active,
		sub.LastNotifiedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

// GetByID retrieves a subscription by its ID.
func (r *SubscriptionRepository) GetByID(ctx context.Context, id string) (*domain.AlertSubscription, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByVerificationToken retrieves a subscription by its verification token.
func (r *SubscriptionRepository) GetByVerificationToken(ctx context.Context, token string) (*domain.AlertSubscription, error) {
	return r.getOne(ctx, "verification_token = $1", token)
}

// GetByUnsubscribeToken retrieves a subscription by its unsubscribe token.
func (r *SubscriptionRepository) GetByUnsubscribeToken(ctx context.Context, token string) (*domain.AlertSubscription, error) {
	return r.getOne(ctx, "unsubscribe_token = $1", token)
}

func (r *SubscriptionRepository) getOne(ctx context.Context, condition string, args ...interface{}) (*domain.AlertSubscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM alert_subscriptions WHERE %s`, subscriptionColumns, condition)

	row := r.db.pool.QueryRow(ctx, query, args...)
	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

// ListByCadence retrieves verified, active subscriptions on the given cadence.
func (r *SubscriptionRepository) ListByCadence(ctx context.Context, cadence domain.Cadence) ([]*domain.AlertSubscription, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM alert_subscriptions
		WHERE cadence = $1 AND verified = TRUE AND active = TRUE
		ORDER BY created_at ASC
	`, subscriptionColumns)

	rows, err := r.db.pool.Query(ctx, query, cadence)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.AlertSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}
	return subs, nil
}

// scanSubscription scans a single row into an AlertSubscription.
func scanSubscription(row pgx.Row) (*domain.AlertSubscription, error) {
	var (
		sub         domain.AlertSubscription
		name        *string
		regions     []byte
		crisisTypes []byte
	)

	err := row.Scan(
		&sub.ID,
		&sub.Email,
		&name,
		&regions,
		&crisisTypes,
		&sub.MinSeverity,
		&sub.Cadence,
		&sub.Verified,
		&sub.Active,
		&sub.UnsubscribeToken,
		&sub.VerificationToken,
		&sub.LastNotifiedAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if name != nil {
		sub.Name = *name
	}
	if err := json.Unmarshal(regions, &sub.Regions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal regions: %w", err)
	}
	if err := json.Unmarshal(crisisTypes, &sub.CrisisTypes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal crisis types: %w", err)
	}
	return &sub, nil
}

// marshalSubscriptionLists serializes the subscription's list fields for storage.
func marshalSubscriptionLists(sub *domain.AlertSubscription) (regions, crisisTypes []byte, err error) {
	regions, err = json.Marshal(emptyIfNil(sub.Regions))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal regions: %w", err)
	}
	types := sub.CrisisTypes
	if types == nil {
		types = []domain.CrisisType{}
	}
	crisisTypes, err = json.Marshal(types)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal crisis types: %w", err)
	}
	return regions, crisisTypes, nil
}
