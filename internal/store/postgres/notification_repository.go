package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"reliefwatch/internal/domain"
)

// NotificationRepository implements store.NotificationRepository using PostgreSQL.
type NotificationRepository struct {
	db *DB
}

// NewNotificationRepository creates a new PostgreSQL-backed notification repository.
func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `id, subscription_id, crisis_id, subject,
	   content, status, sent_at, error, created_at`

// Create stores a new notification ledger entry. The partial unique index
// on (subscription_id, crisis_id) rejects duplicate immediate-alert rows.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.SentNotification) error {
	query := `
		INSERT INTO sent_notifications (
			id, subscription_id, crisis_id, subject, content, status,
			sent_at, error, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.pool.Exec(ctx, query,
		n.ID,
		n.SubscriptionID,
		nullableString(n.CrisisID),
		n.Subject,
		n.Content,
		n.Status,
		n.SentAt,
		nullableString(n.Error),
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// Update modifies an existing notification ledger entry.
func (r *NotificationRepository) Update(ctx context.Context, n *domain.SentNotification) error {
	query := `
		UPDATE sent_notifications SET
			status = $2,
			sent_at = $3,
			error = $4
		WHERE id = $1
	`

	result, err := r.db.pool.Exec(ctx, query,
		n.ID,
		n.Status,
		n.SentAt,
		nullableString(n.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

// GetBySubscriptionAndCrisis retrieves the ledger entry for a
// subscription/crisis pair. Returns nil, nil when no entry exists.
func (r *NotificationRepository) GetBySubscriptionAndCrisis(ctx context.Context, subscriptionID, crisisID string) (*domain.SentNotification, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM sent_notifications
		WHERE subscription_id = $1 AND crisis_id = $2
	`, notificationColumns)

	row := r.db.pool.QueryRow(ctx, query, subscriptionID, crisisID)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// ListBySubscription retrieves a subscription's notifications, newest
// first, up to limit.
func (r *NotificationRepository) ListBySubscription(ctx context.Context, subscriptionID string, limit int) ([]*domain.SentNotification, error) {
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT %s FROM sent_notifications
		WHERE subscription_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, notificationColumns)

	rows, err := r.db.pool.Query(ctx, query, subscriptionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*domain.SentNotification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return notifications, nil
}

// scanNotification scans a single row into a SentNotification.
func scanNotification(row pgx.Row) (*domain.SentNotification, error) {
	var (
		n        domain.SentNotification
		crisisID *string
		errText  *string
	)

	err := row.Scan(
		&n.ID,
		&n.SubscriptionID,
		&crisisID,
		&n.Subject,
		&n.Content,
		&n.Status,
		&n.SentAt,
		&errText,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if crisisID != nil {
		n.CrisisID = *crisisID
	}
	if errText != nil {
		n.Error = *errText
	}
	return &n, nil
}
