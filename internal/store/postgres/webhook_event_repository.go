package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"reliefwatch/internal/domain"
)

// WebhookEventRepository implements store.WebhookEventRepository using PostgreSQL.
type WebhookEventRepository struct {
	db *DB
}

// NewWebhookEventRepository creates a new PostgreSQL-backed webhook event repository.
func NewWebhookEventRepository(db *DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

const webhookEventColumns = `id, endpoint_id, payload, headers, status,
	   event_id, error, created_at, processed_at`

// Create stores a new webhook event.
func (r *WebhookEventRepository) Create(ctx context.Context, we *domain.WebhookEvent) error {
	query := `
		INSERT INTO webhook_events (
			id, endpoint_id, payload, headers, status, event_id, error,
			created_at, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	headers, err := marshalHeaders(we.Headers)
	if err != nil {
		return err
	}

	_, err = r.db.pool.Exec(ctx, query,
		we.ID,
		we.EndpointID,
		we.Payload,
		headers,
		we.Status,
		nullableString(we.EventID),
		nullableString(we.Error),
		we.CreatedAt,
		we.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create webhook event: %w", err)
	}
	return nil
}

// Update modifies an existing webhook event.
func (r *WebhookEventRepository) Update(ctx context.Context, we *domain.WebhookEvent) error {
	query := `
		UPDATE webhook_events SET
			status = $2,
			event_id = $3,
			error = $4,
			processed_at = $5
		WHERE id = $1
	`

	result, err := r.db.pool.Exec(ctx, query,
		we.ID,
		we.Status,
		nullableString(we.EventID),
		nullableString(we.Error),
		we.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update webhook event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrWebhookEventNotFound
	}
	return nil
}

// GetByID retrieves a webhook event by its ID.
func (r *WebhookEventRepository) GetByID(ctx context.Context, id string) (*domain.WebhookEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM webhook_events WHERE id = $1`, webhookEventColumns)

	row := r.db.pool.QueryRow(ctx, query, id)
	we, err := scanWebhookEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWebhookEventNotFound
		}
		return nil, fmt.Errorf("failed to get webhook event: %w", err)
	}
	return we, nil
}

// ListPending retrieves pending webhook events, oldest first, up to limit.
func (r *WebhookEventRepository) ListPending(ctx context.Context, limit int) ([]*domain.WebhookEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM webhook_events
		WHERE status = $1
		ORDER BY created_at ASC
	`, webhookEventColumns)

	args := []interface{}{domain.WebhookStatusPending}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending webhook events: %w", err)
	}
	defer rows.Close()

	var events []*domain.WebhookEvent
	for rows.Next() {
		we, err := scanWebhookEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook event: %w", err)
		}
		events = append(events, we)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating webhook events: %w", err)
	}
	return events, nil
}

// scanWebhookEvent scans a single row into a WebhookEvent.
func scanWebhookEvent(row pgx.Row) (*domain.WebhookEvent, error) {
	var (
		we      domain.WebhookEvent
		headers []byte
		eventID *string
		errText *string
	)

	err := row.Scan(
		&we.ID,
		&we.EndpointID,
		&we.Payload,
		&headers,
		&we.Status,
		&eventID,
		&errText,
		&we.CreatedAt,
		&we.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(headers) > 0 {
		if err := json.Unmarshal(headers, &we.Headers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal headers: %w", err)
		}
	}
	if eventID != nil {
		we.EventID = *eventID
	}
	if errText != nil {
		we.Error = *errText
	}
	return &we, nil
}

// marshalHeaders serializes the headers snapshot for storage.
func marshalHeaders(h map[string]string) ([]byte, error) {
	if h == nil {
		return nil, nil
	}
	data, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal headers: %w", err)
	}
	return data, nil
}
