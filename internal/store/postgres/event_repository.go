package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"reliefwatch/internal/domain"
)

// EventRepository implements store.EventRepository using PostgreSQL.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new PostgreSQL-backed event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, title, description, source_ref, source_kind,
	   location, latitude, longitude, relevance, sentiment, crisis_id,
	   analyzed, published_at, fetched_at`

// Create stores a new event.
func (r *EventRepository) Create(ctx context.Context, ev *domain.Event) error {
	query := `
		INSERT INTO events (
			id, title, description, source_ref, source_kind, location,
			latitude, longitude, relevance, sentiment, crisis_id, analyzed,
			published_at, fetched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.pool.Exec(ctx, query,
		ev.ID,
		ev.Title,
		ev.Description,
		nullableString(ev.SourceRef),
		ev.SourceKind,
		nullableString(ev.Location),
		ev.Latitude,
		ev.Longitude,
		ev.Relevance,
		ev.Sentiment,
		nullableString(ev.CrisisID),
		ev.Analyzed,
		ev.PublishedAt,
		ev.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// Update modifies an existing event.
func (r *EventRepository) Update(ctx context.Context, ev *domain.Event) error {
	query := `
		UPDATE events SET
			relevance = $2,
			sentiment = $3,
			crisis_id = $4,
			analyzed = $5
		WHERE id = $1
	`

	result, err := r.db.pool.Exec(ctx, query,
		ev.ID,
		ev.Relevance,
		ev.Sentiment,
		nullableString(ev.CrisisID),
		ev.Analyzed,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// GetByID retrieves an event by its ID.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)

	row := r.db.pool.QueryRow(ctx, query, id)
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return ev, nil
}

// List retrieves events matching the filter criteria.
func (r *EventRepository) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE 1=1`, eventColumns)
	args := []interface{}{}
	argNum := 1

	if filter.CrisisID != "" {
		query += fmt.Sprintf(" AND crisis_id = $%d", argNum)
		args = append(args, filter.CrisisID)
		argNum++
	}
	if filter.SourceKind != "" {
		query += fmt.Sprintf(" AND source_kind = $%d", argNum)
		args = append(args, filter.SourceKind)
		argNum++
	}
	if filter.Analyzed != nil {
		query += fmt.Sprintf(" AND analyzed = $%d", argNum)
		args = append(args, *filter.Analyzed)
		argNum++
	}

	query += " ORDER BY fetched_at ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
		argNum++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListUnanalyzed retrieves unanalyzed events, oldest first, up to limit.
func (r *EventRepository) ListUnanalyzed(ctx context.Context, limit int) ([]*domain.Event, error) {
	analyzed := false
	return r.List(ctx, domain.EventFilter{Analyzed: &analyzed, Limit: limit})
}

// scanEvent scans a single row into an Event.
func scanEvent(row pgx.Row) (*domain.Event, error) {
	var (
		ev        domain.Event
		sourceRef *string
		location  *string
		crisisID  *string
	)

	err := row.Scan(
		&ev.ID,
		&ev.Title,
		&ev.Description,
		&sourceRef,
		&ev.SourceKind,
		&location,
		&ev.Latitude,
		&ev.Longitude,
		&ev.Relevance,
		&ev.Sentiment,
		&crisisID,
		&ev.Analyzed,
		&ev.PublishedAt,
		&ev.FetchedAt,
	)
	if err != nil {
		return nil, err
	}

	if sourceRef != nil {
		ev.SourceRef = *sourceRef
	}
	if location != nil {
		ev.Location = *location
	}
	if crisisID != nil {
		ev.CrisisID = *crisisID
	}
	return &ev, nil
}

// scanEvents scans multiple rows into a slice of Events.
func scanEvents(rows pgx.Rows) ([]*domain.Event, error) {
	var events []*domain.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}
