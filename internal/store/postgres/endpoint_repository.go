package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"reliefwatch/internal/domain"
)

// EndpointRepository implements store.EndpointRepository using PostgreSQL.
type EndpointRepository struct {
	db *DB
}

// NewEndpointRepository creates a new PostgreSQL-backed endpoint repository.
func NewEndpointRepository(db *DB) *EndpointRepository {
	return &EndpointRepository{db: db}
}

const endpointColumns = `id, name, source_kind, path, secret, active,
	   keywords, regions, min_severity, total_received, total_failed,
	   created_at, updated_at`

// Create stores a new endpoint.
func (r *EndpointRepository) Create(ctx context.Context, ep *domain.IngestionEndpoint) error {
	query := `
		INSERT INTO ingestion_endpoints (
			id, name, source_kind, path, secret, active, keywords, regions,
			min_severity, total_received, total_failed, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	keywords, regions, err := marshalPolicy(&ep.Filter)
	if err != nil {
		return err
	}

	_, err = r.db.pool.Exec(ctx, query,
		ep.ID,
		ep.Name,
		ep.SourceKind,
		ep.Path,
		ep.Secret,
		ep.Active,
		keywords,
		regions,
		nullableString(string(ep.Filter.MinSeverity)),
		ep.TotalReceived,
		ep.TotalFailed,
		ep.CreatedAt,
		ep.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create endpoint: %w", err)
	}
	return nil
}

// Update modifies an existing endpoint. Counters are owned by the
// increment methods and are not written here.
func (r *EndpointRepository) Update(ctx context.Context, ep *domain.IngestionEndpoint) error {
	query := `
		UPDATE ingestion_endpoints SET
			name = $2,
			source_kind = $3,
			path = $4,
			secret = $5,
			active = $6,
			keywords = $7,
			regions = $8,
			min_severity = $9,
			updated_at = $10
		WHERE id = $1
	`

	keywords, regions, err := marshalPolicy(&ep.Filter)
	if err != nil {
		return err
	}

	result, err := r.db.pool.Exec(ctx, query,
		ep.ID,
		ep.Name,
		ep.SourceKind,
		ep.Path,
		ep.Secret,
		ep.Active,
		keywords,
		regions,
		nullableString(string(ep.Filter.MinSeverity)),
		ep.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update endpoint: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrEndpointNotFound
	}
	return nil
}

// Delete removes an endpoint by ID.
func (r *EndpointRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `DELETE FROM ingestion_endpoints WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete endpoint: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrEndpointNotFound
	}
	return nil
}

// GetByID retrieves an endpoint by its ID.
func (r *EndpointRepository) GetByID(ctx context.Context, id string) (*domain.IngestionEndpoint, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByPath retrieves an endpoint by its public receipt path.
func (r *EndpointRepository) GetByPath(ctx context.Context, path string) (*domain.IngestionEndpoint, error) {
	return r.getOne(ctx, "path = $1", path)
}

func (r *EndpointRepository) getOne(ctx context.Context, condition string, args ...interface{}) (*domain.IngestionEndpoint, error) {
	query := fmt.Sprintf(`SELECT %s FROM ingestion_endpoints WHERE %s`, endpointColumns, condition)

	row := r.db.pool.QueryRow(ctx, query, args...)
	ep, err := scanEndpoint(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEndpointNotFound
		}
		return nil, fmt.Errorf("failed to get endpoint: %w", err)
	}
	return ep, nil
}

// List retrieves all endpoints.
func (r *EndpointRepository) List(ctx context.Context) ([]*domain.IngestionEndpoint, error) {
	query := fmt.Sprintf(`SELECT %s FROM ingestion_endpoints ORDER BY created_at DESC`, endpointColumns)

	rows, err := r.db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list endpoints: %w", err)
	}
	defer rows.Close()

	var endpoints []*domain.IngestionEndpoint
	for rows.Next() {
		ep, err := scanEndpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan endpoint: %w", err)
		}
		endpoints = append(endpoints, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating endpoints: %w", err)
	}
	return endpoints, nil
}

// IncrementReceived atomically increments the total-received counter.
func (r *EndpointRepository) IncrementReceived(ctx context.Context, id string) error {
	return r.increment(ctx, "total_received", id)
}

// IncrementFailed atomically increments the total-failed counter.
func (r *EndpointRepository) IncrementFailed(ctx context.Context, id string) error {
	return r.increment(ctx, "total_failed", id)
}

func (r *EndpointRepository) increment(ctx context.Context, column, id string) error {
	query := fmt.Sprintf(`UPDATE ingestion_endpoints SET %s = %s + 1 WHERE id = $1`, column, column)

	result, err := r.db.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", column, err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrEndpointNotFound
	}
	return nil
}

// scanEndpoint scans a single row into an IngestionEndpoint.
func scanEndpoint(row pgx.Row) (*domain.IngestionEndpoint, error) {
	var (
		ep          domain.IngestionEndpoint
		keywords    []byte
		regions     []byte
		minSeverity *string
	)

	err := row.Scan(
		&ep.ID,
		&ep.Name,
		&ep.SourceKind,
		&ep.Path,
		&ep.Secret,
		&ep.Active,
		&keywords,
		&regions,
		&minSeverity,
		&ep.TotalReceived,
		&ep.TotalFailed,
		&ep.CreatedAt,
		&ep.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(keywords, &ep.Filter.Keywords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keywords: %w", err)
	}
	if err := json.Unmarshal(regions, &ep.Filter.Regions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal regions: %w", err)
	}
	if minSeverity != nil {
		ep.Filter.MinSeverity = domain.Severity(*minSeverity)
	}
	return &ep, nil
}

// marshalPolicy serializes the filter policy's list fields for storage.
func marshalPolicy(p *domain.FilterPolicy) (keywords, regions []byte, err error) {
	keywords, err = json.Marshal(emptyIfNil(p.Keywords))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal keywords: %w", err)
	}
	regions, err = json.Marshal(emptyIfNil(p.Regions))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal regions: %w", err)
	}
	return keywords, regions, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// nullableString returns nil if the string is empty, otherwise a pointer to it.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
