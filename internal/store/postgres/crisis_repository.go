package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"reliefwatch/internal/domain"
)

// CrisisRepository implements store.CrisisRepository using PostgreSQL.
type CrisisRepository struct {
	db *DB
}

// NewCrisisRepository creates a new PostgreSQL-backed crisis repository.
func NewCrisisRepository(db *DB) *CrisisRepository {
	return &CrisisRepository{db: db}
}

const crisisColumns = `id, title, description, type, severity, status,
	   confidence, location, region, country, latitude, longitude, tags,
	   detected_at, created_at, updated_at`

// Create stores a new crisis.
func (r *CrisisRepository) Create(ctx context.Context, c *domain.Crisis) error {
	query := `
		INSERT INTO crises (
			id, title, description, type, severity, status, confidence,
			location, region, country, latitude, longitude, tags,
			detected_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	tags, err := json.Marshal(emptyIfNil(c.Tags))
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	_, err = r.db.pool.Exec(ctx, query,
		c.ID,
		c.Title,
		c.Description,
		c.Type,
		c.Severity,
		c.Status,
		c.Confidence,
		nullableString(c.Location),
		nullableString(c.Region),
		nullableString(c.Country),
		c.Latitude,
		c.Longitude,
		tags,
		c.DetectedAt,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create crisis: %w", err)
	}
	return nil
}

// Update modifies an existing crisis.
func (r *CrisisRepository) Update(ctx context.Context, c *domain.Crisis) error {
	query := `
		UPDATE crises SET
			title = $2,
			description = $3,
			severity = $4,
			status = $5,
			confidence = $6,
			location = $7,
			region = $8,
			country = $9,
			tags = $10,
			updated_at = $11
		WHERE id = $1
	`

	tags, err := json.Marshal(emptyIfNil(c.Tags))
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	result, err := r.db.pool.Exec(ctx, query,
		c.ID,
		c.Title,
		c.Description,
		c.Severity,
		c.Status,
		c.Confidence,
		nullableString(c.Location),
		nullableString(c.Region),
		nullableString(c.Country),
		tags,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update crisis: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrCrisisNotFound
	}
	return nil
}

// GetByID retrieves a crisis by its ID.
func (r *CrisisRepository) GetByID(ctx context.Context, id string) (*domain.Crisis, error) {
	query := fmt.Sprintf(`SELECT %s FROM crises WHERE id = $1`, crisisColumns)

	row := r.db.pool.QueryRow(ctx, query, id)
	c, err := scanCrisis(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCrisisNotFound
		}
		return nil, fmt.Errorf("failed to get crisis: %w", err)
	}
	return c, nil
}

// List retrieves crises matching the filter criteria, most recently
// detected first.
func (r *CrisisRepository) List(ctx context.Context, filter domain.CrisisFilter) ([]*domain.Crisis, error) {
	query := fmt.Sprintf(`SELECT %s FROM crises WHERE 1=1`, crisisColumns)
	args := []interface{}{}
	argNum := 1

	if filter.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", argNum)
		args = append(args, filter.Type)
		argNum++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filter.Status)
		argNum++
	}
	if filter.Severity != "" {
		query += fmt.Sprintf(" AND severity = ANY($%d)", argNum)
		args = append(args, severitiesAtLeast(filter.Severity))
		argNum++
	}
	if !filter.Since.IsZero() {
		query += fmt.Sprintf(" AND detected_at >= $%d", argNum)
		args = append(args, filter.Since)
		argNum++
	}

	query += " ORDER BY detected_at DESC"

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
		return nil, fmt.Errorf("failed to list crises: %w", err)
	}
	defer rows.Close()

	return scanCrises(rows)
}

// ListOpenByType retrieves open crises of the given type, most recently
// detected first.
func (r *CrisisRepository) ListOpenByType(ctx context.Context, t domain.CrisisType) ([]*domain.Crisis, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM crises
		WHERE type = $1 AND status = ANY($2)
		ORDER BY detected_at DESC
	`, crisisColumns)

	open := make([]string, 0, len(domain.OpenCrisisStatuses))
	for _, s := range domain.OpenCrisisStatuses {
		open = append(open, string(s))
	}

	rows, err := r.db.pool.Query(ctx, query, t, open)
	if err != nil {
		return nil, fmt.Errorf("failed to list open crises: %w", err)
	}
	defer rows.Close()

	return scanCrises(rows)
}

// ListDetectedSince retrieves crises detected within the trailing window
// with severity at or above the floor.
func (r *CrisisRepository) ListDetectedSince(ctx context.Context, since time.Time, minSeverity domain.Severity) ([]*domain.Crisis, error) {
	return r.List(ctx, domain.CrisisFilter{Since: since, Severity: minSeverity})
}

// severitiesAtLeast returns all severity values at or above the floor,
// for use in an ANY() predicate (severity order is not lexical).
func severitiesAtLeast(floor domain.Severity) []string {
	all := []domain.Severity{
		domain.SeverityUnknown,
		domain.SeverityLow,
		domain.SeverityMedium,
		domain.SeverityHigh,
		domain.SeverityCritical,
	}
	var result []string
	for _, s := range all {
		if s.AtLeast(floor) {
			result = append(result, string(s))
		}
	}
	return result
}

// scanCrisis scans a single row into a Crisis.
func scanCrisis(row pgx.Row) (*domain.Crisis, error) {
	var (
		c        domain.Crisis
		location *string
		region   *string
		country  *string
		tags     []byte
	)

	err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.Type,
		&c.Severity,
		&c.Status,
		&c.Confidence,
		&location,
		&region,
		&country,
		&c.Latitude,
		&c.Longitude,
		&tags,
		&c.DetectedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if location != nil {
		c.Location = *location
	}
	if region != nil {
		c.Region = *region
	}
	if country != nil {
		c.Country = *country
	}
	if err := json.Unmarshal(tags, &c.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	return &c, nil
}

// scanCrises scans multiple rows into a slice of Crises.
func scanCrises(rows pgx.Rows) ([]*domain.Crisis, error) {
	var crises []*domain.Crisis
	for rows.Next() {
		c, err := scanCrisis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crisis: %w", err)
		}
		crises = append(crises, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating crises: %w", err)
	}
	return crises, nil
}
