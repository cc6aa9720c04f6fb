package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reliefwatch/internal/domain"
	"reliefwatch/internal/store"
)

// Registry manages the lifecycle of ingestion endpoints. The secret is
// returned exactly once, at creation or rotation; reads through the
// registry never expose it.
type Registry struct {
	endpoints store.EndpointRepository
	logger    *slog.Logger
}

// NewRegistry creates a new endpoint registry.
func NewRegistry(endpoints store.EndpointRepository, logger *slog.Logger) *Registry {
	return &Registry{
		endpoints: endpoints,
		logger:    logger,
	}
}

// CreateParams describes a new endpoint registration.
type CreateParams struct {
	Name       string              `json:"name"`
	SourceKind domain.SourceKind   `json:"source_kind"`
	Filter     domain.FilterPolicy `json:"filter"`
}

// Created is the one-time view of a newly registered endpoint,
// including the receipt path and secret the integrator must record.
type Created struct {
	Endpoint *domain.IngestionEndpoint `json:"endpoint"`
	Path     string                    `json:"path"`
	Secret   string                    `json:"secret"`
}

// Create registers a new ingestion endpoint with a fresh path and secret.
func (r *Registry) Create(ctx context.Context, params CreateParams) (*Created, error) {
	now := time.Now().UTC()
	endpoint := &domain.IngestionEndpoint{
		ID:         uuid.New().String(),
		Name:       params.Name,
		SourceKind: params.SourceKind,
		Path:       randomToken(16),
		Secret:     randomToken(32),
		Active:     true,
		Filter:     params.Filter,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := endpoint.Validate(); err != nil {
		return nil, err
	}

	if err := r.endpoints.Create(ctx, endpoint); err != nil {
		return nil, fmt.Errorf("failed to create endpoint: %w", err)
	}

	r.logger.Info("endpoint registered",
		"endpoint_id", endpoint.ID,
		"source_kind", endpoint.SourceKind,
	)

	return &Created{
		Endpoint: endpoint,
		Path:     endpoint.Path,
		Secret:   endpoint.Secret,
	}, nil
}

// UpdateParams describes a partial endpoint update. Nil fields are
// left unchanged.
type UpdateParams struct {
	Name   *string              `json:"name"`
	Active *bool                `json:"active"`
	Filter *domain.FilterPolicy `json:"filter"`
}

// Update applies a partial update to an endpoint.
func (r *Registry) Update(ctx context.Context, id string, params UpdateParams) (*domain.IngestionEndpoint, error) {
	endpoint, err := r.endpoints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		endpoint.Name = *params.Name
	}
	if params.Active != nil {
		endpoint.Active = *params.Active
	}
	if params.Filter != nil {
		endpoint.Filter = *params.Filter
	}
	endpoint.UpdatedAt = time.Now().UTC()

	if err := endpoint.Validate(); err != nil {
		return nil, err
	}
	if err := r.endpoints.Update(ctx, endpoint); err != nil {
		return nil, fmt.Errorf("failed to update endpoint: %w", err)
	}
	return endpoint, nil
}

// Delete removes an endpoint. Deliveries to its path are rejected from
// that point on.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.endpoints.Delete(ctx, id); err != nil {
		return err
	}
	r.logger.Info("endpoint deleted", "endpoint_id", id)
	return nil
}

// Get retrieves an endpoint by ID.
func (r *Registry) Get(ctx context.Context, id string) (*domain.IngestionEndpoint, error) {
	return r.endpoints.GetByID(ctx, id)
}

// List retrieves all registered endpoints.
func (r *Registry) List(ctx context.Context) ([]*domain.IngestionEndpoint, error) {
	return r.endpoints.List(ctx)
}

// RotateSecret replaces the endpoint's secret. The old secret stops
// validating immediately; there is no dual-secret grace window. The new
// secret is returned exactly once.
func (r *Registry) RotateSecret(ctx context.Context, id string) (string, error) {
	endpoint, err := r.endpoints.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	endpoint.Secret = randomToken(32)
	endpoint.UpdatedAt = time.Now().UTC()

	if err := r.endpoints.Update(ctx, endpoint); err != nil {
		return "", fmt.Errorf("failed to rotate secret: %w", err)
	}

	r.logger.Info("endpoint secret rotated", "endpoint_id", id)
	return endpoint.Secret, nil
}

// randomToken returns n random bytes hex-encoded.
func randomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(fmt.Sprintf("rand.Read: %v", err))
	}
	return hex.EncodeToString(buf)
}
