package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"reliefwatch/internal/domain"
	"reliefwatch/internal/gateway"
)

// EndpointHandler handles HTTP requests for ingestion endpoint management.
type EndpointHandler struct {
	registry *gateway.Registry
	logger   *slog.Logger
}

// NewEndpointHandler creates a new endpoint handler.
func NewEndpointHandler(registry *gateway.Registry, logger *slog.Logger) *EndpointHandler {
	return &EndpointHandler{
		registry: registry,
		logger:   logger,
	}
}

// Create handles POST /v1/endpoints
// Registers a new ingestion endpoint. The response includes the receipt
// path and signing secret exactly once.
func (h *EndpointHandler) Create(c *fiber.Ctx) error {
	var params gateway.CreateParams
	if err := c.BodyParser(&params); err != nil {
		h.logger.Debug("failed to parse request body", "error", err)
		return BadRequest(c, "invalid request body")
	}

	created, err := h.registry.Create(c.Context(), params)
	if err != nil {
		if isValidationError(err) {
			return ValidationError(c, err.Error())
		}
		h.logger.Error("failed to create endpoint", "error", err)
		return InternalError(c, "failed to create endpoint")
	}

	return Created(c, created)
}

// List handles GET /v1/endpoints
// Returns all registered endpoints. Secrets are never included.
func (h *EndpointHandler) List(c *fiber.Ctx) error {
	endpoints, err := h.registry.List(c.Context())
	if err != nil {
		h.logger.Error("failed to list endpoints", "error", err)
		return InternalError(c, "failed to list endpoints")
	}

	return Success(c, endpoints)
}

// GetByID handles GET /v1/endpoints/:id
// Returns a single endpoint by ID.
func (h *EndpointHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	endpoint, err := h.registry.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrEndpointNotFound) {
			return NotFound(c, "endpoint not found")
		}
		h.logger.Error("failed to get endpoint", "id", id, "error", err)
		return InternalError(c, "failed to get endpoint")
	}

	return Success(c, endpoint)
}

// Update handles PUT /v1/endpoints/:id
// Applies a partial update to an endpoint.
func (h *EndpointHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	var params gateway.UpdateParams
	if err := c.BodyParser(&params); err != nil {
		h.logger.Debug("failed to parse request body", "error", err)
		return BadRequest(c, "invalid request body")
	}

	endpoint, err := h.registry.Update(c.Context(), id, params)
	if err != nil {
		if errors.Is(err, domain.ErrEndpointNotFound) {
			return NotFound(c, "endpoint not found")
		}
		if isValidationError(err) {
			return ValidationError(c, err.Error())
		}
		h.logger.Error("failed to update endpoint", "id", id, "error", err)
		return InternalError(c, "failed to update endpoint")
	}

	return Success(c, endpoint)
}

// Delete handles DELETE /v1/endpoints/:id
// Removes an endpoint; deliveries to its path are rejected from then on.
func (h *EndpointHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	if err := h.registry.Delete(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrEndpointNotFound) {
			return NotFound(c, "endpoint not found")
		}
		h.logger.Error("failed to delete endpoint", "id", id, "error", err)
		return InternalError(c, "failed to delete endpoint")
	}

	return NoContent(c)
}

// RotateSecret handles POST /v1/endpoints/:id/rotate-secret
// Replaces the endpoint's signing secret. The old secret stops validating
// immediately; the new one is returned exactly once.
func (h *EndpointHandler) RotateSecret(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	secret, err := h.registry.RotateSecret(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrEndpointNotFound) {
			return NotFound(c, "endpoint not found")
		}
		h.logger.Error("failed to rotate secret", "id", id, "error", err)
		return InternalError(c, "failed to rotate secret")
	}

	return Success(c, map[string]string{"secret": secret})
}

func isValidationError(err error) bool {
	return errors.Is(err, domain.ErrEmptyEndpointName) ||
		errors.Is(err, domain.ErrInvalidSourceKind) ||
		errors.Is(err, domain.ErrInvalidSeverity)
}
