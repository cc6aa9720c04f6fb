package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"reliefwatch/internal/domain"
	"reliefwatch/internal/gateway"
	"reliefwatch/internal/store"
)

// HookHandler handles webhook deliveries from external sources.
type HookHandler struct {
	gateway       *gateway.Gateway
	webhookEvents store.WebhookEventRepository
	logger        *slog.Logger
}

// NewHookHandler creates a new hook handler.
func NewHookHandler(gw *gateway.Gateway, webhookEvents store.WebhookEventRepository, logger *slog.Logger) *HookHandler {
	return &HookHandler{
		gateway:       gw,
		webhookEvents: webhookEvents,
		logger:        logger,
	}
}

// Receive handles POST /hooks/:path
// Accepts a raw webhook payload addressed to a registered endpoint.
// Returns 202 Accepted immediately - processing happens asynchronously.
func (h *HookHandler) Receive(c *fiber.Ctx) error {
	path := c.Params("path")
	if path == "" {
		return BadRequest(c, "path is required")
	}

	// Body() is valid only for the request lifetime; the gateway stores
	// the payload, so hand it a copy.
	rawBody := make([]byte, len(c.Body()))
	copy(rawBody, c.Body())

	headers := make(map[string]string)
	c.Request().Header.VisitAll(func(key, value []byte) {
		headers[string(key)] = string(value)
	})

	receipt, err := h.gateway.Receive(c.Context(), path, rawBody, headers)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEndpointNotFound):
			return NotFound(c, "unknown receipt path")
		case errors.Is(err, domain.ErrEndpointInactive):
			return Gone(c, "endpoint is inactive")
		case errors.Is(err, gateway.ErrInvalidSignature):
			return Unauthorized(c, "signature verification failed")
		default:
			h.logger.Error("webhook receipt failed", "path", path, "error", err)
			return InternalError(c, "failed to accept delivery")
		}
	}

	return Accepted(c, receipt)
}

// GetWebhookEvent handles GET /v1/webhook-events/:id
// Returns the processing outcome of one accepted delivery.
func (h *HookHandler) GetWebhookEvent(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	we, err := h.webhookEvents.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrWebhookEventNotFound) {
			return NotFound(c, "webhook event not found")
		}
		h.logger.Error("failed to get webhook event", "id", id, "error", err)
		return InternalError(c, "failed to get webhook event")
	}

	return Success(c, we)
}
