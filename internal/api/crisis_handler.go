package api

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"reliefwatch/internal/domain"
	"reliefwatch/internal/store"
)

// CrisisHandler handles read access to crises and their events.
type CrisisHandler struct {
	crises store.CrisisRepository
	events store.EventRepository
	logger *slog.Logger
}

// NewCrisisHandler creates a new crisis handler.
func NewCrisisHandler(crises store.CrisisRepository, events store.EventRepository, logger *slog.Logger) *CrisisHandler {
	return &CrisisHandler{
		crises: crises,
		events: events,
		logger: logger,
	}
}

// List handles GET /v1/crises
// Supports type, status, min_severity, since (RFC3339), limit and offset
// query parameters. Results are ordered most recently detected first.
func (h *CrisisHandler) List(c *fiber.Ctx) error {
	filter := domain.CrisisFilter{
		Type:     domain.CrisisType(c.Query("type")),
		Status:   domain.CrisisStatus(c.Query("status")),
		Severity: domain.Severity(c.Query("min_severity")),
		Limit:    c.QueryInt("limit", 50),
		Offset:   c.QueryInt("offset", 0),
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return BadRequest(c, "since must be RFC3339")
		}
		filter.Since = t
	}

	crises, err := h.crises.List(c.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list crises", "error", err)
		return InternalError(c, "failed to list crises")
	}

	return Success(c, crises)
}

// GetByID handles GET /v1/crises/:id
// Returns a single crisis by ID.
func (h *CrisisHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	crisis, err := h.crises.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrCrisisNotFound) {
			return NotFound(c, "crisis not found")
		}
		h.logger.Error("failed to get crisis", "id", id, "error", err)
		return InternalError(c, "failed to get crisis")
	}

	return Success(c, crisis)
}

// GetEvents handles GET /v1/crises/:id/events
// Returns the events correlated to a crisis.
func (h *CrisisHandler) GetEvents(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	if _, err := h.crises.GetByID(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrCrisisNotFound) {
			return NotFound(c, "crisis not found")
		}
		h.logger.Error("failed to get crisis", "id", id, "error", err)
		return InternalError(c, "failed to get crisis")
	}

	events, err := h.events.List(c.Context(), domain.EventFilter{
		CrisisID: id,
		Limit:    c.QueryInt("limit", 100),
		Offset:   c.QueryInt("offset", 0),
	})
	if err != nil {
		h.logger.Error("failed to list crisis events", "crisis_id", id, "error", err)
		return InternalError(c, "failed to list crisis events")
	}

	return Success(c, events)
}

// ListEvents handles GET /v1/events
// Supports crisis_id, source_kind, analyzed, limit and offset query
// parameters.
func (h *CrisisHandler) ListEvents(c *fiber.Ctx) error {
	filter := domain.EventFilter{
		CrisisID:   c.Query("crisis_id"),
		SourceKind: domain.SourceKind(c.Query("source_kind")),
		Limit:      c.QueryInt("limit", 50),
		Offset:     c.QueryInt("offset", 0),
	}
	if analyzed := c.Query("analyzed"); analyzed != "" {
		v := analyzed == "true"
		filter.Analyzed = &v
	}

	events, err := h.events.List(c.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list events", "error", err)
		return InternalError(c, "failed to list events")
	}

	return Success(c, events)
}
