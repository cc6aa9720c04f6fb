package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"reliefwatch/internal/scheduler"
)

// JobHandler exposes the background job orchestrator over HTTP.
type JobHandler struct {
	orchestrator *scheduler.Orchestrator
	logger       *slog.Logger
}

// NewJobHandler creates a new job handler.
func NewJobHandler(orchestrator *scheduler.Orchestrator, logger *slog.Logger) *JobHandler {
	return &JobHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// List handles GET /v1/jobs
// Returns last-run info for every background job.
func (h *JobHandler) List(c *fiber.Ctx) error {
	return Success(c, h.orchestrator.Status())
}

// Run handles POST /v1/jobs/:name/run
// Runs the named job synchronously and returns its stats. Responds 409
// when the job is already running.
func (h *JobHandler) Run(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return BadRequest(c, "name is required")
	}

	stats, err := h.orchestrator.Trigger(c.Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrUnknownJob):
			return NotFound(c, "unknown job")
		case errors.Is(err, scheduler.ErrAlreadyRunning):
			return Conflict(c, "job is already running")
		default:
			h.logger.Error("job run failed", "job", name, "error", err)
			return InternalError(c, err.Error())
		}
	}

	return Success(c, stats)
}
