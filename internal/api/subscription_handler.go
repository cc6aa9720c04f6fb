package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"reliefwatch/internal/domain"
	"reliefwatch/internal/store"
)

// SubscriptionHandler handles the minimal subscription signup flow:
// create (unverified), verify by token, unsubscribe by token.
type SubscriptionHandler struct {
	subscriptions store.SubscriptionRepository
	logger        *slog.Logger
}

// NewSubscriptionHandler creates a new subscription handler.
func NewSubscriptionHandler(subscriptions store.SubscriptionRepository, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// CreateSubscriptionRequest is the signup payload.
type CreateSubscriptionRequest struct {
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	Regions     []string            `json:"regions"`
	CrisisTypes []domain.CrisisType `json:"crisis_types"`
	MinSeverity domain.Severity     `json:"min_severity"`
	Cadence     domain.Cadence      `json:"cadence"`
}

// Create handles POST /v1/subscriptions
// Registers an unverified subscription and returns it with its
// verification token.
func (h *SubscriptionHandler) Create(c *fiber.Ctx) error {
	var req CreateSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("failed to parse request body", "error", err)
		return BadRequest(c, "invalid request body")
	}

	now := time.Now().UTC()
	sub := &domain.AlertSubscription{
		ID:                uuid.New().String(),
		Email:             req.Email,
		Name:              req.Name,
		Regions:           req.Regions,
		CrisisTypes:       req.CrisisTypes,
		MinSeverity:       req.MinSeverity,
		Cadence:           req.Cadence,
		Verified:          false,
		Active:            true,
		VerificationToken: randomToken(24),
		UnsubscribeToken:  randomToken(24),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := sub.Validate(); err != nil {
		return ValidationError(c, err.Error())
	}

	if err := h.subscriptions.Create(c.Context(), sub); err != nil {
		h.logger.Error("failed to create subscription", "error", err)
		return InternalError(c, "failed to create subscription")
	}

	h.logger.Info("subscription created", "subscription_id", sub.ID, "cadence", sub.Cadence)

	// The verification token would normally travel by email only; it is
	// returned here because the signup flow has no outer surface yet.
	return Created(c, map[string]any{
		"subscription":       sub,
		"verification_token": sub.VerificationToken,
	})
}

// Verify handles GET /v1/subscriptions/verify/:token
// Marks the matching subscription verified.
func (h *SubscriptionHandler) Verify(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return BadRequest(c, "token is required")
	}

	sub, err := h.subscriptions.GetByVerificationToken(c.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrSubscriptionNotFound) {
			return NotFound(c, "unknown verification token")
		}
		h.logger.Error("verification lookup failed", "error", err)
		return InternalError(c, "failed to verify subscription")
	}

	if !sub.Verified {
		sub.Verified = true
		sub.UpdatedAt = time.Now().UTC()
		if err := h.subscriptions.Update(c.Context(), sub); err != nil {
			h.logger.Error("failed to mark subscription verified", "subscription_id", sub.ID, "error", err)
			return InternalError(c, "failed to verify subscription")
		}
		h.logger.Info("subscription verified", "subscription_id", sub.ID)
	}

	return Success(c, map[string]string{"status": "verified"})
}

// Unsubscribe handles GET /v1/subscriptions/unsubscribe/:token
// Deactivates the matching subscription.
func (h *SubscriptionHandler) Unsubscribe(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return BadRequest(c, "token is required")
	}

	sub, err := h.subscriptions.GetByUnsubscribeToken(c.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrSubscriptionNotFound) {
			return NotFound(c, "unknown unsubscribe token")
		}
		h.logger.Error("unsubscribe lookup failed", "error", err)
		return InternalError(c, "failed to unsubscribe")
	}

	if sub.Active {
		sub.Active = false
		sub.UpdatedAt = time.Now().UTC()
		if err := h.subscriptions.Update(c.Context(), sub); err != nil {
			h.logger.Error("failed to deactivate subscription", "subscription_id", sub.ID, "error", err)
			return InternalError(c, "failed to unsubscribe")
		}
		h.logger.Info("subscription deactivated", "subscription_id", sub.ID)
	}

	return Success(c, map[string]string{"status": "unsubscribed"})
}

func randomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
