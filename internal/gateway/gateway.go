// Package gateway accepts webhook deliveries from registered external
// sources. Receipt is synchronous and only acknowledges intake; the
// processing outcome is recorded later on the WebhookEvent.
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"reliefwatch/internal/domain"
	"reliefwatch/internal/metrics"
	"reliefwatch/internal/queue"
	"reliefwatch/internal/store"
)

// ErrInvalidSignature is returned when a delivery carries a signature
// header that does not match the endpoint's secret. The payload is not
// stored.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// signatureHeaders lists the header names checked for a payload
// signature, in priority order.
var signatureHeaders = []string{
	"X-Signature-256",
	"X-Hub-Signature-256",
	"X-Signature",
}

// Receipt acknowledges intake of one webhook delivery.
type Receipt struct {
	WebhookEventID string `json:"webhook_event_id"`
	Accepted       bool   `json:"accepted"`
}

// Gateway receives webhook deliveries, verifies signatures and records
// accepted payloads for asynchronous processing.
type Gateway struct {
	endpoints     store.EndpointRepository
	webhookEvents store.WebhookEventRepository
	producer      queue.Producer
	logger        *slog.Logger
}

// NewGateway creates a new ingestion gateway.
func NewGateway(
	endpoints store.EndpointRepository,
	webhookEvents store.WebhookEventRepository,
	producer queue.Producer,
	logger *slog.Logger,
) *Gateway {
	return &Gateway{
		endpoints:     endpoints,
		webhookEvents: webhookEvents,
		producer:      producer,
		logger:        logger,
	}
}

// Receive accepts one delivery addressed to the endpoint behind path.
// The returned receipt acknowledges durable intake only; it says
// nothing about the processing outcome.
func (g *Gateway) Receive(ctx context.Context, path string, rawBody []byte, headers map[string]string) (*Receipt, error) {
	start := time.Now()

	endpoint, err := g.endpoints.GetByPath(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrEndpointNotFound) {
			metrics.SignalsRejectedTotal.WithLabelValues("unknown_path").Inc()
		}
		return nil, err
	}
	if !endpoint.Active {
		metrics.SignalsRejectedTotal.WithLabelValues("inactive").Inc()
		return nil, domain.ErrEndpointInactive
	}

	if sig, ok := lookupSignature(headers); ok {
		if !verifySignature(endpoint.Secret, rawBody, sig) {
			metrics.SignalsRejectedTotal.WithLabelValues("bad_signature").Inc()
			return nil, ErrInvalidSignature
		}
	}

	we := domain.NewWebhookEvent(endpoint.ID, rawBody, headers)
	we.ID = uuid.New().String()
	if err := g.webhookEvents.Create(ctx, we); err != nil {
		return nil, fmt.Errorf("failed to record webhook event: %w", err)
	}

	if err := g.endpoints.IncrementReceived(ctx, endpoint.ID); err != nil {
		g.logger.Error("failed to increment received counter",
			"endpoint_id", endpoint.ID,
			"error", err,
		)
	}

	// Publish failure is not an intake failure: the PENDING record is
	// durable and the backlog sweep will pick it up.
	msg := queue.ReceiptMessage(we.ID, endpoint.ID, string(endpoint.SourceKind))
	if err := g.producer.Publish(ctx, msg); err != nil {
		g.logger.Error("failed to publish webhook receipt",
			"webhook_event_id", we.ID,
			"error", err,
		)
	}

	metrics.SignalsReceivedTotal.WithLabelValues(string(endpoint.SourceKind)).Inc()
	metrics.IntakeLatency.Observe(time.Since(start).Seconds())

	return &Receipt{WebhookEventID: we.ID, Accepted: true}, nil
}

// lookupSignature finds a signature header, case-insensitively.
func lookupSignature(headers map[string]string) (string, bool) {
	for _, want := range signatureHeaders {
		for name, value := range headers {
			if strings.EqualFold(name, want) && value != "" {
				return value, true
			}
		}
	}
	return "", false
}

// verifySignature recomputes HMAC-SHA256 over the raw body and compares
// it, constant-time, against the hex value from the header. An optional
// "sha256=" prefix is stripped first.
func verifySignature(secret string, rawBody []byte, header string) bool {
	presented := strings.TrimPrefix(strings.TrimSpace(header), "sha256=")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(presented)))
}

// Sign computes the signature an integrator must send for a payload.
// Exposed for documentation and tests; the scheme is bit-exact:
// hex(HMAC-SHA256(secret, rawBody)).
func Sign(secret string, rawBody []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}
