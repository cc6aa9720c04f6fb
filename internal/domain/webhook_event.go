package domain

import (
	"errors"
	"time"
)

// ErrWebhookEventNotFound is returned when a webhook event cannot be found.
var ErrWebhookEventNotFound = errors.New("webhook event not found")

// WebhookEventStatus represents the processing lifecycle of a received payload.
type WebhookEventStatus string

const (
	// WebhookStatusPending means the payload is stored and awaiting processing.
	WebhookStatusPending WebhookEventStatus = "PENDING"
	// WebhookStatusProcessing means a pipeline run currently owns the payload.
	WebhookStatusProcessing WebhookEventStatus = "PROCESSING"
	// WebhookStatusSuccess means an event was created from the payload.
	WebhookStatusSuccess WebhookEventStatus = "SUCCESS"
	// WebhookStatusFailed means processing hit an error; the error text is kept.
	WebhookStatusFailed WebhookEventStatus = "FAILED"
	// WebhookStatusSkipped means the payload was unparseable or filtered out.
	WebhookStatusSkipped WebhookEventStatus = "SKIPPED"
)

// IsTerminal returns true once the status can no longer change.
// Terminal webhook events are never reprocessed automatically.
func (s WebhookEventStatus) IsTerminal() bool {
	switch s {
	case WebhookStatusSuccess, WebhookStatusFailed, WebhookStatusSkipped:
		return true
	default:
		return false
	}
}

// WebhookEvent is the durable record of one raw received payload and its
// processing lifecycle. It is created by the gateway on receipt and mutated
// only by the stage currently processing it.
type WebhookEvent struct {
	// ID is the unique identifier for this webhook event.
	ID string `json:"id"`

	// EndpointID identifies the ingestion endpoint that received the payload.
	EndpointID string `json:"endpoint_id"`

	// Payload is the raw request body exactly as received.
	Payload []byte `json:"payload"`

	// Headers is a snapshot of the request headers at receipt.
	Headers map[string]string `json:"headers,omitempty"`

	// Status is the processing lifecycle state.
	Status WebhookEventStatus `json:"status"`

	// EventID links to the downstream event once one was created.
	EventID string `json:"event_id,omitempty"`

	// Error holds the failure or skip reason for terminal non-success states.
	Error string `json:"error,omitempty"`

	// CreatedAt is when the payload was received.
	CreatedAt time.Time `json:"created_at"`

	// ProcessedAt is when processing reached a terminal state.
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// NewWebhookEvent creates a pending webhook event for a received payload.
func NewWebhookEvent(endpointID string, payload []byte, headers map[string]string) *WebhookEvent {
	return &WebhookEvent{
		EndpointID: endpointID,
		Payload:    payload,
		Headers:    headers,
		Status:     WebhookStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
}

// MarkProcessing claims the webhook event for the current pipeline run.
func (w *WebhookEvent) MarkProcessing() {
	w.Status = WebhookStatusProcessing
}

// MarkSuccess records the created event and closes the webhook event.
func (w *WebhookEvent) MarkSuccess(eventID string) {
	now := time.Now().UTC()
	w.Status = WebhookStatusSuccess
	w.EventID = eventID
	w.Error = ""
	w.ProcessedAt = &now
}

// MarkSkipped closes the webhook event as skipped with the stated reason.
func (w *WebhookEvent) MarkSkipped(reason string) {
	now := time.Now().UTC()
	w.Status = WebhookStatusSkipped
	w.Error = reason
	w.ProcessedAt = &now
}

// MarkFailed closes the webhook event as failed with the error text.
func (w *WebhookEvent) MarkFailed(errText string) {
	now := time.Now().UTC()
	w.Status = WebhookStatusFailed
	w.Error = errText
	w.ProcessedAt = &now
}
