package domain

import (
	"errors"
	"time"
)

// ErrNotificationNotFound is returned when a ledger row cannot be found.
var ErrNotificationNotFound = errors.New("sent notification not found")

// NotificationStatus represents the delivery outcome of one notification.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "PENDING"
	NotificationStatusSent    NotificationStatus = "SENT"
	NotificationStatusFailed  NotificationStatus = "FAILED"
	NotificationStatusBounced NotificationStatus = "BOUNCED"
)

// SentNotification is one row of the delivery ledger. For immediate alerts
// the existence of a row for a (subscription, crisis) pair — regardless of
// its status — is what prevents a second attempt in a later sweep.
type SentNotification struct {
	// ID is the unique identifier for this ledger row.
	ID string `json:"id"`

	// SubscriptionID identifies the recipient subscription.
	SubscriptionID string `json:"subscription_id"`

	// CrisisID identifies the crisis for immediate alerts. Digest rows
	// cover multiple crises and leave this empty.
	CrisisID string `json:"crisis_id,omitempty"`

	// Subject and Content snapshot the rendered email.
	Subject string `json:"subject"`
	Content string `json:"content"`

	// Status is the delivery outcome.
	Status NotificationStatus `json:"status"`

	// SentAt is when delivery succeeded.
	SentAt *time.Time `json:"sent_at,omitempty"`

	// Error holds the transport failure text for FAILED/BOUNCED rows.
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewPendingNotification creates a ledger row before a delivery attempt.
func NewPendingNotification(subscriptionID, crisisID, subject, content string) *SentNotification {
	return &SentNotification{
		SubscriptionID: subscriptionID,
		CrisisID:       crisisID,
		Subject:        subject,
		Content:        content,
		Status:         NotificationStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
}

// MarkSent records a successful delivery.
func (n *SentNotification) MarkSent() {
	now := time.Now().UTC()
	n.Status = NotificationStatusSent
	n.SentAt = &now
	n.Error = ""
}

// MarkFailed records a failed delivery attempt.
func (n *SentNotification) MarkFailed(errText string) {
	n.Status = NotificationStatusFailed
	n.Error = errText
}
