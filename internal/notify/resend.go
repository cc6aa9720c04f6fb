package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"

	"reliefwatch/internal/config"
)

// ResendMailer delivers email through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
	logger *slog.Logger
}

// NewResendMailer creates a Resend-backed mailer.
func NewResendMailer(cfg *config.MailerConfig, logger *slog.Logger) *ResendMailer {
	var client *resend.Client
	if cfg.ResendAPIKey != "" {
		client = resend.NewClient(cfg.ResendAPIKey)
	} else {
		logger.Warn("resend api key not set, resend mailer will reject sends")
	}
	return &ResendMailer{
		client: client,
		from:   cfg.From,
		logger: logger,
	}
}

// Send delivers one HTML email via Resend.
func (m *ResendMailer) Send(ctx context.Context, to, subject, html string) (*SendResult, error) {
	if m.client == nil {
		return nil, fmt.Errorf("resend client not configured")
	}

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	result, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("resend send failed: %w", err)
	}

	m.logger.Debug("email sent via resend", "message_id", result.Id, "to", to)
	return &SendResult{Success: true, MessageID: result.Id}, nil
}
