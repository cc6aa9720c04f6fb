// Package notify sends subscriber notifications over email. Backends
// are selected by configuration; the log-only backend lets every
// environment run without a configured transport.
package notify

import (
	"context"
	"log/slog"

	"reliefwatch/internal/config"
)

// SendResult reports the outcome of one delivery attempt.
type SendResult struct {
	Success   bool
	MessageID string
}

// Mailer delivers one email. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) (*SendResult, error)
}

// NewMailer builds the mailer selected by configuration. Unknown
// providers fall back to the log-only mailer.
func NewMailer(cfg *config.MailerConfig, logger *slog.Logger) Mailer {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPMailer(cfg, logger)
	case "resend":
		return NewResendMailer(cfg, logger)
	case "log":
		return NewLogMailer(logger)
	default:
		logger.Warn("unknown mailer provider, using log-only mailer", "provider", cfg.Provider)
		return NewLogMailer(logger)
	}
}

// LogMailer logs outbound mail instead of sending it.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates the log-only mailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the email and reports success.
func (m *LogMailer) Send(_ context.Context, to, subject, _ string) (*SendResult, error) {
	m.logger.Info("email suppressed (log-only mailer)",
		"to", to,
		"subject", subject,
	)
	return &SendResult{Success: true}, nil
}
