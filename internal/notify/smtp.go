package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"reliefwatch/internal/config"
)

// SMTPMailer delivers email over SMTP. Port 465 connects with implicit
// TLS; other ports use STARTTLS when the server offers it.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   *slog.Logger
}

// NewSMTPMailer creates an SMTP-backed mailer.
func NewSMTPMailer(cfg *config.MailerConfig, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.From,
		logger:   logger,
	}
}

// Send delivers one HTML email.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) (*SendResult, error) {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	client, err := m.connect(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if m.username != "" && m.password != "" {
		auth := smtp.PlainAuth("", m.username, m.password, m.host)
		if err := client.Auth(auth); err != nil {
			return nil, fmt.Errorf("smtp authentication failed: %w", err)
		}
	}

	if err := client.Mail(m.from); err != nil {
		return nil, fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return nil, fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return nil, fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := writer.Write(buildMessage(m.from, to, subject, html)); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := client.Quit(); err != nil {
		m.logger.Warn("smtp quit failed", "error", err)
	}

	return &SendResult{Success: true}, nil
}

func (m *SMTPMailer) connect(ctx context.Context, addr string) (*smtp.Client, error) {
	dialer := &net.Dialer{}

	if m.port == 465 {
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: m.host})
		if err != nil {
			return nil, fmt.Errorf("failed to connect with tls: %w", err)
		}
		client, err := smtp.NewClient(conn, m.host)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create smtp client: %w", err)
		}
		return client, nil
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to start tls: %w", err)
		}
	}
	return client, nil
}

// buildMessage assembles the RFC 5322 message bytes.
func buildMessage(from, to, subject, html string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}
