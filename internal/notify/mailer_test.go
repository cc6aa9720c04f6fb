package notify

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"reliefwatch/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestLogMailerAlwaysSucceeds(t *testing.T) {
	m := NewLogMailer(testLogger())

	result, err := m.Send(context.Background(), "person@example.org", "Test alert", "<p>body</p>")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !result.Success {
		t.Fatal("log mailer reported failure")
	}
}

func TestNewMailerProviderSelection(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"log", "*notify.LogMailer"},
		{"smtp", "*notify.SMTPMailer"},
		{"resend", "*notify.ResendMailer"},
		{"carrier-pigeon", "*notify.LogMailer"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := &config.MailerConfig{Provider: tt.provider, From: "alerts@example.org"}
			m := NewMailer(cfg, testLogger())
			if got := typeName(m); got != tt.want {
				t.Errorf("provider %q built %s, want %s", tt.provider, got, tt.want)
			}
		})
	}
}

func typeName(m Mailer) string {
	switch m.(type) {
	case *LogMailer:
		return "*notify.LogMailer"
	case *SMTPMailer:
		return "*notify.SMTPMailer"
	case *ResendMailer:
		return "*notify.ResendMailer"
	default:
		return "unknown"
	}
}

func TestBuildMessageHeaders(t *testing.T) {
	msg := string(buildMessage("alerts@example.org", "person@example.org", "Flood alert", "<h1>Flood</h1>"))

	for _, want := range []string{
		"From: alerts@example.org\r\n",
		"To: person@example.org\r\n",
		"Subject: Flood alert\r\n",
		"Content-Type: text/html",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
	if !strings.HasSuffix(msg, "\r\n<h1>Flood</h1>") {
		t.Errorf("body not separated from headers: %q", msg)
	}
}
