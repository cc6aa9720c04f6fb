package gateway

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"reliefwatch/internal/domain"
	queuememory "reliefwatch/internal/queue/memory"
	storememory "reliefwatch/internal/store/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fixture struct {
	gateway       *Gateway
	registry      *Registry
	endpoints     *storememory.EndpointRepository
	webhookEvents *storememory.WebhookEventRepository
	queue         *queuememory.Queue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	endpoints := storememory.NewEndpointRepository()
	webhookEvents := storememory.NewWebhookEventRepository()
	q := queuememory.NewQueue(16)
	logger := testLogger()
	return &fixture{
		gateway:       NewGateway(endpoints, webhookEvents, q, logger),
		registry:      NewRegistry(endpoints, logger),
		endpoints:     endpoints,
		webhookEvents: webhookEvents,
		queue:         q,
	}
}

func (f *fixture) register(t *testing.T) *Created {
	t.Helper()
	created, err := f.registry.Create(context.Background(), CreateParams{
		Name:       "field reports",
		SourceKind: domain.SourceKindGeneric,
	})
	if err != nil {
		t.Fatalf("failed to register endpoint: %v", err)
	}
	return created
}

func TestReceiveUnknownPath(t *testing.T) {
	f := newFixture(t)
	_, err := f.gateway.Receive(context.Background(), "no-such-path", []byte(`{}`), nil)
	if !errors.Is(err, domain.ErrEndpointNotFound) {
		t.Errorf("expected ErrEndpointNotFound, got %v", err)
	}
}

func TestReceiveInactiveEndpoint(t *testing.T) {
	f := newFixture(t)
	created := f.register(t)

	inactive := false
	if _, err := f.registry.Update(context.Background(), created.Endpoint.ID, UpdateParams{Active: &inactive}); err != nil {
		t.Fatalf("failed to deactivate endpoint: %v", err)
	}

	_, err := f.gateway.Receive(context.Background(), created.Path, []byte(`{}`), nil)
	if !errors.Is(err, domain.ErrEndpointInactive) {
		t.Errorf("expected ErrEndpointInactive, got %v", err)
	}
}

func TestReceiveWithoutSignature(t *testing.T) {
	f := newFixture(t)
	created := f.register(t)

	receipt, err := f.gateway.Receive(context.Background(), created.Path, []byte(`{"title":"x"}`), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !receipt.Accepted || receipt.WebhookEventID == "" {
		t.Errorf("unexpected receipt: %+v", receipt)
	}

	we, err := f.webhookEvents.GetByID(context.Background(), receipt.WebhookEventID)
	if err != nil {
		t.Fatalf("webhook event not stored: %v", err)
	}
	if we.Status != domain.WebhookStatusPending {
		t.Errorf("status = %v, want PENDING", we.Status)
	}
	if f.queue.Len() != 1 {
		t.Errorf("queue length = %d, want 1", f.queue.Len())
	}

	ep, _ := f.endpoints.GetByID(context.Background(), created.Endpoint.ID)
	if ep.TotalReceived != 1 {
		t.Errorf("total received = %d, want 1", ep.TotalReceived)
	}
}

func TestReceiveValidSignature(t *testing.T) {
	f := newFixture(t)
	created := f.register(t)

	body := []byte(`{"title":"Flooding in Jonglei"}`)
	headers := map[string]string{
		"X-Signature-256": "sha256=" + Sign(created.Secret, body),
	}

	receipt, err := f.gateway.Receive(context.Background(), created.Path, body, headers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !receipt.Accepted {
		t.Error("expected delivery to be accepted")
	}
}

func TestReceiveTamperedBody(t *testing.T) {
	f := newFixture(t)
	created := f.register(t)

	body := []byte(`{"title":"Flooding in Jonglei"}`)
	headers := map[string]string{
		"X-Signature-256": Sign(created.Secret, body),
	}
	tampered := []byte(`{"title":"Flooding in Jonglei","amount":99}`)

	_, err := f.gateway.Receive(context.Background(), created.Path, tampered, headers)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}

	// A rejected delivery leaves nothing behind.
	pending, _ := f.webhookEvents.ListPending(context.Background(), 10)
	if len(pending) != 0 {
		t.Errorf("expected no stored webhook events, got %d", len(pending))
	}
	ep, _ := f.endpoints.GetByID(context.Background(), created.Endpoint.ID)
	if ep.TotalReceived != 0 {
		t.Errorf("total received = %d, want 0", ep.TotalReceived)
	}
}

func TestReceiveReplayCreatesTwoRecords(t *testing.T) {
	f := newFixture(t)
	created := f.register(t)

	body := []byte(`{"title":"Flooding in Jonglei"}`)
	headers := map[string]string{
		"X-Signature-256": Sign(created.Secret, body),
	}

	r1, err := f.gateway.Receive(context.Background(), created.Path, body, headers)
	if err != nil {
		t.Fatalf("first receive: %v", err)
	}
	r2, err := f.gateway.Receive(context.Background(), created.Path, body, headers)
	if err != nil {
		t.Fatalf("second receive: %v", err)
	}
	if r1.WebhookEventID == r2.WebhookEventID {
		t.Error("replayed delivery must create a distinct webhook event")
	}
}

func TestRotateSecret(t *testing.T) {
	f := newFixture(t)
	created := f.register(t)

	body := []byte(`{"title":"x"}`)
	oldSecret := created.Secret

	newSecret, err := f.registry.RotateSecret(context.Background(), created.Endpoint.ID)
	if err != nil {
		t.Fatalf("rotate failed: %v", err)
	}
	if newSecret == oldSecret {
		t.Fatal("rotation must produce a new secret")
	}

	// Old secret stops validating immediately.
	_, err = f.gateway.Receive(context.Background(), created.Path, body, map[string]string{
		"X-Signature-256": Sign(oldSecret, body),
	})
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature for old secret, got %v", err)
	}

	if _, err := f.gateway.Receive(context.Background(), created.Path, body, map[string]string{
		"X-Signature-256": Sign(newSecret, body),
	}); err != nil {
		t.Errorf("new secret rejected: %v", err)
	}
}

func TestVerifySignatureVariants(t *testing.T) {
	secret := "topsecret"
	body := []byte(`{"a":1}`)
	sig := Sign(secret, body)

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"bare hex", sig, true},
		{"sha256 prefix", "sha256=" + sig, true},
		{"uppercase hex", "SHA256=" + sig, false}, // prefix is case-sensitive
		{"wrong secret", Sign("other", body), false},
		{"garbage", "not-a-signature", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := verifySignature(secret, body, tt.header); got != tt.want {
				t.Errorf("verifySignature(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestRegistryValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.registry.Create(context.Background(), CreateParams{
		Name:       "",
		SourceKind: domain.SourceKindGeneric,
	})
	if !errors.Is(err, domain.ErrEmptyEndpointName) {
		t.Errorf("expected ErrEmptyEndpointName, got %v", err)
	}

	_, err = f.registry.Create(context.Background(), CreateParams{
		Name:       "x",
		SourceKind: domain.SourceKind("carrier-pigeon"),
	})
	if !errors.Is(err, domain.ErrInvalidSourceKind) {
		t.Errorf("expected ErrInvalidSourceKind, got %v", err)
	}
}
