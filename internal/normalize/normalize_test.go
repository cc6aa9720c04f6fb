package normalize

import (
	"testing"
	"time"

	"reliefwatch/internal/domain"
)

func TestSeismic(t *testing.T) {
	payload := []byte(`{
		"id": "us7000abcd",
		"properties": {
			"title": "M 6.2 - 14 km SSE of Hualien, Taiwan",
			"place": "14 km SSE of Hualien, Taiwan",
			"mag": 6.2,
			"time": 1756000000000
		},
		"geometry": {
			"coordinates": [121.6, 23.9, 10.0]
		}
	}`)

	sig := Seismic(payload)
	if sig == nil {
		t.Fatal("expected a signal, got nil")
	}
	if sig.Title != "M 6.2 - 14 km SSE of Hualien, Taiwan" {
		t.Errorf("unexpected title: %q", sig.Title)
	}
	if sig.Location != "14 km SSE of Hualien, Taiwan" {
		t.Errorf("unexpected location: %q", sig.Location)
	}
	if sig.OriginFingerprint != "us7000abcd" {
		t.Errorf("unexpected fingerprint: %q", sig.OriginFingerprint)
	}
	if sig.Latitude == nil || *sig.Latitude != 23.9 {
		t.Errorf("unexpected latitude: %v", sig.Latitude)
	}
	if sig.Longitude == nil || *sig.Longitude != 121.6 {
		t.Errorf("unexpected longitude: %v", sig.Longitude)
	}
	if sig.OccurredAt == nil {
		t.Fatal("expected occurredAt to be set")
	}
	want := time.UnixMilli(1756000000000).UTC()
	if !sig.OccurredAt.Equal(want) {
		t.Errorf("occurredAt = %v, want %v", sig.OccurredAt, want)
	}
}

func TestDisaster(t *testing.T) {
	payload := []byte(`{
		"id": "rw-123456",
		"fields": {
			"title": "South Sudan: Floods Flash Update No. 3",
			"body": "Heavy seasonal rains have displaced thousands.",
			"country": [{"name": "South Sudan"}],
			"date": {"created": "2026-08-20T08:00:00Z"}
		}
	}`)

	sig := Disaster(payload)
	if sig == nil {
		t.Fatal("expected a signal, got nil")
	}
	if sig.Title != "South Sudan: Floods Flash Update No. 3" {
		t.Errorf("unexpected title: %q", sig.Title)
	}
	if sig.Location != "South Sudan" {
		t.Errorf("unexpected location: %q", sig.Location)
	}
	if sig.OccurredAt == nil || sig.OccurredAt.Day() != 20 {
		t.Errorf("unexpected occurredAt: %v", sig.OccurredAt)
	}
}

func TestChat(t *testing.T) {
	payload := []byte(`{
		"event": {
			"text": "Cholera cases reported near the Bentiu camp\nField team requests supplies.",
			"channel": "field-reports",
			"ts": "1756000000.000200"
		}
	}`)

	sig := Chat(payload)
	if sig == nil {
		t.Fatal("expected a signal, got nil")
	}
	if sig.Title != "Cholera cases reported near the Bentiu camp" {
		t.Errorf("unexpected title: %q", sig.Title)
	}
	if sig.Location != "field-reports" {
		t.Errorf("unexpected location: %q", sig.Location)
	}
	if sig.OccurredAt == nil {
		t.Error("expected occurredAt parsed from ts")
	}
}

func TestChatWithoutText(t *testing.T) {
	if sig := Chat([]byte(`{"channel": "general"}`)); sig != nil {
		t.Errorf("expected nil signal, got %+v", sig)
	}
}

func TestSyndication(t *testing.T) {
	payload := []byte(`{
		"item": {
			"title": "Drought conditions worsen across the Horn of Africa",
			"description": "A fourth consecutive failed rainy season.",
			"link": "https://example.org/reports/991",
			"pubDate": "Mon, 17 Aug 2026 10:30:00 +0000"
		}
	}`)

	sig := Syndication(payload)
	if sig == nil {
		t.Fatal("expected a signal, got nil")
	}
	if sig.OriginFingerprint != "https://example.org/reports/991" {
		t.Errorf("unexpected fingerprint: %q", sig.OriginFingerprint)
	}
	if sig.OccurredAt == nil || sig.OccurredAt.Month() != time.August {
		t.Errorf("unexpected occurredAt: %v", sig.OccurredAt)
	}
}

func TestGeneric(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantNil   bool
		wantTitle string
	}{
		{
			name:      "title and description",
			payload:   `{"title": "Flooding in Jonglei", "description": "Heavy rains..."}`,
			wantTitle: "Flooding in Jonglei",
		},
		{
			name:      "description only derives title",
			payload:   `{"body": "Armed clashes reported near the border town."}`,
			wantTitle: "Armed clashes reported near the border town.",
		},
		{
			name:    "no usable text",
			payload: `{"count": 3, "ok": true}`,
			wantNil: true,
		},
		{
			name:    "malformed json",
			payload: `{"title": `,
			wantNil: true,
		},
		{
			name:    "non-object document",
			payload: `[1, 2, 3]`,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Generic([]byte(tt.payload))
			if tt.wantNil {
				if sig != nil {
					t.Errorf("expected nil signal, got %+v", sig)
				}
				return
			}
			if sig == nil {
				t.Fatal("expected a signal, got nil")
			}
			if sig.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", sig.Title, tt.wantTitle)
			}
		})
	}
}

func TestGenericCoordinates(t *testing.T) {
	sig := Generic([]byte(`{"title": "Camp report", "lat": "9.55", "lon": 31.66}`))
	if sig == nil {
		t.Fatal("expected a signal, got nil")
	}
	if sig.Latitude == nil || *sig.Latitude != 9.55 {
		t.Errorf("unexpected latitude: %v", sig.Latitude)
	}
	if sig.Longitude == nil || *sig.Longitude != 31.66 {
		t.Errorf("unexpected longitude: %v", sig.Longitude)
	}
}

func TestFor(t *testing.T) {
	// Every registered kind resolves; unknown kinds use the generic probe.
	kinds := []domain.SourceKind{
		domain.SourceKindSeismic,
		domain.SourceKindDisaster,
		domain.SourceKindChat,
		domain.SourceKindRSS,
		domain.SourceKindGeneric,
		domain.SourceKind("unknown"),
	}
	for _, kind := range kinds {
		if For(kind) == nil {
			t.Errorf("no normalizer for kind %q", kind)
		}
	}

	sig := For(domain.SourceKind("unknown"))([]byte(`{"title": "x"}`))
	if sig == nil || sig.Title != "x" {
		t.Errorf("unknown kind did not fall back to generic: %+v", sig)
	}
}
