package domain

import "testing"

func TestFilterPolicy_MatchKeywords(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		text     string
		want     bool
	}{
		{name: "empty list passes everything", keywords: nil, text: "anything at all", want: true},
		{name: "case insensitive substring", keywords: []string{"flood"}, text: "Flooding in Jonglei", want: true},
		{name: "second keyword matches", keywords: []string{"cholera", "drought"}, text: "Drought conditions worsen", want: true},
		{name: "no match", keywords: []string{"flood"}, text: "Quarterly earnings report", want: false},
		{name: "blank keywords ignored", keywords: []string{" ", ""}, text: "anything", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &FilterPolicy{Keywords: tt.keywords}
			if got := p.MatchKeywords(tt.text); got != tt.want {
				t.Errorf("MatchKeywords(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestFilterPolicy_MatchRegions(t *testing.T) {
	tests := []struct {
		name     string
		regions  []string
		location string
		want     bool
	}{
		{name: "empty list passes", regions: nil, location: "Kabul", want: true},
		{name: "missing location never blocks", regions: []string{"Sahel"}, location: "", want: true},
		{name: "substring match", regions: []string{"South Sudan"}, location: "Jonglei, South Sudan", want: true},
		{name: "reverse containment", regions: []string{"Jonglei, South Sudan"}, location: "Jonglei", want: true},
		{name: "no match", regions: []string{"Sahel"}, location: "Kabul", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &FilterPolicy{Regions: tt.regions}
			if got := p.MatchRegions(tt.location); got != tt.want {
				t.Errorf("MatchRegions(%q) = %v, want %v", tt.location, got, tt.want)
			}
		})
	}
}

func TestIngestionEndpoint_Validate(t *testing.T) {
	tests := []struct {
		name     string
		endpoint IngestionEndpoint
		wantErr  error
	}{
		{
			name:     "valid",
			endpoint: IngestionEndpoint{Name: "USGS quakes", SourceKind: SourceKindSeismic},
			wantErr:  nil,
		},
		{
			name:     "missing name",
			endpoint: IngestionEndpoint{SourceKind: SourceKindGeneric},
			wantErr:  ErrEmptyEndpointName,
		},
		{
			name:     "invalid source kind",
			endpoint: IngestionEndpoint{Name: "x", SourceKind: "telegraph"},
			wantErr:  ErrInvalidSourceKind,
		},
		{
			name: "invalid filter severity",
			endpoint: IngestionEndpoint{
				Name:       "x",
				SourceKind: SourceKindChat,
				Filter:     FilterPolicy{MinSeverity: "EXTREME"},
			},
			wantErr: ErrInvalidSeverity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.endpoint.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWebhookEvent_Lifecycle(t *testing.T) {
	w := NewWebhookEvent("ep-1", []byte(`{}`), nil)
	if w.Status != WebhookStatusPending {
		t.Fatalf("new webhook event status = %s, want PENDING", w.Status)
	}
	if w.Status.IsTerminal() {
		t.Error("PENDING must not be terminal")
	}

	w.MarkProcessing()
	if w.Status != WebhookStatusProcessing || w.Status.IsTerminal() {
		t.Errorf("after MarkProcessing: status = %s", w.Status)
	}

	w.MarkSuccess("ev-1")
	if w.Status != WebhookStatusSuccess || w.EventID != "ev-1" || w.ProcessedAt == nil {
		t.Errorf("after MarkSuccess: status=%s eventID=%s", w.Status, w.EventID)
	}
	if !w.Status.IsTerminal() {
		t.Error("SUCCESS must be terminal")
	}

	skipped := NewWebhookEvent("ep-1", nil, nil)
	skipped.MarkSkipped("no matching keywords")
	if skipped.Status != WebhookStatusSkipped || skipped.Error != "no matching keywords" {
		t.Errorf("after MarkSkipped: status=%s error=%q", skipped.Status, skipped.Error)
	}

	failed := NewWebhookEvent("ep-1", nil, nil)
	failed.MarkFailed("classifier unavailable")
	if failed.Status != WebhookStatusFailed || failed.Error != "classifier unavailable" {
		t.Errorf("after MarkFailed: status=%s error=%q", failed.Status, failed.Error)
	}
}
