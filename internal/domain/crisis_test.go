package domain

import (
	"testing"
	"time"
)

func TestCrisis_Escalate(t *testing.T) {
	tests := []struct {
		name         string
		current      Severity
		incoming     Severity
		wantSeverity Severity
		wantChanged  bool
	}{
		{name: "higher escalates", current: SeverityMedium, incoming: SeverityCritical, wantSeverity: SeverityCritical, wantChanged: true},
		{name: "equal leaves untouched", current: SeverityHigh, incoming: SeverityHigh, wantSeverity: SeverityHigh, wantChanged: false},
		{name: "lower never de-escalates", current: SeverityHigh, incoming: SeverityLow, wantSeverity: SeverityHigh, wantChanged: false},
		{name: "unknown never de-escalates", current: SeverityMedium, incoming: SeverityUnknown, wantSeverity: SeverityMedium, wantChanged: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Crisis{Severity: tt.current}
			changed := c.Escalate(tt.incoming)
			if changed != tt.wantChanged {
				t.Errorf("Escalate() changed = %v, want %v", changed, tt.wantChanged)
			}
			if c.Severity != tt.wantSeverity {
				t.Errorf("severity = %s, want %s", c.Severity, tt.wantSeverity)
			}
		})
	}
}

// Severity after any sequence of escalations must equal the max over the
// initial value and all inputs.
func TestCrisis_Escalate_Monotonic(t *testing.T) {
	c := &Crisis{Severity: SeverityLow}
	inputs := []Severity{SeverityMedium, SeverityLow, SeverityCritical, SeverityHigh, SeverityUnknown}

	want := c.Severity
	for _, in := range inputs {
		want = MaxSeverity(want, in)
		c.Escalate(in)
		if c.Severity != want {
			t.Fatalf("after escalating %s: severity = %s, want %s", in, c.Severity, want)
		}
	}
}

func TestCrisis_MatchesLocation(t *testing.T) {
	crisis := &Crisis{
		Location: "Jonglei, South Sudan",
		Country:  "South Sudan",
	}

	tests := []struct {
		name       string
		candidates []string
		want       bool
	}{
		{name: "exact location", candidates: []string{"Jonglei, South Sudan"}, want: true},
		{name: "contained location", candidates: []string{"Jonglei"}, want: true},
		{name: "case insensitive", candidates: []string{"jonglei"}, want: true},
		{name: "country match", candidates: []string{"south sudan"}, want: true},
		{name: "reverse containment", candidates: []string{"Bor, Jonglei, South Sudan"}, want: true},
		{name: "no match", candidates: []string{"Kandahar"}, want: false},
		{name: "empty candidates", candidates: []string{"", "  "}, want: false},
		{name: "nil candidates", candidates: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := crisis.MatchesLocation(tt.candidates); got != tt.want {
				t.Errorf("MatchesLocation(%v) = %v, want %v", tt.candidates, got, tt.want)
			}
		})
	}
}

func TestCrisisStatus_IsOpen(t *testing.T) {
	open := []CrisisStatus{CrisisStatusEmerging, CrisisStatusDeveloping, CrisisStatusOngoing}
	for _, s := range open {
		if !s.IsOpen() {
			t.Errorf("%s should be open", s)
		}
	}

	closed := []CrisisStatus{CrisisStatusStabilizing, CrisisStatusResolved}
	for _, s := range closed {
		if s.IsOpen() {
			t.Errorf("%s should not be open", s)
		}
	}
}

func TestEvent_IsStale(t *testing.T) {
	window := 30 * 24 * time.Hour

	fresh := &Event{PublishedAt: time.Now().UTC().Add(-24 * time.Hour)}
	if fresh.IsStale(window) {
		t.Error("day-old event should not be stale")
	}

	stale := &Event{PublishedAt: time.Now().UTC().Add(-31 * 24 * time.Hour)}
	if !stale.IsStale(window) {
		t.Error("31-day-old event should be stale")
	}
}
