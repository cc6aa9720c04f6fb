package domain

import "testing"

func TestSeverity_Ordering(t *testing.T) {
	ordered := []Severity{SeverityUnknown, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank() <= ordered[i-1].Rank() {
			t.Errorf("expected %s to rank above %s", ordered[i], ordered[i-1])
		}
	}
}

func TestSeverity_AtLeast(t *testing.T) {
	tests := []struct {
		name string
		s    Severity
		min  Severity
		want bool
	}{
		{name: "critical at least high", s: SeverityCritical, min: SeverityHigh, want: true},
		{name: "equal severities", s: SeverityMedium, min: SeverityMedium, want: true},
		{name: "low below high", s: SeverityLow, min: SeverityHigh, want: false},
		{name: "anything at least unknown", s: SeverityLow, min: SeverityUnknown, want: true},
		{name: "unrecognized ranks as unknown", s: Severity("bogus"), min: SeverityLow, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.AtLeast(tt.min); got != tt.want {
				t.Errorf("AtLeast(%s, %s) = %v, want %v", tt.s, tt.min, got, tt.want)
			}
		})
	}
}

func TestMaxSeverity(t *testing.T) {
	if got := MaxSeverity(SeverityLow, SeverityCritical); got != SeverityCritical {
		t.Errorf("MaxSeverity = %s, want CRITICAL", got)
	}
	if got := MaxSeverity(SeverityHigh, SeverityMedium); got != SeverityHigh {
		t.Errorf("MaxSeverity = %s, want HIGH", got)
	}
}

func TestCrisisType_IsValid(t *testing.T) {
	if !CrisisTypeConflict.IsValid() {
		t.Error("CONFLICT should be valid")
	}
	if CrisisType("WEATHER").IsValid() {
		t.Error("WEATHER should not be valid")
	}
}
