package domain

import "testing"

func TestAlertSubscription_Matches(t *testing.T) {
	conflictCritical := &Crisis{
		Type:     CrisisTypeConflict,
		Severity: SeverityCritical,
		Region:   "Horn of Africa",
		Country:  "Ethiopia",
	}
	foodSecurityHigh := &Crisis{
		Type:     CrisisTypeFoodSecurity,
		Severity: SeverityHigh,
		Region:   "Sahel",
	}

	tests := []struct {
		name   string
		sub    AlertSubscription
		crisis *Crisis
		want   bool
	}{
		{
			name: "all regions, type and severity match",
			sub: AlertSubscription{
				CrisisTypes: []CrisisType{CrisisTypeConflict},
				MinSeverity: SeverityHigh,
			},
			crisis: conflictCritical,
			want:   true,
		},
		{
			name: "type mismatch",
			sub: AlertSubscription{
				CrisisTypes: []CrisisType{CrisisTypeConflict},
				MinSeverity: SeverityHigh,
			},
			crisis: foodSecurityHigh,
			want:   false,
		},
		{
			name: "empty filters match everything above min severity",
			sub: AlertSubscription{
				MinSeverity: SeverityLow,
			},
			crisis: foodSecurityHigh,
			want:   true,
		},
		{
			name: "severity below minimum",
			sub: AlertSubscription{
				MinSeverity: SeverityCritical,
			},
			crisis: foodSecurityHigh,
			want:   false,
		},
		{
			name: "region substring match",
			sub: AlertSubscription{
				Regions:     []string{"horn of africa"},
				MinSeverity: SeverityMedium,
			},
			crisis: conflictCritical,
			want:   true,
		},
		{
			name: "country matches region filter",
			sub: AlertSubscription{
				Regions: []string{"Ethiopia"},
			},
			crisis: conflictCritical,
			want:   true,
		},
		{
			name: "region mismatch",
			sub: AlertSubscription{
				Regions: []string{"South Asia"},
			},
			crisis: conflictCritical,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.Matches(tt.crisis); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAlertSubscription_Eligible(t *testing.T) {
	tests := []struct {
		name     string
		verified bool
		active   bool
		want     bool
	}{
		{name: "verified and active", verified: true, active: true, want: true},
		{name: "unverified", verified: false, active: true, want: false},
		{name: "inactive", verified: true, active: false, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := AlertSubscription{Verified: tt.verified, Active: tt.active}
			if got := s.Eligible(); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAlertSubscription_Validate(t *testing.T) {
	tests := []struct {
		name    string
		sub     AlertSubscription
		wantErr error
	}{
		{
			name:    "valid",
			sub:     AlertSubscription{Email: "ops@example.org", Cadence: CadenceImmediate, MinSeverity: SeverityMedium},
			wantErr: nil,
		},
		{
			name:    "missing email",
			sub:     AlertSubscription{Cadence: CadenceDaily},
			wantErr: ErrEmptyEmail,
		},
		{
			name:    "invalid cadence",
			sub:     AlertSubscription{Email: "ops@example.org", Cadence: "HOURLY"},
			wantErr: ErrInvalidCadence,
		},
		{
			name:    "invalid severity",
			sub:     AlertSubscription{Email: "ops@example.org", Cadence: CadenceWeekly, MinSeverity: "SEVERE"},
			wantErr: ErrInvalidSeverity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.sub.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
