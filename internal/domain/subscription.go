package domain

import (
	"errors"
	"strings"
	"time"
)

// Cadence is the notification delivery frequency a subscriber selects.
type Cadence string

const (
	CadenceImmediate Cadence = "IMMEDIATE"
	CadenceDaily     Cadence = "DAILY"
	CadenceWeekly    Cadence = "WEEKLY"
)

// IsValid returns true if the cadence is a known value.
func (c Cadence) IsValid() bool {
	switch c {
	case CadenceImmediate, CadenceDaily, CadenceWeekly:
		return true
	default:
		return false
	}
}

// Validation and lookup errors for AlertSubscription.
var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrEmptyEmail           = errors.New("email is required")
	ErrInvalidCadence       = errors.New("cadence must be IMMEDIATE, DAILY, or WEEKLY")
)

// AlertSubscription is a subscriber's standing notification preference.
// Subscriptions are created by the signup flow and consumed read-only by
// the notification dispatcher.
type AlertSubscription struct {
	// ID is the unique identifier for this subscription.
	ID string `json:"id"`

	// Email is the delivery address.
	Email string `json:"email"`

	// Name is the subscriber's display name.
	Name string `json:"name,omitempty"`

	// Regions limits notifications to matching crisis regions.
	// Empty means all regions.
	Regions []string `json:"regions,omitempty"`

	// CrisisTypes limits notifications to the listed types.
	// Empty means all types.
	CrisisTypes []CrisisType `json:"crisis_types,omitempty"`

	// MinSeverity is the least severe crisis the subscriber wants to hear
	// about.
	MinSeverity Severity `json:"min_severity"`

	// Cadence selects immediate alerts or daily/weekly digests.
	Cadence Cadence `json:"cadence"`

	// Verified is set once the subscriber confirmed their address.
	Verified bool `json:"verified"`

	// Active allows pausing delivery without deleting the subscription.
	Active bool `json:"active"`

	// UnsubscribeToken and VerificationToken drive the signup/opt-out links.
	UnsubscribeToken  string `json:"-"`
	VerificationToken string `json:"-"`

	// LastNotifiedAt records the most recent delivery to this subscriber.
	LastNotifiedAt *time.Time `json:"last_notified_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the subscription has all required fields.
func (s *AlertSubscription) Validate() error {
	if s.Email == "" {
		return ErrEmptyEmail
	}
	if !s.Cadence.IsValid() {
		return ErrInvalidCadence
	}
	if s.MinSeverity != "" && !s.MinSeverity.IsValid() {
		return ErrInvalidSeverity
	}
	return nil
}

// Eligible returns true if the subscription may receive any notifications
// at all: it must be verified and active.
func (s *AlertSubscription) Eligible() bool {
	return s.Verified && s.Active
}

// Matches reports whether the crisis satisfies the subscriber's filters:
// region (empty list = all, otherwise substring containment either way),
// crisis type (empty list = all), and minimum severity.
func (s *AlertSubscription) Matches(crisis *Crisis) bool {
	if !s.matchRegion(crisis) {
		return false
	}
	if !s.matchType(crisis.Type) {
		return false
	}
	return crisis.Severity.AtLeast(s.MinSeverity)
}

func (s *AlertSubscription) matchRegion(crisis *Crisis) bool {
	if len(s.Regions) == 0 {
		return true
	}
	fields := []string{crisis.Region, crisis.Country, crisis.Location}
	for _, want := range s.Regions {
		want = strings.TrimSpace(strings.ToLower(want))
		if want == "" {
			continue
		}
		for _, f := range fields {
			f = strings.ToLower(f)
			if f == "" {
				continue
			}
			if strings.Contains(f, want) || strings.Contains(want, f) {
				return true
			}
		}
	}
	return false
}

func (s *AlertSubscription) matchType(t CrisisType) bool {
	if len(s.CrisisTypes) == 0 {
		return true
	}
	for _, want := range s.CrisisTypes {
		if want == t {
			return true
		}
	}
	return false
}
