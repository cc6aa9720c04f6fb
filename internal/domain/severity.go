// Package domain contains the core business entities and value objects for
// ReliefWatch. These models represent the ubiquitous language of the
// humanitarian crisis monitoring domain.
package domain

import "errors"

// Severity represents how severe a crisis or classified signal is.
// Severities form an ordered scale; comparisons use Rank.
type Severity string

const (
	SeverityUnknown  Severity = "UNKNOWN"
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ErrInvalidSeverity is returned when a severity value is not recognized.
var ErrInvalidSeverity = errors.New("severity must be one of UNKNOWN, LOW, MEDIUM, HIGH, CRITICAL")

// severityRanks maps each severity to its position on the ordered scale.
var severityRanks = map[Severity]int{
	SeverityUnknown:  0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the ordinal position of the severity on the scale.
// Unrecognized values rank as UNKNOWN.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// IsValid returns true if the severity is a known value.
func (s Severity) IsValid() bool {
	_, ok := severityRanks[s]
	return ok
}

// AtLeast returns true if s is equal to or more severe than other.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// MaxSeverity returns the more severe of the two values.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// CrisisType categorizes the kind of emergency a crisis represents.
type CrisisType string

const (
	CrisisTypeEarthquake      CrisisType = "EARTHQUAKE"
	CrisisTypeFlood           CrisisType = "FLOOD"
	CrisisTypeDrought         CrisisType = "DROUGHT"
	CrisisTypeConflict        CrisisType = "CONFLICT"
	CrisisTypeDiseaseOutbreak CrisisType = "DISEASE_OUTBREAK"
	CrisisTypeFoodSecurity    CrisisType = "FOOD_SECURITY"
	CrisisTypeDisplacement    CrisisType = "DISPLACEMENT"
	CrisisTypeOther           CrisisType = "OTHER"
)

// IsValid returns true if the crisis type is a known value.
func (t CrisisType) IsValid() bool {
	switch t {
	case CrisisTypeEarthquake, CrisisTypeFlood, CrisisTypeDrought,
		CrisisTypeConflict, CrisisTypeDiseaseOutbreak, CrisisTypeFoodSecurity,
		CrisisTypeDisplacement, CrisisTypeOther:
		return true
	default:
		return false
	}
}
