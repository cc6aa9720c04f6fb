package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrCrisisNotFound is returned when a crisis cannot be found.
var ErrCrisisNotFound = errors.New("crisis not found")

// CrisisStatus represents the lifecycle stage of a crisis.
// The usual progression is EMERGING → DEVELOPING → ONGOING → STABILIZING →
// RESOLVED, though operators may move a crisis between stages manually.
type CrisisStatus string

const (
	CrisisStatusEmerging    CrisisStatus = "EMERGING"
	CrisisStatusDeveloping  CrisisStatus = "DEVELOPING"
	CrisisStatusOngoing     CrisisStatus = "ONGOING"
	CrisisStatusStabilizing CrisisStatus = "STABILIZING"
	CrisisStatusResolved    CrisisStatus = "RESOLVED"
)

// OpenCrisisStatuses are the statuses in which a crisis still accepts
// correlated events.
var OpenCrisisStatuses = []CrisisStatus{
	CrisisStatusEmerging,
	CrisisStatusDeveloping,
	CrisisStatusOngoing,
}

// IsOpen returns true if the status still accepts correlated events.
func (s CrisisStatus) IsOpen() bool {
	switch s {
	case CrisisStatusEmerging, CrisisStatusDeveloping, CrisisStatusOngoing:
		return true
	default:
		return false
	}
}

// Crisis is a long-lived aggregate representing one ongoing emergency
// situation. It is created from a single qualifying event and grows as
// subsequent events are correlated to it.
type Crisis struct {
	// ID is the unique identifier for this crisis.
	ID string `json:"id"`

	// Title is a short human-readable headline for the situation.
	Title string `json:"title"`

	// Description summarizes the situation, typically from the classifier.
	Description string `json:"description"`

	// Type categorizes the emergency.
	Type CrisisType `json:"type"`

	// Severity is the current severity. It only ever increases as more
	// severe events are correlated; it never decreases through correlation.
	Severity Severity `json:"severity"`

	// Status is the lifecycle stage.
	Status CrisisStatus `json:"status"`

	// Confidence is the classifier confidence from the founding event, [0,1].
	Confidence float64 `json:"confidence"`

	// Location is the primary location text extracted for this crisis.
	Location string `json:"location,omitempty"`

	// Region and Country are coarser geographic labels when known.
	Region  string `json:"region,omitempty"`
	Country string `json:"country,omitempty"`

	// Latitude and Longitude are set when coordinates were extracted.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// Tags are free-form labels (classifier keywords, organizations).
	Tags []string `json:"tags,omitempty"`

	// DetectedAt is when the crisis was first detected by the engine.
	DetectedAt time.Time `json:"detected_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOpen returns true if the crisis still accepts correlated events.
func (c *Crisis) IsOpen() bool {
	return c.Status.IsOpen()
}

// Escalate raises the crisis severity to the incoming value if it is
// strictly higher. Severity is monotonically non-decreasing; lower incoming
// severities leave the crisis untouched. Returns true if the severity changed.
func (c *Crisis) Escalate(incoming Severity) bool {
	if incoming.Rank() <= c.Severity.Rank() {
		return false
	}
	c.Severity = incoming
	c.UpdatedAt = time.Now().UTC()
	return true
}

// MatchesLocation reports whether any of the candidate location strings is
// contained, case-insensitively, in the crisis location, country, or region
// (or the reverse containment). Empty candidates never match.
func (c *Crisis) MatchesLocation(candidates []string) bool {
	fields := []string{c.Location, c.Country, c.Region}
	for _, cand := range candidates {
		cand = strings.TrimSpace(strings.ToLower(cand))
		if cand == "" {
			continue
		}
		for _, f := range fields {
			f = strings.ToLower(f)
			if f == "" {
				continue
			}
			if strings.Contains(f, cand) || strings.Contains(cand, f) {
				return true
			}
		}
	}
	return false
}

// CrisisFilter provides filtering options for querying crises.
type CrisisFilter struct {
	Type     CrisisType
	Status   CrisisStatus
	Severity Severity // minimum severity when set
	Since    time.Time
	Limit    int
	Offset   int
}
