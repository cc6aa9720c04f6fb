package domain

import (
	"errors"
	"time"
)

// ErrEventNotFound is returned when an event cannot be found.
var ErrEventNotFound = errors.New("event not found")

// Event is one classified, persisted signal. Events are created once per
// accepted signal; after creation only the CrisisID link and the Analyzed
// flag may be mutated, and only by the correlation engine.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Title is the normalized headline of the signal.
	Title string `json:"title"`

	// Description is the normalized body text of the signal.
	Description string `json:"description"`

	// SourceRef points back at the upstream item (origin fingerprint or URL).
	SourceRef string `json:"source_ref,omitempty"`

	// SourceKind records which kind of source produced the signal.
	SourceKind SourceKind `json:"source_kind"`

	// Location is the raw location text carried by the signal, if any.
	Location string `json:"location,omitempty"`

	// Latitude and Longitude are set when coordinates were extracted.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// Relevance and Sentiment are classifier scores when available.
	Relevance *float64 `json:"relevance,omitempty"`
	Sentiment *float64 `json:"sentiment,omitempty"`

	// CrisisID links the event to a crisis. Empty means the event has not
	// been correlated yet, or was judged not relevant and intentionally
	// left unlinked.
	CrisisID string `json:"crisis_id,omitempty"`

	// Analyzed is set once the correlation engine has reached a terminal
	// decision for this event, whether or not a crisis link resulted.
	Analyzed bool `json:"analyzed"`

	// PublishedAt is the upstream timestamp of the signal.
	PublishedAt time.Time `json:"published_at"`

	// FetchedAt is when the signal entered the system.
	FetchedAt time.Time `json:"fetched_at"`
}

// NewEventFromSignal builds an unanalyzed event from a normalized signal.
// PublishedAt falls back to the fetch time when the source carried no
// usable timestamp.
func NewEventFromSignal(sig *RawSignal, kind SourceKind) *Event {
	now := time.Now().UTC()
	e := &Event{
		Title:       sig.Title,
		Description: sig.Description,
		SourceRef:   sig.OriginFingerprint,
		SourceKind:  kind,
		Location:    sig.Location,
		Latitude:    sig.Latitude,
		Longitude:   sig.Longitude,
		PublishedAt: now,
		FetchedAt:   now,
	}
	if sig.OccurredAt != nil {
		e.PublishedAt = sig.OccurredAt.UTC()
	}
	return e
}

// Text returns the title and description joined for classification.
func (e *Event) Text() string {
	switch {
	case e.Title == "":
		return e.Description
	case e.Description == "":
		return e.Title
	default:
		return e.Title + "\n\n" + e.Description
	}
}

// IsStale reports whether the event's upstream timestamp is older than the
// given window. Stale events must never spawn or update a crisis.
func (e *Event) IsStale(window time.Duration) bool {
	return time.Since(e.PublishedAt) > window
}

// EventFilter provides filtering options for querying events.
type EventFilter struct {
	CrisisID   string
	SourceKind SourceKind
	Analyzed   *bool
	Limit      int
	Offset     int
}
