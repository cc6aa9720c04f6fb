package domain

import "time"

// SourceKind identifies the shape of payloads an external source sends.
// Each registered endpoint declares the kind of source behind it so the
// right normalizer can be applied.
type SourceKind string

const (
	// SourceKindSeismic covers seismic feeds (GeoJSON-style features).
	SourceKindSeismic SourceKind = "seismic"
	// SourceKindDisaster covers disaster-coordination feeds.
	SourceKindDisaster SourceKind = "disaster"
	// SourceKindChat covers generic chat webhooks (Slack-style text posts).
	SourceKindChat SourceKind = "chat"
	// SourceKindRSS covers syndication feed items pushed as JSON.
	SourceKindRSS SourceKind = "rss"
	// SourceKindGeneric covers arbitrary JSON with best-effort field probing.
	SourceKindGeneric SourceKind = "generic"
)

// IsValid returns true if the source kind is a known value.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceKindSeismic, SourceKindDisaster, SourceKindChat, SourceKindRSS, SourceKindGeneric:
		return true
	default:
		return false
	}
}

// RawSignal is the canonical in-memory form of one incoming payload after
// normalization. It is consumed immediately by the filter and classifier
// stages and is never persisted directly.
type RawSignal struct {
	// Title is the extracted headline. At least one of Title and
	// Description is always non-empty for a valid signal.
	Title string

	// Description is the extracted body text.
	Description string

	// OriginFingerprint identifies the upstream item (a URL, an upstream
	// id, or a digest of the payload) for traceability.
	OriginFingerprint string

	// Location is the raw location text when the source carried one.
	Location string

	// Latitude and Longitude are set when the source carried coordinates.
	Latitude  *float64
	Longitude *float64

	// OccurredAt is the upstream timestamp when one could be parsed.
	OccurredAt *time.Time
}

// Text returns the title and description joined for classification.
func (s *RawSignal) Text() string {
	switch {
	case s.Title == "":
		return s.Description
	case s.Description == "":
		return s.Title
	default:
		return s.Title + "\n\n" + s.Description
	}
}
