// Package normalize maps raw webhook payloads into canonical signals.
// Normalizers are pure functions: no I/O, no shared state. Each source
// kind has its own mapping that probes the field names that source is
// known to use; anything unrecognized falls through to the generic one.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"reliefwatch/internal/domain"
)

// Normalizer maps one raw payload into a RawSignal. Returns nil when
// neither a title nor a description can be extracted.
type Normalizer func(payload []byte) *domain.RawSignal

// For returns the normalizer registered for the source kind. Unknown
// kinds fall back to the generic JSON normalizer.
func For(kind domain.SourceKind) Normalizer {
	switch kind {
	case domain.SourceKindSeismic:
		return Seismic
	case domain.SourceKindDisaster:
		return Disaster
	case domain.SourceKindChat:
		return Chat
	case domain.SourceKindRSS:
		return Syndication
	default:
		return Generic
	}
}

// decode unmarshals a payload into a generic map. Returns nil on
// malformed JSON or a non-object document.
func decode(payload []byte) map[string]interface{} {
	var doc map[string]interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil
	}
	return doc
}

// stringField returns the first non-empty string value among the keys.
func stringField(doc map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := doc[key].(string); ok {
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// floatField returns the first numeric value among the keys. JSON
// numbers decode as float64; numeric strings are accepted too.
func floatField(doc map[string]interface{}, keys ...string) *float64 {
	for _, key := range keys {
		switch v := doc[key].(type) {
		case float64:
			f := v
			return &f
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// subObject returns a nested object value, or nil.
func subObject(doc map[string]interface{}, key string) map[string]interface{} {
	if v, ok := doc[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

// timeField returns the first parseable timestamp among the keys.
func timeField(doc map[string]interface{}, keys ...string) *time.Time {
	for _, key := range keys {
		switch v := doc[key].(type) {
		case string:
			if t := parseTime(v); t != nil {
				return t
			}
		case float64:
			if t := epochTime(v); t != nil {
				return t
			}
		}
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	// Numeric strings carry epoch timestamps (chat sources send "ts"
	// as fractional seconds).
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return epochTime(f)
	}
	return nil
}

// epochTime interprets a numeric timestamp as unix seconds or, when
// the magnitude clearly exceeds a seconds range, unix milliseconds.
func epochTime(f float64) *time.Time {
	if f <= 0 {
		return nil
	}
	var t time.Time
	if f > 1e12 {
		t = time.UnixMilli(int64(f)).UTC()
	} else {
		sec := int64(f)
		nsec := int64((f - float64(sec)) * 1e9)
		t = time.Unix(sec, nsec).UTC()
	}
	return &t
}

// signal assembles a RawSignal, returning nil when both title and
// description are empty.
func signal(title, description, fingerprint, location string, lat, lon *float64, occurredAt *time.Time) *domain.RawSignal {
	if title == "" && description == "" {
		return nil
	}
	if title == "" {
		title = firstLine(description)
	}
	return &domain.RawSignal{
		Title:             title,
		Description:       description,
		OriginFingerprint: fingerprint,
		Location:          location,
		Latitude:          lat,
		Longitude:         lon,
		OccurredAt:        occurredAt,
	}
}

// firstLine truncates text to its first line, capped at 140 characters.
func firstLine(text string) string {
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if len(text) > 140 {
		text = text[:140]
	}
	return text
}
