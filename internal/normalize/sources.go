package normalize

import (
	"fmt"

	"reliefwatch/internal/domain"
)

// Seismic maps GeoJSON-style feature payloads from seismic feeds.
// Coordinates arrive as [longitude, latitude, depth]; the event time is
// unix milliseconds under properties.time.
func Seismic(payload []byte) *domain.RawSignal {
	doc := decode(payload)
	if doc == nil {
		return nil
	}

	props := subObject(doc, "properties")
	if props == nil {
		props = doc
	}

	title := stringField(props, "title", "place")
	description := stringField(props, "place", "detail")
	if mag := floatField(props, "mag", "magnitude"); mag != nil && title == "" {
		title = fmt.Sprintf("M %.1f seismic event", *mag)
	}

	var lat, lon *float64
	if geom := subObject(doc, "geometry"); geom != nil {
		if coords, ok := geom["coordinates"].([]interface{}); ok && len(coords) >= 2 {
			if lonV, ok := coords[0].(float64); ok {
				lon = &lonV
			}
			if latV, ok := coords[1].(float64); ok {
				lat = &latV
			}
		}
	}

	fingerprint := stringField(doc, "id")
	if fingerprint == "" {
		fingerprint = stringField(props, "url", "detail", "code")
	}

	return signal(
		title,
		description,
		fingerprint,
		stringField(props, "place"),
		lat, lon,
		timeField(props, "time", "updated"),
	)
}

// Disaster maps disaster-coordination feed items. These arrive either
// flat or wrapped under a "fields" object.
func Disaster(payload []byte) *domain.RawSignal {
	doc := decode(payload)
	if doc == nil {
		return nil
	}

	fields := subObject(doc, "fields")
	if fields == nil {
		fields = doc
	}

	location := stringField(fields, "country", "location", "region")
	if location == "" {
		if countries, ok := fields["country"].([]interface{}); ok && len(countries) > 0 {
			if c, ok := countries[0].(map[string]interface{}); ok {
				location = stringField(c, "name")
			}
		}
	}

	occurredAt := timeField(fields, "date", "created", "published")
	if occurredAt == nil {
		if dates := subObject(fields, "date"); dates != nil {
			occurredAt = timeField(dates, "created", "original")
		}
	}

	fingerprint := stringField(doc, "id", "url")
	if fingerprint == "" {
		fingerprint = stringField(fields, "url", "url_alias")
	}

	return signal(
		stringField(fields, "title", "name", "headline"),
		stringField(fields, "body", "body-html", "description", "summary"),
		fingerprint,
		location,
		floatField(fields, "lat", "latitude"),
		floatField(fields, "lon", "lng", "longitude"),
		occurredAt,
	)
}

// Chat maps chat-platform webhooks. The message body is the signal; a
// title is cut from its first line.
func Chat(payload []byte) *domain.RawSignal {
	doc := decode(payload)
	if doc == nil {
		return nil
	}

	// Event-callback wrappers nest the message under "event".
	if event := subObject(doc, "event"); event != nil {
		doc = event
	}

	text := stringField(doc, "text", "message", "content")
	if text == "" {
		return nil
	}

	fingerprint := stringField(doc, "client_msg_id", "event_ts", "ts", "id")

	return signal(
		firstLine(text),
		text,
		fingerprint,
		stringField(doc, "channel", "channel_name"),
		nil, nil,
		timeField(doc, "ts", "event_ts", "timestamp"),
	)
}

// Syndication maps feed items pushed as JSON (RSS/Atom bridges).
func Syndication(payload []byte) *domain.RawSignal {
	doc := decode(payload)
	if doc == nil {
		return nil
	}

	if item := subObject(doc, "item"); item != nil {
		doc = item
	}

	return signal(
		stringField(doc, "title"),
		stringField(doc, "description", "summary", "content", "content_html"),
		stringField(doc, "guid", "link", "url", "id"),
		stringField(doc, "location", "category"),
		floatField(doc, "lat", "latitude"),
		floatField(doc, "lon", "lng", "longitude"),
		timeField(doc, "pubDate", "published", "updated", "date_published"),
	)
}

// Generic probes arbitrary JSON for the field names integrators most
// commonly use.
func Generic(payload []byte) *domain.RawSignal {
	doc := decode(payload)
	if doc == nil {
		return nil
	}

	return signal(
		stringField(doc, "title", "name", "subject", "headline"),
		stringField(doc, "description", "body", "text", "content", "message", "summary", "details"),
		stringField(doc, "id", "url", "guid", "external_id", "reference"),
		stringField(doc, "location", "place", "region", "area", "country"),
		floatField(doc, "lat", "latitude"),
		floatField(doc, "lon", "lng", "longitude"),
		timeField(doc, "occurred_at", "timestamp", "time", "date", "created_at", "published_at"),
	)
}
