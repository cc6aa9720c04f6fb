package domain

import (
	"errors"
	"strings"
	"time"
)

// Validation and lookup errors for IngestionEndpoint.
var (
	ErrEndpointNotFound  = errors.New("ingestion endpoint not found")
	ErrEndpointInactive  = errors.New("ingestion endpoint is inactive")
	ErrEmptyEndpointName = errors.New("name is required")
	ErrInvalidSourceKind = errors.New("source_kind must be one of seismic, disaster, chat, rss, generic")
)

// FilterPolicy is an endpoint's declared pre-classification filter.
// It decides whether a normalized signal is worth classifier budget.
type FilterPolicy struct {
	// Keywords: when non-empty, at least one entry must appear
	// (case-insensitively) in the signal's title+description.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords"`

	// Regions: when non-empty and the signal carried a location, the
	// location must substring-match one entry. Signals without a location
	// are not blocked by this rule.
	Regions []string `json:"regions,omitempty" yaml:"regions"`

	// MinSeverity is the minimum classified severity the endpoint cares
	// about. Applied after classification; UNKNOWN means no floor.
	MinSeverity Severity `json:"min_severity,omitempty" yaml:"min_severity"`
}

// MatchKeywords reports whether the signal text passes the keyword rule.
// An empty keyword list passes everything.
func (p *FilterPolicy) MatchKeywords(text string) bool {
	if len(p.Keywords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range p.Keywords {
		kw = strings.TrimSpace(strings.ToLower(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// MatchRegions reports whether the signal location passes the region rule.
// An empty region list passes everything; so does an empty location, since
// absence of a location must not block a signal here.
func (p *FilterPolicy) MatchRegions(location string) bool {
	if len(p.Regions) == 0 || location == "" {
		return true
	}
	lower := strings.ToLower(location)
	for _, region := range p.Regions {
		region = strings.TrimSpace(strings.ToLower(region))
		if region == "" {
			continue
		}
		if strings.Contains(lower, region) || strings.Contains(region, lower) {
			return true
		}
	}
	return false
}

// IngestionEndpoint is a registered intake point for push-based signals
// from one external source. The core reads endpoints during processing and
// only mutates their running counters.
type IngestionEndpoint struct {
	// ID is the unique identifier for this endpoint.
	ID string `json:"id"`

	// Name is a human-readable label for integrators.
	Name string `json:"name"`

	// SourceKind selects the normalizer applied to received payloads.
	SourceKind SourceKind `json:"source_kind"`

	// Path is the unique public receipt path segment for this endpoint.
	Path string `json:"path"`

	// Secret is the HMAC key used for signature verification. It is
	// returned to the integrator exactly once, at creation or rotation.
	Secret string `json:"-"`

	// Active disables receipt without deleting the endpoint.
	Active bool `json:"active"`

	// Filter is the pre-classification policy for this endpoint.
	Filter FilterPolicy `json:"filter"`

	// TotalReceived and TotalFailed are running counters. Increments must
	// be atomic under concurrent receipt.
	TotalReceived int64 `json:"total_received"`
	TotalFailed   int64 `json:"total_failed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the endpoint has all required fields with valid values.
func (e *IngestionEndpoint) Validate() error {
	if e.Name == "" {
		return ErrEmptyEndpointName
	}
	if !e.SourceKind.IsValid() {
		return ErrInvalidSourceKind
	}
	if e.Filter.MinSeverity != "" && !e.Filter.MinSeverity.IsValid() {
		return ErrInvalidSeverity
	}
	return nil
}
