// Package classify turns raw signal text into a structured judgment
// about whether it describes an active humanitarian emergency.
package classify

import (
	"context"
	"errors"

	"reliefwatch/internal/domain"
)

// ErrMalformedResponse is returned when an analysis backend replies
// with something that cannot be interpreted as a classification. It is
// an explicit failure so callers can distinguish "not relevant" from
// "classification failed".
var ErrMalformedResponse = errors.New("malformed classifier response")

// Classification is the structured judgment for one piece of text.
type Classification struct {
	Relevant      bool              `json:"relevant"`
	Type          domain.CrisisType `json:"type"`
	Severity      domain.Severity   `json:"severity"`
	Confidence    float64           `json:"confidence"`
	Summary       string            `json:"summary"`
	Locations     []string          `json:"locations"`
	Organizations []string          `json:"organizations"`
	Keywords      []string          `json:"keywords"`
	Sentiment     float64           `json:"sentiment"`
}

// Classifier analyzes text. Implementations must be safe for concurrent
// use and must not mutate any shared state.
type Classifier interface {
	Classify(ctx context.Context, text string) (*Classification, error)
}
