package classify

import (
	"context"
	"time"

	"reliefwatch/internal/metrics"
)

// instrumented wraps a Classifier with Prometheus call metrics.
type instrumented struct {
	provider string
	next     Classifier
}

// Instrument wraps a classifier so every call is counted and timed
// under the given provider label.
func Instrument(provider string, next Classifier) Classifier {
	return &instrumented{provider: provider, next: next}
}

func (i *instrumented) Classify(ctx context.Context, text string) (*Classification, error) {
	start := time.Now()
	result, err := i.next.Classify(ctx, text)
	metrics.ClassifierLatency.Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.ClassifierCallsTotal.WithLabelValues(i.provider, status).Inc()

	return result, err
}
