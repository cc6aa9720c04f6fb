// Package correlate decides whether a classified signal belongs to an
// existing open crisis or starts a new one. Events are processed one at
// a time; the matching step reads then writes the open crisis set, so
// callers must not run two correlations concurrently.
package correlate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"reliefwatch/internal/classify"
	"reliefwatch/internal/domain"
	"reliefwatch/internal/metrics"
	"reliefwatch/internal/store"
)

// Action describes the terminal branch ProcessEvent took for an event.
type Action string

const (
	// ActionStale means the event was too old to participate and was
	// marked analyzed without classification.
	ActionStale Action = "STALE"
	// ActionNotRelevant means the classifier judged the content not
	// relevant to an active emergency.
	ActionNotRelevant Action = "NOT_RELEVANT"
	// ActionBelowSeverity means the classified severity fell below the
	// caller's floor; the event stays unlinked.
	ActionBelowSeverity Action = "BELOW_SEVERITY"
	// ActionLinked means the event was attached to an existing crisis.
	ActionLinked Action = "LINKED"
	// ActionCreated means a new crisis was created from the event.
	ActionCreated Action = "CREATED"
)

// Result reports the outcome of correlating one event.
type Result struct {
	Action Action
	Crisis *domain.Crisis
}

// Engine is the correlation engine.
type Engine struct {
	classifier      classify.Classifier
	events          store.EventRepository
	crises          store.CrisisRepository
	stateStore      store.StateStore
	stalenessWindow time.Duration
	cacheTTL        time.Duration
	logger          *slog.Logger
}

// NewEngine creates a new correlation engine.
func NewEngine(
	classifier classify.Classifier,
	events store.EventRepository,
	crises store.CrisisRepository,
	stateStore store.StateStore,
	stalenessWindow time.Duration,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		classifier:      classifier,
		events:          events,
		crises:          crises,
		stateStore:      stateStore,
		stalenessWindow: stalenessWindow,
		cacheTTL:        cacheTTL,
		logger:          logger,
	}
}

// ProcessEvent classifies the event and links it to a crisis, creates a
// crisis from it, or leaves it unlinked. minSeverity, when non-empty,
// is the owning endpoint's severity floor; classified signals below it
// do not participate in correlation. The event is marked analyzed in
// every terminal branch, including failures, so the unanalyzed backlog
// always shrinks.
func (e *Engine) ProcessEvent(ctx context.Context, event *domain.Event, minSeverity domain.Severity) (*Result, error) {
	// Stale signals must never spawn or update a crisis, and they skip
	// classification entirely.
	if event.IsStale(e.stalenessWindow) {
		if err := e.markAnalyzed(ctx, event); err != nil {
			return nil, err
		}
		return &Result{Action: ActionStale}, nil
	}

	classification, err := e.classifier.Classify(ctx, event.Text())
	if err != nil {
		metrics.CorrelationErrorsTotal.Inc()
		if markErr := e.markAnalyzed(ctx, event); markErr != nil {
			e.logger.Error("failed to mark event analyzed after classification failure",
				"event_id", event.ID,
				"error", markErr,
			)
		}
		return nil, fmt.Errorf("classification failed: %w", err)
	}

	event.Relevance = &classification.Confidence
	event.Sentiment = &classification.Sentiment

	if !classification.Relevant {
		if err := e.markAnalyzed(ctx, event); err != nil {
			return nil, err
		}
		return &Result{Action: ActionNotRelevant}, nil
	}

	if minSeverity != "" && !classification.Severity.AtLeast(minSeverity) {
		if err := e.markAnalyzed(ctx, event); err != nil {
			return nil, err
		}
		return &Result{Action: ActionBelowSeverity}, nil
	}

	crisis, err := e.findOpenCrisis(ctx, classification, event)
	if err != nil {
		metrics.CorrelationErrorsTotal.Inc()
		if markErr := e.markAnalyzed(ctx, event); markErr != nil {
			e.logger.Error("failed to mark event analyzed after lookup failure",
				"event_id", event.ID,
				"error", markErr,
			)
		}
		return nil, err
	}

	if crisis != nil {
		return e.linkToCrisis(ctx, event, crisis, classification)
	}
	return e.createCrisis(ctx, event, classification)
}

// findOpenCrisis searches open crises of the classified type for one
// whose location matches the classifier's extracted locations or the
// event's own raw location. Candidates are ordered most recently
// detected first; the first match wins.
func (e *Engine) findOpenCrisis(ctx context.Context, c *classify.Classification, event *domain.Event) (*domain.Crisis, error) {
	candidates, err := e.openCrises(ctx, c.Type)
	if err != nil {
		return nil, err
	}

	locations := append([]string{}, c.Locations...)
	if event.Location != "" {
		locations = append(locations, event.Location)
	}

	for _, crisis := range candidates {
		if crisis.MatchesLocation(locations) {
			return crisis, nil
		}
	}
	return nil, nil
}

// openCrises returns open crises of the given type, served from the
// state store when a fresh entry exists. A cache failure falls back to
// the repository; the repository is always the source of truth.
func (e *Engine) openCrises(ctx context.Context, t domain.CrisisType) ([]*domain.Crisis, error) {
	cached, err := e.stateStore.GetOpenCrises(ctx, t)
	if err != nil {
		e.logger.Warn("open-crisis cache read failed", "type", t, "error", err)
	} else if cached != nil {
		return cached, nil
	}

	crises, err := e.crises.ListOpenByType(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to list open crises: %w", err)
	}

	if err := e.stateStore.SetOpenCrises(ctx, t, crises, e.cacheTTL); err != nil {
		e.logger.Warn("open-crisis cache write failed", "type", t, "error", err)
	}
	return crises, nil
}

// linkToCrisis attaches the event to an existing crisis, escalating the
// crisis severity when the incoming severity is strictly higher.
// Severity never decreases through this path.
func (e *Engine) linkToCrisis(ctx context.Context, event *domain.Event, crisis *domain.Crisis, c *classify.Classification) (*Result, error) {
	event.CrisisID = crisis.ID
	if err := e.markAnalyzed(ctx, event); err != nil {
		metrics.CorrelationErrorsTotal.Inc()
		return nil, err
	}

	if crisis.Escalate(c.Severity) {
		if err := e.crises.Update(ctx, crisis); err != nil {
			metrics.CorrelationErrorsTotal.Inc()
			return nil, fmt.Errorf("failed to escalate crisis: %w", err)
		}
		e.invalidate(ctx, crisis.Type)
		metrics.CrisesEscalatedTotal.WithLabelValues(string(crisis.Type), string(crisis.Severity)).Inc()
		e.logger.Info("crisis escalated",
			"crisis_id", crisis.ID,
			"severity", crisis.Severity,
			"event_id", event.ID,
		)
	}

	metrics.EventsLinkedTotal.WithLabelValues(string(crisis.Type)).Inc()
	return &Result{Action: ActionLinked, Crisis: crisis}, nil
}

// createCrisis opens a new EMERGING crisis from the event.
func (e *Engine) createCrisis(ctx context.Context, event *domain.Event, c *classify.Classification) (*Result, error) {
	now := time.Now().UTC()

	location := event.Location
	if len(c.Locations) > 0 {
		location = c.Locations[0]
	}

	crisis := &domain.Crisis{
		ID:          uuid.New().String(),
		Title:       crisisTitle(c.Summary, event.Title),
		Description: c.Summary,
		Type:        c.Type,
		Severity:    c.Severity,
		Status:      domain.CrisisStatusEmerging,
		Confidence:  c.Confidence,
		Location:    location,
		Latitude:    event.Latitude,
		Longitude:   event.Longitude,
		Tags:        c.Keywords,
		DetectedAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := e.crises.Create(ctx, crisis); err != nil {
		metrics.CorrelationErrorsTotal.Inc()
		if markErr := e.markAnalyzed(ctx, event); markErr != nil {
			e.logger.Error("failed to mark event analyzed after crisis create failure",
				"event_id", event.ID,
				"error", markErr,
			)
		}
		return nil, fmt.Errorf("failed to create crisis: %w", err)
	}
	e.invalidate(ctx, crisis.Type)

	event.CrisisID = crisis.ID
	if err := e.markAnalyzed(ctx, event); err != nil {
		metrics.CorrelationErrorsTotal.Inc()
		return nil, err
	}

	metrics.CrisesCreatedTotal.WithLabelValues(string(crisis.Type), string(crisis.Severity)).Inc()
	e.logger.Info("crisis created",
		"crisis_id", crisis.ID,
		"type", crisis.Type,
		"severity", crisis.Severity,
		"event_id", event.ID,
	)

	return &Result{Action: ActionCreated, Crisis: crisis}, nil
}

// markAnalyzed persists the event's terminal analysis state.
func (e *Engine) markAnalyzed(ctx context.Context, event *domain.Event) error {
	event.Analyzed = true
	if err := e.events.Update(ctx, event); err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

// invalidate drops the cached open-crisis candidates for a type after
// the crisis set changed.
func (e *Engine) invalidate(ctx context.Context, t domain.CrisisType) {
	if err := e.stateStore.Invalidate(ctx, t); err != nil {
		e.logger.Warn("open-crisis cache invalidation failed", "type", t, "error", err)
	}
}

// crisisTitle derives a crisis title from the first sentence of the
// classifier summary, falling back to the event's own title.
func crisisTitle(summary, fallback string) string {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return fallback
	}
	if i := strings.Index(summary, ". "); i >= 0 {
		summary = summary[:i+1]
	}
	if len(summary) > 200 {
		summary = summary[:200]
	}
	return summary
}
