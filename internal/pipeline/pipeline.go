// Package pipeline drives accepted webhook payloads through
// normalization, filtering, event creation and crisis correlation. It
// consumes receipt messages from the queue and also exposes the batch
// sweeps the job orchestrator runs on a schedule.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reliefwatch/internal/correlate"
	"reliefwatch/internal/domain"
	"reliefwatch/internal/metrics"
	"reliefwatch/internal/normalize"
	"reliefwatch/internal/queue"
	"reliefwatch/internal/store"
)

// Service processes webhook events into classified, correlated events.
type Service struct {
	consumer      queue.Consumer
	endpoints     store.EndpointRepository
	webhookEvents store.WebhookEventRepository
	events        store.EventRepository
	engine        *correlate.Engine
	itemDelay     time.Duration
	batchSize     int
	logger        *slog.Logger
}

// NewService creates a new pipeline service.
func NewService(
	consumer queue.Consumer,
	endpoints store.EndpointRepository,
	webhookEvents store.WebhookEventRepository,
	events store.EventRepository,
	engine *correlate.Engine,
	itemDelay time.Duration,
	batchSize int,
	logger *slog.Logger,
) *Service {
	return &Service{
		consumer:      consumer,
		endpoints:     endpoints,
		webhookEvents: webhookEvents,
		events:        events,
		engine:        engine,
		itemDelay:     itemDelay,
		batchSize:     batchSize,
		logger:        logger,
	}
}

// Start begins consuming receipt messages from the queue.
// This is a blocking call that runs until the context is canceled.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("starting pipeline service")
	return s.consumer.Start(ctx, s.handleMessage)
}

// Stop gracefully stops the pipeline service.
func (s *Service) Stop() error {
	s.logger.Info("stopping pipeline service")
	return s.consumer.Close()
}

// handleMessage processes one receipt message. Errors are recorded on
// the webhook event; the return value only reports infrastructure
// failures to the consumer.
func (s *Service) handleMessage(ctx context.Context, msg *queue.Message) error {
	webhookEventID := string(msg.Value)
	if webhookEventID == "" {
		s.logger.Error("received receipt message with empty id")
		return nil
	}
	return s.ProcessWebhookEvent(ctx, webhookEventID)
}

// ProcessWebhookEvent runs one webhook event through the full pipeline.
// Terminal webhook events are left untouched, which makes processing
// idempotent under the queue's at-least-once delivery.
func (s *Service) ProcessWebhookEvent(ctx context.Context, id string) error {
	we, err := s.webhookEvents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrWebhookEventNotFound) {
			s.logger.Warn("webhook event not found", "webhook_event_id", id)
			return nil
		}
		return fmt.Errorf("failed to load webhook event: %w", err)
	}
	if we.Status.IsTerminal() {
		s.logger.Debug("webhook event already terminal",
			"webhook_event_id", we.ID,
			"status", we.Status,
		)
		return nil
	}

	we.MarkProcessing()
	if err := s.webhookEvents.Update(ctx, we); err != nil {
		return fmt.Errorf("failed to claim webhook event: %w", err)
	}

	endpoint, err := s.endpoints.GetByID(ctx, we.EndpointID)
	if err != nil {
		s.finishFailed(ctx, we, nil, fmt.Sprintf("endpoint lookup failed: %v", err))
		return nil
	}

	sourceKind := endpoint.SourceKind
	sig := normalize.For(sourceKind)(we.Payload)
	if sig == nil {
		s.finishSkipped(ctx, we, sourceKind, "unparseable payload")
		return nil
	}

	if !endpoint.Filter.MatchKeywords(sig.Text()) {
		s.finishSkipped(ctx, we, sourceKind, "no matching keywords")
		return nil
	}
	if !endpoint.Filter.MatchRegions(sig.Location) {
		s.finishSkipped(ctx, we, sourceKind, "no matching regions")
		return nil
	}

	event := domain.NewEventFromSignal(sig, sourceKind)
	event.ID = uuid.New().String()
	if err := s.events.Create(ctx, event); err != nil {
		s.failWithCounter(ctx, we, endpoint, fmt.Sprintf("failed to persist event: %v", err))
		return nil
	}

	if _, err := s.engine.ProcessEvent(ctx, event, endpoint.Filter.MinSeverity); err != nil {
		s.failWithCounter(ctx, we, endpoint, err.Error())
		return nil
	}

	we.MarkSuccess(event.ID)
	if err := s.webhookEvents.Update(ctx, we); err != nil {
		return fmt.Errorf("failed to finalize webhook event: %w", err)
	}
	metrics.WebhookOutcomesTotal.WithLabelValues(string(sourceKind), "success").Inc()

	s.logger.Info("webhook event processed",
		"webhook_event_id", we.ID,
		"event_id", event.ID,
	)
	return nil
}

func (s *Service) finishSkipped(ctx context.Context, we *domain.WebhookEvent, kind domain.SourceKind, reason string) {
	we.MarkSkipped(reason)
	if err := s.webhookEvents.Update(ctx, we); err != nil {
		s.logger.Error("failed to record skip", "webhook_event_id", we.ID, "error", err)
		return
	}
	metrics.WebhookOutcomesTotal.WithLabelValues(string(kind), "skipped").Inc()
	s.logger.Info("webhook event skipped",
		"webhook_event_id", we.ID,
		"reason", reason,
	)
}

func (s *Service) finishFailed(ctx context.Context, we *domain.WebhookEvent, endpoint *domain.IngestionEndpoint, errText string) {
	we.MarkFailed(errText)
	if err := s.webhookEvents.Update(ctx, we); err != nil {
		s.logger.Error("failed to record failure", "webhook_event_id", we.ID, "error", err)
		return
	}
	kind := domain.SourceKindGeneric
	if endpoint != nil {
		kind = endpoint.SourceKind
	}
	metrics.WebhookOutcomesTotal.WithLabelValues(string(kind), "failed").Inc()
	s.logger.Error("webhook event failed",
		"webhook_event_id", we.ID,
		"error", errText,
	)
}

func (s *Service) failWithCounter(ctx context.Context, we *domain.WebhookEvent, endpoint *domain.IngestionEndpoint, errText string) {
	s.finishFailed(ctx, we, endpoint, errText)
	if err := s.endpoints.IncrementFailed(ctx, endpoint.ID); err != nil {
		s.logger.Error("failed to increment failure counter",
			"endpoint_id", endpoint.ID,
			"error", err,
		)
	}
}

// SweepStats summarizes one batch run.
type SweepStats struct {
	Scanned   int `json:"scanned"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// SweepBacklog re-scans PENDING webhook events whose queue message was
// lost and drives each through the pipeline. Items are processed
// sequentially; one item's failure never aborts the batch.
func (s *Service) SweepBacklog(ctx context.Context) (*SweepStats, error) {
	start := time.Now()
	defer func() {
		metrics.SweepDuration.WithLabelValues("backlog").Observe(time.Since(start).Seconds())
	}()

	pending, err := s.webhookEvents.ListPending(ctx, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending webhook events: %w", err)
	}

	stats := &SweepStats{}
	for _, we := range pending {
		stats.Scanned++
		if err := s.ProcessWebhookEvent(ctx, we.ID); err != nil {
			stats.Failed++
			s.logger.Error("backlog item failed",
				"webhook_event_id", we.ID,
				"error", err,
			)
			continue
		}
		stats.Succeeded++
	}

	s.logger.Info("backlog sweep complete",
		"scanned", stats.Scanned,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)
	return stats, nil
}

// ClassifyUnanalyzed re-scans events that never reached a terminal
// analysis decision and runs each through the correlation engine,
// sequentially, with a fixed delay between classifier calls.
func (s *Service) ClassifyUnanalyzed(ctx context.Context) (*SweepStats, error) {
	start := time.Now()
	defer func() {
		metrics.SweepDuration.WithLabelValues("classify").Observe(time.Since(start).Seconds())
	}()

	events, err := s.events.ListUnanalyzed(ctx, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list unanalyzed events: %w", err)
	}

	stats := &SweepStats{}
	for i, event := range events {
		if i > 0 && s.itemDelay > 0 {
			select {
			case <-time.After(s.itemDelay):
			case <-ctx.Done():
				return stats, ctx.Err()
			}
		}

		stats.Scanned++
		if _, err := s.engine.ProcessEvent(ctx, event, ""); err != nil {
			stats.Failed++
			s.logger.Error("classification batch item failed",
				"event_id", event.ID,
				"error", err,
			)
			continue
		}
		stats.Succeeded++
	}

	s.logger.Info("classification batch complete",
		"scanned", stats.Scanned,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)
	return stats, nil
}
