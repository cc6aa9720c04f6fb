// Package metrics provides Prometheus metrics for ReliefWatch.
// It tracks webhook intake, classification, crisis correlation and
// notification dispatch to help measure pipeline health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "reliefwatch"
)

// Intake metrics track the webhook gateway.
var (
	// SignalsReceivedTotal counts webhook deliveries accepted by the gateway.
	SignalsReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_received_total",
			Help:      "Total number of webhook deliveries accepted by the gateway",
		},
		[]string{"source_kind"},
	)

	// SignalsRejectedTotal counts webhook deliveries rejected before intake.
	SignalsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_rejected_total",
			Help:      "Total number of webhook deliveries rejected by the gateway",
		},
		[]string{"reason"}, // reason: unknown_path, inactive, bad_signature
	)

	// WebhookOutcomesTotal counts terminal webhook processing outcomes.
	WebhookOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_outcomes_total",
			Help:      "Total number of webhook events reaching a terminal status",
		},
		[]string{"source_kind", "status"}, // status: success, failed, skipped
	)

	// IntakeLatency measures time from receipt to queue publish.
	IntakeLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "intake_latency_seconds",
			Help:      "Time from webhook receipt to queue publish in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

// Classification metrics track the analysis step.
var (
	// ClassifierCallsTotal counts classification attempts by outcome.
	ClassifierCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_calls_total",
			Help:      "Total number of classifier invocations",
		},
		[]string{"provider", "status"}, // status: success, failure
	)

	// ClassifierLatency measures time to classify a single event.
	ClassifierLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classifier_latency_seconds",
			Help:      "Time to classify a single event in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

// Correlation metrics track crisis lifecycle.
var (
	// CrisesCreatedTotal counts crises opened from incoming events.
	CrisesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crises_created_total",
			Help:      "Total number of crises created",
		},
		[]string{"type", "severity"},
	)

	// CrisesEscalatedTotal counts severity escalations on existing crises.
	CrisesEscalatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crises_escalated_total",
			Help:      "Total number of crisis severity escalations",
		},
		[]string{"type", "severity"},
	)

	// EventsLinkedTotal counts events attached to an existing crisis.
	EventsLinkedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_linked_total",
			Help:      "Total number of events linked to an existing crisis",
		},
		[]string{"type"},
	)

	// CorrelationErrorsTotal counts events that failed correlation.
	CorrelationErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "correlation_errors_total",
			Help:      "Total number of events that failed crisis correlation",
		},
	)
)

// Notification metrics track the dispatch sweeps.
var (
	// NotificationsSentTotal counts notifications sent, by cadence and outcome.
	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of notifications dispatched",
		},
		[]string{"cadence", "status"}, // status: sent, failed
	)

	// SweepDuration measures the wall time of a dispatch sweep.
	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a dispatch or pipeline sweep in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"job"},
	)

	// JobSkipsTotal counts scheduled runs skipped because the previous
	// run of the same job was still in flight.
	JobSkipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_skips_total",
			Help:      "Total number of scheduled job runs skipped due to overlap",
		},
		[]string{"job"},
	)
)

// Queue metrics track message queue health.
var (
	// QueueDepth tracks the current number of messages in the queue.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Current number of messages in the queue",
		},
	)

	// QueuePublishLatency measures time to publish a message to the queue.
	QueuePublishLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "queue_publish_latency_seconds",
			Help:      "Time to publish a message to the queue in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
		},
	)
)
