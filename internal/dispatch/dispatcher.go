// Package dispatch delivers crisis notifications to subscribers. The
// immediate sweep alerts on fresh medium-or-worse crises with a
// per-(subscription, crisis) ledger guaranteeing at-most-one attempt;
// the daily and weekly sweeps send one digest per subscriber.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reliefwatch/internal/domain"
	"reliefwatch/internal/metrics"
	"reliefwatch/internal/notify"
	"reliefwatch/internal/store"
)

const (
	immediateWindow = time.Hour
	dailyWindow     = 24 * time.Hour
	weeklyWindow    = 7 * 24 * time.Hour
)

// Dispatcher runs the three notification sweeps.
type Dispatcher struct {
	crises        store.CrisisRepository
	subscriptions store.SubscriptionRepository
	notifications store.NotificationRepository
	mailer        notify.Mailer
	logger        *slog.Logger

	// now is swapped in tests to pin the sweep windows.
	now func() time.Time
}

// NewDispatcher creates a new notification dispatcher.
func NewDispatcher(
	crises store.CrisisRepository,
	subscriptions store.SubscriptionRepository,
	notifications store.NotificationRepository,
	mailer notify.Mailer,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		crises:        crises,
		subscriptions: subscriptions,
		notifications: notifications,
		mailer:        mailer,
		logger:        logger,
		now:           time.Now,
	}
}

// SweepStats summarizes one dispatch sweep.
type SweepStats struct {
	Crises      int `json:"crises"`
	Subscribers int `json:"subscribers"`
	Sent        int `json:"sent"`
	Failed      int `json:"failed"`
	Suppressed  int `json:"suppressed"`
}

// RunImmediate alerts immediate-cadence subscribers about crises detected
// in the trailing hour at MEDIUM severity or above. A ledger row for the
// (subscription, crisis) pair, whatever its status, suppresses a second
// attempt.
func (d *Dispatcher) RunImmediate(ctx context.Context) (*SweepStats, error) {
	start := d.now()
	defer func() {
		metrics.SweepDuration.WithLabelValues("immediate").Observe(time.Since(start).Seconds())
	}()

	crises, err := d.crises.ListDetectedSince(ctx, start.Add(-immediateWindow), domain.SeverityMedium)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent crises: %w", err)
	}

	subs, err := d.subscriptions.ListByCadence(ctx, domain.CadenceImmediate)
	if err != nil {
		return nil, fmt.Errorf("failed to list immediate subscriptions: %w", err)
	}

	stats := &SweepStats{Crises: len(crises), Subscribers: len(subs)}
	for _, crisis := range crises {
		for _, sub := range subs {
			if !sub.Matches(crisis) {
				continue
			}

			existing, err := d.notifications.GetBySubscriptionAndCrisis(ctx, sub.ID, crisis.ID)
			if err != nil {
				d.logger.Error("ledger lookup failed",
					"subscription_id", sub.ID,
					"crisis_id", crisis.ID,
					"error", err,
				)
				stats.Failed++
				continue
			}
			if existing != nil {
				stats.Suppressed++
				continue
			}

			subject, body, err := renderAlert(sub, crisis)
			if err != nil {
				d.logger.Error("alert render failed", "crisis_id", crisis.ID, "error", err)
				stats.Failed++
				continue
			}

			if d.deliver(ctx, sub, crisis.ID, subject, body) {
				stats.Sent++
				metrics.NotificationsSentTotal.WithLabelValues(string(domain.CadenceImmediate), "sent").Inc()
			} else {
				stats.Failed++
				metrics.NotificationsSentTotal.WithLabelValues(string(domain.CadenceImmediate), "failed").Inc()
			}
		}
	}

	d.logger.Info("immediate sweep complete",
		"crises", stats.Crises,
		"subscribers", stats.Subscribers,
		"sent", stats.Sent,
		"failed", stats.Failed,
		"suppressed", stats.Suppressed,
	)
	return stats, nil
}

// RunDaily sends each daily-cadence subscriber one digest of the matching
// crises detected in the trailing 24 hours.
func (d *Dispatcher) RunDaily(ctx context.Context) (*SweepStats, error) {
	return d.runDigest(ctx, domain.CadenceDaily, dailyWindow, "daily")
}

// RunWeekly sends each weekly-cadence subscriber one digest of the
// matching crises detected in the trailing 7 days.
func (d *Dispatcher) RunWeekly(ctx context.Context) (*SweepStats, error) {
	return d.runDigest(ctx, domain.CadenceWeekly, weeklyWindow, "weekly")
}

// runDigest builds and sends one digest email per subscriber. Digests are
// not deduplicated against earlier sends; a crisis can appear in
// consecutive digests while it remains in the window.
func (d *Dispatcher) runDigest(ctx context.Context, cadence domain.Cadence, window time.Duration, job string) (*SweepStats, error) {
	start := d.now()
	defer func() {
		metrics.SweepDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
	}()

	crises, err := d.crises.ListDetectedSince(ctx, start.Add(-window), domain.SeverityUnknown)
	if err != nil {
		return nil, fmt.Errorf("failed to list crises for digest: %w", err)
	}

	subs, err := d.subscriptions.ListByCadence(ctx, cadence)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s subscriptions: %w", job, err)
	}

	stats := &SweepStats{Crises: len(crises), Subscribers: len(subs)}
	for _, sub := range subs {
		var matched []*domain.Crisis
		for _, crisis := range crises {
			if sub.Matches(crisis) {
				matched = append(matched, crisis)
			}
		}
		if len(matched) == 0 {
			continue
		}

		subject, body, err := renderDigest(sub, matched, cadence)
		if err != nil {
			d.logger.Error("digest render failed", "subscription_id", sub.ID, "error", err)
			stats.Failed++
			continue
		}

		if d.deliver(ctx, sub, "", subject, body) {
			stats.Sent++
			metrics.NotificationsSentTotal.WithLabelValues(string(cadence), "sent").Inc()
		} else {
			stats.Failed++
			metrics.NotificationsSentTotal.WithLabelValues(string(cadence), "failed").Inc()
		}
	}

	d.logger.Info("digest sweep complete",
		"cadence", cadence,
		"crises", stats.Crises,
		"subscribers", stats.Subscribers,
		"sent", stats.Sent,
		"failed", stats.Failed,
	)
	return stats, nil
}

// deliver records a PENDING ledger row, attempts the send, and finalizes
// the row as SENT or FAILED. Returns true on successful delivery.
func (d *Dispatcher) deliver(ctx context.Context, sub *domain.AlertSubscription, crisisID, subject, body string) bool {
	n := domain.NewPendingNotification(sub.ID, crisisID, subject, body)
	n.ID = uuid.New().String()
	if err := d.notifications.Create(ctx, n); err != nil {
		d.logger.Error("failed to create ledger row",
			"subscription_id", sub.ID,
			"crisis_id", crisisID,
			"error", err,
		)
		return false
	}

	result, err := d.mailer.Send(ctx, sub.Email, subject, body)
	if err != nil || !result.Success {
		errText := "send reported failure"
		if err != nil {
			errText = err.Error()
		}
		n.MarkFailed(errText)
		if updateErr := d.notifications.Update(ctx, n); updateErr != nil {
			d.logger.Error("failed to record delivery failure", "notification_id", n.ID, "error", updateErr)
		}
		d.logger.Error("notification delivery failed",
			"subscription_id", sub.ID,
			"crisis_id", crisisID,
			"error", errText,
		)
		return false
	}

	n.MarkSent()
	if err := d.notifications.Update(ctx, n); err != nil {
		d.logger.Error("failed to record delivery", "notification_id", n.ID, "error", err)
	}

	now := d.now().UTC()
	sub.LastNotifiedAt = &now
	if err := d.subscriptions.Update(ctx, sub); err != nil {
		d.logger.Error("failed to update last-notified timestamp",
			"subscription_id", sub.ID,
			"error", err,
		)
	}

	d.logger.Info("notification sent",
		"subscription_id", sub.ID,
		"crisis_id", crisisID,
		"message_id", result.MessageID,
	)
	return true
}
