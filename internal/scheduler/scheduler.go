// Package scheduler runs the background jobs on their configured
// cadences and guarantees at most one concurrent run per job. Jobs can
// also be triggered manually through the API.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"reliefwatch/internal/config"
	"reliefwatch/internal/metrics"
)

// Job names accepted by Trigger.
const (
	JobBacklog   = "backlog"
	JobClassify  = "classify"
	JobImmediate = "immediate"
	JobDaily     = "daily"
	JobWeekly    = "weekly"
)

// Orchestrator errors.
var (
	ErrUnknownJob     = errors.New("unknown job")
	ErrAlreadyRunning = errors.New("job is already running")
)

// JobFunc is one runnable background job. The returned value is the
// job's own stats type; it is serialized as-is in status responses.
type JobFunc func(ctx context.Context) (any, error)

// JobStatus describes a job's most recent run.
type JobStatus struct {
	Name      string          `json:"name"`
	Running   bool            `json:"running"`
	LastRunAt *time.Time      `json:"last_run_at,omitempty"`
	LastError string          `json:"last_error,omitempty"`
	LastStats json.RawMessage `json:"last_stats,omitempty"`
}

// job pairs a JobFunc with its single-flight flag and run history.
type job struct {
	name     string
	run      JobFunc
	interval time.Duration

	running atomic.Bool

	mu        sync.Mutex
	lastRunAt *time.Time
	lastError string
	lastStats json.RawMessage
}

// Orchestrator owns the background jobs and their schedules.
type Orchestrator struct {
	jobs   map[string]*job
	order  []string
	logger *slog.Logger
}

// Jobs bundles the job functions the orchestrator schedules.
type Jobs struct {
	Backlog   JobFunc
	Classify  JobFunc
	Immediate JobFunc
	Daily     JobFunc
	Weekly    JobFunc
}

// NewOrchestrator creates an orchestrator for the given jobs with
// intervals from configuration.
func NewOrchestrator(jobs Jobs, cfg *config.SchedulerConfig, logger *slog.Logger) *Orchestrator {
	o := &Orchestrator{
		jobs:   make(map[string]*job),
		logger: logger,
	}
	o.register(JobBacklog, jobs.Backlog, cfg.BacklogInterval)
	o.register(JobClassify, jobs.Classify, cfg.ClassifyInterval)
	o.register(JobImmediate, jobs.Immediate, cfg.ImmediateInterval)
	o.register(JobDaily, jobs.Daily, cfg.DailyInterval)
	o.register(JobWeekly, jobs.Weekly, cfg.WeeklyInterval)
	return o
}

func (o *Orchestrator) register(name string, run JobFunc, interval time.Duration) {
	if run == nil {
		return
	}
	o.jobs[name] = &job{name: name, run: run, interval: interval}
	o.order = append(o.order, name)
}

// Start launches one ticker goroutine per job and blocks until the
// context is canceled.
func (o *Orchestrator) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for _, name := range o.order {
		j := o.jobs[name]
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.runLoop(ctx, j)
		}()
	}
	o.logger.Info("scheduler started", "jobs", len(o.order))
	wg.Wait()
	o.logger.Info("scheduler stopped")
}

func (o *Orchestrator) runLoop(ctx context.Context, j *job) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !j.running.CompareAndSwap(false, true) {
				metrics.JobSkipsTotal.WithLabelValues(j.name).Inc()
				o.logger.Warn("scheduled run skipped, previous run still active", "job", j.name)
				continue
			}
			o.execute(ctx, j)
		}
	}
}

// Trigger runs the named job synchronously and returns its stats.
// Returns ErrAlreadyRunning without waiting when the job is active.
func (o *Orchestrator) Trigger(ctx context.Context, name string) (any, error) {
	j, ok := o.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if !j.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	return o.execute(ctx, j)
}

// execute runs the job and records the outcome. The caller must have
// won the running flag; execute releases it.
func (o *Orchestrator) execute(ctx context.Context, j *job) (any, error) {
	defer j.running.Store(false)

	start := time.Now().UTC()
	stats, err := j.run(ctx)

	j.mu.Lock()
	j.lastRunAt = &start
	if err != nil {
		j.lastError = err.Error()
		j.lastStats = nil
	} else {
		j.lastError = ""
		if encoded, marshalErr := json.Marshal(stats); marshalErr == nil {
			j.lastStats = encoded
		}
	}
	j.mu.Unlock()

	if err != nil {
		o.logger.Error("job failed", "job", j.name, "error", err)
		return nil, err
	}
	o.logger.Info("job complete", "job", j.name, "duration", time.Since(start))
	return stats, nil
}

// Status returns the last-run info for every registered job, in
// registration order.
func (o *Orchestrator) Status() []JobStatus {
	statuses := make([]JobStatus, 0, len(o.order))
	for _, name := range o.order {
		j := o.jobs[name]
		j.mu.Lock()
		statuses = append(statuses, JobStatus{
			Name:      j.name,
			Running:   j.running.Load(),
			LastRunAt: j.lastRunAt,
			LastError: j.lastError,
			LastStats: j.lastStats,
		})
		j.mu.Unlock()
	}
	return statuses
}
