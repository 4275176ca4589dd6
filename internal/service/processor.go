// Package service wraps the pipeline with the invoker-side policy: bounded
// retry for transient storage failures and dead-letter divert on exhaustion.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gridhawk-systems/charger-telemetry/internal/dlq"
	"github.com/gridhawk-systems/charger-telemetry/internal/logging"
	"github.com/gridhawk-systems/charger-telemetry/internal/metrics"
	"github.com/gridhawk-systems/charger-telemetry/internal/models"
	"github.com/gridhawk-systems/charger-telemetry/internal/pipeline"
	"github.com/gridhawk-systems/charger-telemetry/internal/validator"
)

const (
	// DefaultMaxAttempts bounds delivery attempts per event: the first run
	// plus two retries.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the pause between attempts.
	DefaultRetryDelay = 100 * time.Millisecond
)

// Processor drives the pipeline and owns the retry/dead-letter policy. The
// pipeline itself is stateless between attempts, so every retry reprocesses
// the event from scratch, including re-enrichment.
type Processor struct {
	pipeline    *pipeline.Pipeline
	deadLetter  dlq.Queue
	maxAttempts int
	retryDelay  time.Duration

	startedAt time.Time
	processed atomic.Uint64
	rejected  atomic.Uint64
	failed    atomic.Uint64
}

// ProcessorOption customizes a Processor.
type ProcessorOption func(*Processor)

// WithMaxAttempts overrides the per-event attempt budget.
func WithMaxAttempts(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithRetryDelay overrides the inter-attempt delay.
func WithRetryDelay(d time.Duration) ProcessorOption {
	return func(p *Processor) { p.retryDelay = d }
}

// NewProcessor creates a Processor. deadLetter may be nil when no
// dead-letter destination is configured; exhausted events are then dropped
// after logging.
func NewProcessor(pipe *pipeline.Pipeline, deadLetter dlq.Queue, opts ...ProcessorOption) *Processor {
	p := &Processor{
		pipeline:    pipe,
		deadLetter:  deadLetter,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		startedAt:   time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest runs the event to a terminal state. Rejections return immediately;
// transient storage failures are retried up to the attempt budget, then the
// last validated payload is handed to the dead-letter queue verbatim and
// the failure is returned to the caller.
func (p *Processor) Ingest(ctx context.Context, raw models.RawEvent) (models.ProcessedRecord, error) {
	var lastErr error

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		record, err := p.pipeline.Process(ctx, raw)
		if err == nil {
			p.processed.Add(1)
			return record, nil
		}

		var rejection *validator.RejectionError
		if errors.As(err, &rejection) {
			p.rejected.Add(1)
			slog.Warn("event rejected",
				logging.DeviceID(raw.DeviceID),
				logging.Reason(rejection.Reason.String()),
			)
			return models.ProcessedRecord{}, err
		}

		lastErr = err
		if attempt < p.maxAttempts {
			slog.Warn("storage attempt failed, retrying",
				logging.DeviceID(raw.DeviceID),
				logging.Attempt(attempt),
				logging.Err(err),
			)
			metrics.Emit(func() { metrics.RetryAttempts.Inc() })
			select {
			case <-time.After(p.retryDelay):
			case <-ctx.Done():
				p.failed.Add(1)
				return models.ProcessedRecord{}, ctx.Err()
			}
		}
	}

	p.failed.Add(1)
	p.divertToDeadLetter(ctx, lastErr)
	return models.ProcessedRecord{}, lastErr
}

func (p *Processor) divertToDeadLetter(ctx context.Context, err error) {
	var failure *pipeline.StorageFailure
	if !errors.As(err, &failure) {
		return
	}

	if p.deadLetter == nil {
		slog.Error("storage attempts exhausted and no dead-letter queue configured, dropping event",
			logging.DeviceID(failure.Event.DeviceID),
			logging.Err(err),
		)
		return
	}

	entry := dlq.FailedEvent{
		Timestamp: time.Now().UTC(),
		Event:     failure.Event,
		Error:     failure.Err.Error(),
		Attempts:  p.maxAttempts,
	}
	if dlqErr := p.deadLetter.Publish(ctx, entry); dlqErr != nil {
		slog.Error("failed to dead-letter event",
			logging.DeviceID(failure.Event.DeviceID),
			logging.Err(dlqErr),
		)
		return
	}

	metrics.Emit(func() { metrics.DeadLettered.Inc() })
	slog.Warn("event diverted to dead-letter queue",
		logging.DeviceID(failure.Event.DeviceID),
		logging.Err(failure.Err),
	)
}

// Stats is a snapshot of processor counters.
type Stats struct {
	UptimeSeconds int64  `json:"uptime_seconds"`
	Processed     uint64 `json:"processed"`
	Rejected      uint64 `json:"rejected"`
	Failed        uint64 `json:"failed"`
}

// Snapshot returns current counters for the stats endpoint.
func (p *Processor) Snapshot() Stats {
	return Stats{
		UptimeSeconds: int64(time.Since(p.startedAt).Seconds()),
		Processed:     p.processed.Load(),
		Rejected:      p.rejected.Load(),
		Failed:        p.failed.Load(),
	}
}
