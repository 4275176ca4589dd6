// Package pipeline orchestrates a single event's path through validation,
// enrichment and the durable write. A pipeline run holds no state across
// events; every terminal transition emits exactly one counter.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gridhawk-systems/charger-telemetry/internal/enricher"
	"github.com/gridhawk-systems/charger-telemetry/internal/metrics"
	"github.com/gridhawk-systems/charger-telemetry/internal/models"
	"github.com/gridhawk-systems/charger-telemetry/internal/store"
	"github.com/gridhawk-systems/charger-telemetry/internal/validator"
)

// StorageFailure marks a transient downstream failure. It carries the
// validated payload so the caller can divert it to the dead-letter queue
// once its retry budget is exhausted.
type StorageFailure struct {
	Event models.ValidatedEvent
	Err   error
}

func (e *StorageFailure) Error() string {
	return fmt.Sprintf("storage failure for device %s: %v", e.Event.DeviceID, e.Err)
}

func (e *StorageFailure) Unwrap() error {
	return e.Err
}

// Pipeline runs raw events through validate → enrich → store.
type Pipeline struct {
	validator *validator.Validator
	enricher  *enricher.Enricher
	store     store.Store
}

// New creates a pipeline instance.
func New(v *validator.Validator, e *enricher.Enricher, s store.Store) *Pipeline {
	return &Pipeline{validator: v, enricher: e, store: s}
}

// Process takes a raw event to a terminal state:
//
//	Received → Validating → {Rejected | Validated} → Enriching → Storing → {Stored | Failed}
//
// Rejections are permanent and never retried; the event is dropped after the
// reason is counted. A storage failure surfaces as *StorageFailure so the
// caller can apply its retry policy; each retry reprocesses from scratch, so
// a retried event receives a new recordId and new timing metadata.
func (p *Pipeline) Process(ctx context.Context, raw models.RawEvent) (models.ProcessedRecord, error) {
	start := time.Now()

	event, err := p.validator.Validate(raw)
	if err != nil {
		var rejection *validator.RejectionError
		if errors.As(err, &rejection) {
			metrics.Emit(func() {
				metrics.EventsRejected.WithLabelValues(rejection.Reason.String()).Inc()
			})
		}
		return models.ProcessedRecord{}, err
	}

	record := p.enricher.Enrich(event)

	if err := p.store.Put(ctx, record); err != nil {
		metrics.Emit(func() {
			metrics.EventsFailed.Inc()
			metrics.FailureDuration.Observe(time.Since(start).Seconds())
		})
		return models.ProcessedRecord{}, &StorageFailure{Event: event, Err: err}
	}

	metrics.Emit(func() {
		metrics.EventsStored.Inc()
		metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	})
	return record, nil
}

// IsTransient reports whether err is a retryable storage failure rather
// than a permanent rejection.
func IsTransient(err error) bool {
	var failure *StorageFailure
	return errors.As(err, &failure)
}
