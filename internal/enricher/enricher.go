// Package enricher turns validated events into processed records by
// attaching a generated identity and timing metadata.
package enricher

import (
	"time"

	"github.com/google/uuid"

	"github.com/gridhawk-systems/charger-telemetry/internal/models"
)

// Enricher stamps validated events. Pure apart from the identity and clock
// reads; no failure modes.
type Enricher struct {
	now func() time.Time
}

// New constructs an Enricher using the wall clock.
func New() *Enricher {
	return &Enricher{now: time.Now}
}

// NewWithClock constructs an Enricher with an injected clock for tests.
func NewWithClock(now func() time.Time) *Enricher {
	return &Enricher{now: now}
}

// Enrich produces a ProcessedRecord with a fresh random recordId. A single
// clock read feeds both receivedAt and processedAt: enrichment is
// instantaneous relative to the event's external timeline, so the two being
// equal is intentional.
func (e *Enricher) Enrich(event models.ValidatedEvent) models.ProcessedRecord {
	now := e.now().UTC()
	return models.ProcessedRecord{
		RecordID:     uuid.New().String(),
		DeviceID:     event.DeviceID,
		Timestamp:    event.Timestamp,
		TimestampRaw: event.TimestampRaw,
		Data:         event.Data,
		ReceivedAt:   now,
		ProcessedAt:  now,
	}
}
