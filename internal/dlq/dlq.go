// Package dlq routes events that exhausted their storage attempts to a
// durable dead-letter destination for manual inspection.
package dlq

import (
	"context"
	"time"

	"github.com/gridhawk-systems/charger-telemetry/internal/models"
)

// FailedEvent is a dead-letter entry: the last attempted validated payload
// handed off verbatim, plus failure bookkeeping. No automatic reprocessing
// is performed; entries exist for inspection and replay tooling.
type FailedEvent struct {
	Timestamp time.Time             `json:"timestamp"`
	Event     models.ValidatedEvent `json:"event"`
	Error     string                `json:"error"`
	Attempts  int                   `json:"attempts"`
}

// Queue is the dead-letter contract used by the ingestion side and the
// health aggregator.
type Queue interface {
	// Publish appends a failed event to the queue.
	Publish(ctx context.Context, failed FailedEvent) error

	// Depth returns the current backlog size.
	Depth(ctx context.Context) (int64, error)
}
