// Package health aggregates store reachability and dead-letter backlog
// depth into a tri-state verdict.
package health

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/gridhawk-systems/charger-telemetry/internal/dlq"
	"github.com/gridhawk-systems/charger-telemetry/internal/store"
)

// Status is a component or overall health verdict.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// DefaultDegradedThreshold is the dead-letter backlog depth above which the
// system reports degraded.
const DefaultDegradedThreshold = 10

// Snapshot is the result of one health check. Recomputed per request, never
// persisted.
type Snapshot struct {
	Status     Status             `json:"status"`
	Components SnapshotComponents `json:"components"`
}

// SnapshotComponents breaks the verdict down per dependency.
type SnapshotComponents struct {
	Store           Status `json:"store"`
	DeadLetter      Status `json:"deadLetter,omitempty"`
	DeadLetterDepth *int64 `json:"deadLetterDepth,omitempty"`
}

// Aggregator runs the health sub-checks. deadLetter may be nil: the absence
// of a safety net is not itself a fault signal.
type Aggregator struct {
	store             store.Store
	deadLetter        dlq.Queue
	degradedThreshold int64
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithDegradedThreshold overrides the backlog depth threshold.
func WithDegradedThreshold(n int64) Option {
	return func(a *Aggregator) { a.degradedThreshold = n }
}

// New creates an Aggregator.
func New(s store.Store, deadLetter dlq.Queue, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:             s,
		deadLetter:        deadLetter,
		degradedThreshold: DefaultDegradedThreshold,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Check runs the store and dead-letter sub-checks concurrently and joins
// them into a snapshot. Store failure dominates the overall verdict; a
// degraded dead-letter backlog downgrades an otherwise healthy system. A
// panic anywhere in the aggregation forces an unhealthy snapshot and a
// non-nil error rather than escaping the health boundary.
func (a *Aggregator) Check(ctx context.Context) (snapshot Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("health check panicked", slog.Any("panic", r))
			snapshot = Snapshot{
				Status:     StatusUnhealthy,
				Components: SnapshotComponents{Store: StatusUnhealthy},
			}
			err = fmt.Errorf("health check failed internally: %v", r)
		}
	}()

	var (
		storeStatus Status
		dlqStatus   Status
		dlqDepth    int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		// A panic must not escape the goroutine: errgroup does not carry
		// panics across Wait, it would take the process down.
		defer func() {
			if r := recover(); r != nil {
				storeStatus = StatusUnhealthy
				err = fmt.Errorf("store check panicked: %v", r)
			}
		}()
		storeStatus = a.checkStore(gctx)
		return nil
	})
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("dead-letter check panicked: %v", r)
			}
		}()
		dlqStatus, dlqDepth = a.checkDeadLetter(gctx)
		return nil
	})
	// Sub-checks report through their status values; the only group error
	// is a recovered panic, which forces the fail-safe verdict.
	if waitErr := g.Wait(); waitErr != nil {
		slog.Error("health check panicked", slog.String("error", waitErr.Error()))
		snapshot = Snapshot{
			Status:     StatusUnhealthy,
			Components: SnapshotComponents{Store: StatusUnhealthy},
		}
		return snapshot, fmt.Errorf("health check failed internally: %w", waitErr)
	}

	overall := StatusHealthy
	switch {
	case storeStatus == StatusUnhealthy:
		overall = StatusUnhealthy
	case dlqStatus == StatusDegraded:
		overall = StatusDegraded
	}

	snapshot = Snapshot{
		Status: overall,
		Components: SnapshotComponents{
			Store:           storeStatus,
			DeadLetter:      dlqStatus,
			DeadLetterDepth: &dlqDepth,
		},
	}
	return snapshot, nil
}

func (a *Aggregator) checkStore(ctx context.Context) Status {
	if err := a.store.Describe(ctx); err != nil {
		slog.Warn("store health check failed", slog.String("error", err.Error()))
		return StatusUnhealthy
	}
	return StatusHealthy
}

// checkDeadLetter never reports worse than healthy on its own failure: a
// broken depth read is an observability outage, not a system fault.
func (a *Aggregator) checkDeadLetter(ctx context.Context) (Status, int64) {
	if a.deadLetter == nil {
		return StatusHealthy, 0
	}

	depth, err := a.deadLetter.Depth(ctx)
	if err != nil {
		slog.Warn("dead-letter depth check failed", slog.String("error", err.Error()))
		return StatusHealthy, 0
	}

	if depth > a.degradedThreshold {
		return StatusDegraded, depth
	}
	return StatusHealthy, depth
}
