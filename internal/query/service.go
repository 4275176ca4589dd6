// Package query is the read side: latest-record lookups with failures
// converted to structured outcomes. Nothing on this path panics or leaks a
// raw store error across the boundary.
package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/gridhawk-systems/charger-telemetry/internal/logging"
	"github.com/gridhawk-systems/charger-telemetry/internal/metrics"
	"github.com/gridhawk-systems/charger-telemetry/internal/models"
	"github.com/gridhawk-systems/charger-telemetry/internal/store"
)

// OutcomeKind classifies a lookup result.
type OutcomeKind string

const (
	OutcomeFound       OutcomeKind = "found"
	OutcomeNotFound    OutcomeKind = "not_found"
	OutcomeClientError OutcomeKind = "client_error"
	OutcomeStoreError  OutcomeKind = "store_error"
)

// Outcome is the well-formed result of a lookup. Record is set only for
// OutcomeFound; Message holds a caller-safe description for error kinds.
type Outcome struct {
	Kind    OutcomeKind
	Record  *models.StoredRecord
	Message string
}

// Service performs latest-by-device lookups. Every call re-queries the
// store; no caching, no staleness tolerance beyond the store's own.
type Service struct {
	store store.Store
}

// New creates a query Service.
func New(s store.Store) *Service {
	return &Service{store: s}
}

// GetLatest returns the most recent record for the device. An empty
// deviceId is a client error, distinct from an unknown device which is
// not-found. A query-duration measurement is emitted on every outcome,
// errors included.
func (s *Service) GetLatest(ctx context.Context, deviceID string) Outcome {
	start := time.Now()
	outcome := s.lookup(ctx, deviceID)
	metrics.Emit(func() {
		metrics.QueryDuration.WithLabelValues(string(outcome.Kind)).Observe(time.Since(start).Seconds())
	})
	return outcome
}

func (s *Service) lookup(ctx context.Context, deviceID string) Outcome {
	if deviceID == "" {
		return Outcome{
			Kind:    OutcomeClientError,
			Message: "deviceId is required",
		}
	}

	record, err := s.store.Latest(ctx, deviceID)
	if err != nil {
		slog.Error("latest-record lookup failed",
			logging.DeviceID(deviceID),
			logging.Err(err),
		)
		return Outcome{
			Kind:    OutcomeStoreError,
			Message: "failed to read telemetry store",
		}
	}
	if record == nil {
		return Outcome{
			Kind:    OutcomeNotFound,
			Message: "no telemetry recorded for device",
		}
	}

	return Outcome{Kind: OutcomeFound, Record: record}
}
