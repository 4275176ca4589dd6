// Package store adapts the durable keyed store. Records are appended under
// (deviceId, timestamp) with an expiry stamp; the read side is a
// latest-by-device lookup.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gridhawk-systems/charger-telemetry/internal/models"
)

// DefaultRecordTTL is how long a stored record survives before the store may
// delete it.
const DefaultRecordTTL = 90 * 24 * time.Hour

// Store is the durable record store contract. Implementations do not retry
// internally; retry policy belongs to the ingestion side.
type Store interface {
	// Put appends the record keyed by (deviceId, timestamp). It never checks
	// for a pre-existing entry: repeated ingestion of logically identical
	// data produces multiple stored records.
	Put(ctx context.Context, record models.ProcessedRecord) error

	// Latest returns the record with the lexicographically greatest
	// timestamp for the device, or (nil, nil) when none exist.
	Latest(ctx context.Context, deviceID string) (*models.StoredRecord, error)

	// Describe reports whether the store is reachable and ready.
	Describe(ctx context.Context) error
}

// StoreError wraps any failure from the backing store. Callers treat store
// failures as opaque and transient; unreachable, throttled and malformed-item
// conditions all surface the same way.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}
