// Package validator performs structural and semantic checks on raw charger
// telemetry. Validation is pure: no I/O, deterministic for a fixed clock.
package validator

import (
	"fmt"
	"regexp"
	"time"

	"github.com/gridhawk-systems/charger-telemetry/internal/models"
)

// DefaultClockSkewTolerance is how far an event timestamp may exceed local
// "now" before it is rejected as implausible.
const DefaultClockSkewTolerance = 5 * time.Minute

var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// RejectionError marks an event as permanently invalid. Rejected events are
// never retried: malformed input will not become valid on a later attempt.
type RejectionError struct {
	Reason  models.RejectionReason
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("event rejected (%s): %s", e.Reason, e.Message)
}

func reject(reason models.RejectionReason, msg string) *RejectionError {
	return &RejectionError{Reason: reason, Message: msg}
}

// Validator applies the fixed-order validation checks.
type Validator struct {
	skewTolerance time.Duration
	now           func() time.Time
}

// Option customizes a Validator.
type Option func(*Validator)

// WithSkewTolerance overrides the future-timestamp tolerance.
func WithSkewTolerance(d time.Duration) Option {
	return func(v *Validator) { v.skewTolerance = d }
}

// WithClock overrides the clock, used by tests for determinism.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// New constructs a Validator with the default tolerance and wall clock.
func New(opts ...Option) *Validator {
	v := &Validator{
		skewTolerance: DefaultClockSkewTolerance,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs the checks in fixed order; the first failing check decides
// the rejection reason so that reason metrics stay deterministic when an
// event violates several rules at once.
//
//  1. deviceId present
//  2. timestamp present
//  3. deviceId pattern
//  4. timestamp canonical ISO8601
//  5. timestamp not beyond the skew tolerance
func (v *Validator) Validate(raw models.RawEvent) (models.ValidatedEvent, error) {
	if raw.DeviceID == "" {
		return models.ValidatedEvent{}, reject(models.MissingDeviceID, "deviceId is required")
	}
	if raw.Timestamp == "" {
		return models.ValidatedEvent{}, reject(models.MissingTimestamp, "timestamp is required")
	}
	if !deviceIDPattern.MatchString(raw.DeviceID) {
		return models.ValidatedEvent{}, reject(models.InvalidDeviceIDFormat,
			"deviceId must match ^[A-Za-z0-9_-]+$")
	}

	ts, err := time.Parse(models.CanonicalTimeLayout, raw.Timestamp)
	if err != nil || models.FormatInstant(ts) != raw.Timestamp {
		return models.ValidatedEvent{}, reject(models.InvalidTimestampFormat,
			"timestamp must be a canonical ISO8601 instant (e.g. 2024-01-15T10:30:00.000Z)")
	}

	if ts.After(v.now().Add(v.skewTolerance)) {
		return models.ValidatedEvent{}, reject(models.FutureTimestamp,
			fmt.Sprintf("timestamp is more than %s in the future", v.skewTolerance))
	}

	return models.ValidatedEvent{
		DeviceID:     raw.DeviceID,
		Timestamp:    ts.UTC(),
		TimestampRaw: raw.Timestamp,
		Data:         raw.Data,
	}, nil
}
