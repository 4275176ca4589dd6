package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridhawk-systems/charger-telemetry/internal/dlq"
	"github.com/gridhawk-systems/charger-telemetry/internal/enricher"
	"github.com/gridhawk-systems/charger-telemetry/internal/models"
	"github.com/gridhawk-systems/charger-telemetry/internal/pipeline"
	"github.com/gridhawk-systems/charger-telemetry/internal/service"
	"github.com/gridhawk-systems/charger-telemetry/internal/validator"
)

// flakyStore fails the first failUntil puts, then succeeds.
type flakyStore struct {
	failUntil int
	puts      int
}

func (f *flakyStore) Put(ctx context.Context, record models.ProcessedRecord) error {
	f.puts++
	if f.puts <= f.failUntil {
		return errors.New("store unreachable")
	}
	return nil
}

func (f *flakyStore) Latest(ctx context.Context, deviceID string) (*models.StoredRecord, error) {
	return nil, nil
}

func (f *flakyStore) Describe(ctx context.Context) error { return nil }

// captureQueue records published dead-letter entries.
type captureQueue struct {
	published  []dlq.FailedEvent
	publishErr error
}

func (c *captureQueue) Publish(ctx context.Context, failed dlq.FailedEvent) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, failed)
	return nil
}

func (c *captureQueue) Depth(ctx context.Context) (int64, error) {
	return int64(len(c.published)), nil
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }
}

func newProcessor(s *flakyStore, q dlq.Queue) *service.Processor {
	v := validator.New(validator.WithClock(fixedClock()))
	e := enricher.NewWithClock(fixedClock())
	pipe := pipeline.New(v, e, s)
	return service.NewProcessor(pipe, q, service.WithRetryDelay(time.Millisecond))
}

func rawFixture() models.RawEvent {
	return models.RawEvent{
		DeviceID:  "CHG001",
		Timestamp: "2024-01-15T10:30:00.000Z",
		Data:      map[string]any{"voltage": 240.5},
	}
}

func TestIngest_SucceedsFirstAttempt(t *testing.T) {
	s := &flakyStore{}
	q := &captureQueue{}
	p := newProcessor(s, q)

	record, err := p.Ingest(context.Background(), rawFixture())

	require.NoError(t, err)
	assert.NotEmpty(t, record.RecordID)
	assert.Equal(t, 1, s.puts)
	assert.Empty(t, q.published)
	assert.Equal(t, uint64(1), p.Snapshot().Processed)
}

func TestIngest_RecoversWithinRetryBudget(t *testing.T) {
	s := &flakyStore{failUntil: 2}
	q := &captureQueue{}
	p := newProcessor(s, q)

	_, err := p.Ingest(context.Background(), rawFixture())

	require.NoError(t, err)
	assert.Equal(t, 3, s.puts, "two failures then success within the three-attempt budget")
	assert.Empty(t, q.published)
}

func TestIngest_ExhaustedAttemptsDeadLetterLastPayload(t *testing.T) {
	s := &flakyStore{failUntil: 100}
	q := &captureQueue{}
	p := newProcessor(s, q)

	_, err := p.Ingest(context.Background(), rawFixture())

	require.Error(t, err)
	assert.True(t, pipeline.IsTransient(err))
	assert.Equal(t, 3, s.puts, "exactly three total attempts")

	require.Len(t, q.published, 1)
	entry := q.published[0]
	assert.Equal(t, "CHG001", entry.Event.DeviceID)
	assert.Equal(t, "2024-01-15T10:30:00.000Z", entry.Event.TimestampRaw)
	assert.Equal(t, 3, entry.Attempts)
	assert.Equal(t, uint64(1), p.Snapshot().Failed)
}

func TestIngest_RejectionIsNeverRetriedNorDeadLettered(t *testing.T) {
	s := &flakyStore{}
	q := &captureQueue{}
	p := newProcessor(s, q)

	_, err := p.Ingest(context.Background(), models.RawEvent{Timestamp: "2024-01-15T10:30:00.000Z"})

	require.Error(t, err)
	var rejection *validator.RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, models.MissingDeviceID, rejection.Reason)
	assert.Zero(t, s.puts)
	assert.Empty(t, q.published)
	assert.Equal(t, uint64(1), p.Snapshot().Rejected)
}

func TestIngest_NoDeadLetterConfiguredStillReturnsError(t *testing.T) {
	s := &flakyStore{failUntil: 100}
	p := newProcessor(s, nil)

	_, err := p.Ingest(context.Background(), rawFixture())

	require.Error(t, err)
	assert.True(t, pipeline.IsTransient(err))
}

func TestIngest_DeadLetterPublishFailureIsSwallowed(t *testing.T) {
	s := &flakyStore{failUntil: 100}
	q := &captureQueue{publishErr: errors.New("nats down")}
	p := newProcessor(s, q)

	_, err := p.Ingest(context.Background(), rawFixture())

	// The original storage failure is surfaced, not the DLQ error.
	require.Error(t, err)
	assert.True(t, pipeline.IsTransient(err))
}
