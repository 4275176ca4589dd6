package enricher_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridhawk-systems/charger-telemetry/internal/enricher"
	"github.com/gridhawk-systems/charger-telemetry/internal/models"
)

func validatedFixture() models.ValidatedEvent {
	return models.ValidatedEvent{
		DeviceID:     "CHG001",
		Timestamp:    time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		TimestampRaw: "2024-01-15T10:30:00.000Z",
		Data:         map[string]any{"voltage": 240.5},
	}
}

func TestEnrich_GeneratesFreshRecordID(t *testing.T) {
	e := enricher.New()

	first := e.Enrich(validatedFixture())
	second := e.Enrich(validatedFixture())

	_, err := uuid.Parse(first.RecordID)
	require.NoError(t, err)
	assert.NotEqual(t, first.RecordID, second.RecordID,
		"identical input must still yield distinct record ids")
}

func TestEnrich_SingleClockReadForBothInstants(t *testing.T) {
	fixed := time.Date(2024, 1, 15, 10, 31, 0, 0, time.UTC)
	e := enricher.NewWithClock(func() time.Time { return fixed })

	record := e.Enrich(validatedFixture())

	assert.Equal(t, fixed, record.ReceivedAt)
	assert.Equal(t, record.ReceivedAt, record.ProcessedAt)
}

func TestEnrich_CarriesEventFieldsThrough(t *testing.T) {
	e := enricher.New()

	event := validatedFixture()
	record := e.Enrich(event)

	assert.Equal(t, event.DeviceID, record.DeviceID)
	assert.Equal(t, event.Timestamp, record.Timestamp)
	assert.Equal(t, event.TimestampRaw, record.TimestampRaw)
	assert.Equal(t, event.Data, record.Data)
}
