package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridhawk-systems/charger-telemetry/internal/models"
	"github.com/gridhawk-systems/charger-telemetry/internal/store"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func recordFixture(deviceID, timestamp string) models.ProcessedRecord {
	ts, _ := time.Parse(models.CanonicalTimeLayout, timestamp)
	enrichedAt := time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC)
	return models.ProcessedRecord{
		RecordID:     "11111111-2222-3333-4444-555555555555",
		DeviceID:     deviceID,
		Timestamp:    ts,
		TimestampRaw: timestamp,
		Data:         map[string]any{"voltage": 240.5},
		ReceivedAt:   enrichedAt,
		ProcessedAt:  enrichedAt,
	}
}

func TestRedisStore_PutThenLatestRoundTrips(t *testing.T) {
	_, client := setupTestRedis(t)
	writeTime := time.Date(2024, 1, 15, 11, 0, 5, 0, time.UTC)
	s := store.NewRedisStore(client, store.WithClock(func() time.Time { return writeTime }))
	ctx := context.Background()

	record := recordFixture("CHG001", "2024-01-15T10:30:00.000Z")
	require.NoError(t, s.Put(ctx, record))

	got, err := s.Latest(ctx, "CHG001")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "CHG001", got.DeviceID)
	assert.Equal(t, "2024-01-15T10:30:00.000Z", got.Timestamp)
	assert.Equal(t, map[string]any{"voltage": 240.5}, got.Data)
	assert.Equal(t, record.RecordID, got.RecordID)
	assert.Equal(t, "2024-01-15T11:00:00.000Z", got.Metadata.ReceivedAt)
	assert.Equal(t, got.Metadata.ReceivedAt, got.Metadata.ProcessedAt)
	assert.Equal(t, writeTime.Add(store.DefaultRecordTTL).Unix(), got.TTL,
		"ttl must be write time plus the 90 day expiry")
}

func TestRedisStore_LatestReturnsGreatestTimestampRegardlessOfInsertionOrder(t *testing.T) {
	_, client := setupTestRedis(t)
	s := store.NewRedisStore(client)
	ctx := context.Background()

	// Out-of-order arrival: the newest timestamp lands in the middle.
	for _, ts := range []string{
		"2024-01-15T10:00:00.000Z",
		"2024-01-15T10:45:00.000Z",
		"2024-01-15T10:30:00.000Z",
	} {
		require.NoError(t, s.Put(ctx, recordFixture("CHG001", ts)))
	}

	got, err := s.Latest(ctx, "CHG001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2024-01-15T10:45:00.000Z", got.Timestamp)
}

func TestRedisStore_LatestUnknownDeviceIsAbsentNotError(t *testing.T) {
	_, client := setupTestRedis(t)
	s := store.NewRedisStore(client)

	got, err := s.Latest(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_RepeatedPutAppendsInsteadOfOverwriting(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := store.NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, recordFixture("CHG001", "2024-01-15T10:30:00.000Z")))
	require.NoError(t, s.Put(ctx, recordFixture("CHG001", "2024-01-15T10:31:00.000Z")))

	keys := mr.Keys()
	assert.Contains(t, keys, "telemetry:record:CHG001:2024-01-15T10:30:00.000Z")
	assert.Contains(t, keys, "telemetry:record:CHG001:2024-01-15T10:31:00.000Z")
}

func TestRedisStore_LatestSkipsExpiredRecordValues(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := store.NewRedisStore(client, store.WithRecordTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, recordFixture("CHG001", "2024-01-15T10:30:00.000Z")))
	require.NoError(t, s.Put(ctx, recordFixture("CHG001", "2024-01-15T10:45:00.000Z")))

	// Simulate the newest record's value expiring while its index entry
	// lingers.
	mr.Del("telemetry:record:CHG001:2024-01-15T10:45:00.000Z")

	got, err := s.Latest(ctx, "CHG001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2024-01-15T10:30:00.000Z", got.Timestamp)
}

func TestRedisStore_PutSetsRecordExpiry(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := store.NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, recordFixture("CHG001", "2024-01-15T10:30:00.000Z")))

	ttl := mr.TTL("telemetry:record:CHG001:2024-01-15T10:30:00.000Z")
	assert.Equal(t, store.DefaultRecordTTL, ttl)
}

func TestRedisStore_Describe(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := store.NewRedisStore(client)

	require.NoError(t, s.Describe(context.Background()))

	mr.Close()
	assert.Error(t, s.Describe(context.Background()))
}

func TestRedisStore_ErrorsAreStoreErrors(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := store.NewRedisStore(client)
	mr.Close()

	err := s.Put(context.Background(), recordFixture("CHG001", "2024-01-15T10:30:00.000Z"))
	require.Error(t, err)
	var storeErr *store.StoreError
	assert.ErrorAs(t, err, &storeErr)

	_, err = s.Latest(context.Background(), "CHG001")
	require.Error(t, err)
	assert.ErrorAs(t, err, &storeErr)
}
