package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gridhawk-systems/charger-telemetry/internal/models"
)

const (
	recordKeyPrefix = "telemetry:record:"
	indexKeyPrefix  = "telemetry:index:"

	// latestScanLimit bounds how many index members Latest inspects when
	// pruning entries whose record value already expired.
	latestScanLimit = 16
)

// RedisStore persists records in Redis: one JSON value per record with a
// native TTL, plus a per-device sorted set indexing timestamps
// lexicographically so the newest record is the last member.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// RedisOption customizes a RedisStore.
type RedisOption func(*RedisStore)

// WithRecordTTL overrides the record expiry duration.
func WithRecordTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// WithClock overrides the clock used for expiry stamping, for tests.
func WithClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) { s.now = now }
}

// NewRedisStore wraps an existing client. The client is constructed once at
// process start and injected; the store does not own its lifecycle.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		ttl:    DefaultRecordTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func recordKey(deviceID, timestamp string) string {
	return recordKeyPrefix + deviceID + ":" + timestamp
}

func indexKey(deviceID string) string {
	return indexKeyPrefix + deviceID
}

// Put serializes the record with an expiresAt of now + ttl and appends it.
// The device index expires alongside the newest record it references.
func (s *RedisStore) Put(ctx context.Context, record models.ProcessedRecord) error {
	stored := record.ToStored(s.now().Add(s.ttl))

	data, err := json.Marshal(stored)
	if err != nil {
		return storeErr("put", fmt.Errorf("marshal record: %w", err))
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, recordKey(stored.DeviceID, stored.Timestamp), data, s.ttl)
	pipe.ZAdd(ctx, indexKey(stored.DeviceID), redis.Z{Score: 0, Member: stored.Timestamp})
	pipe.Expire(ctx, indexKey(stored.DeviceID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return storeErr("put", err)
	}
	return nil
}

// Latest walks the device index from the lexicographically greatest
// timestamp down. Index members can outlive their record value when the
// value's TTL fires first; those members are pruned on the way past.
func (s *RedisStore) Latest(ctx context.Context, deviceID string) (*models.StoredRecord, error) {
	timestamps, err := s.client.ZRevRangeByLex(ctx, indexKey(deviceID), &redis.ZRangeBy{
		Min:   "-",
		Max:   "+",
		Count: latestScanLimit,
	}).Result()
	if err != nil {
		return nil, storeErr("latest", err)
	}

	for _, ts := range timestamps {
		data, err := s.client.Get(ctx, recordKey(deviceID, ts)).Bytes()
		if errors.Is(err, redis.Nil) {
			s.client.ZRem(ctx, indexKey(deviceID), ts)
			continue
		}
		if err != nil {
			return nil, storeErr("latest", err)
		}

		var record models.StoredRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, storeErr("latest", fmt.Errorf("unmarshal record: %w", err))
		}
		return &record, nil
	}

	return nil, nil
}

// Describe pings the store to confirm it is reachable and ready.
func (s *RedisStore) Describe(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return storeErr("describe", err)
	}
	return nil
}
