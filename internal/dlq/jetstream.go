package dlq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// StreamName is the JetStream stream holding dead-lettered telemetry.
	StreamName = "TELEMETRY_DLQ"

	// Subject carries dead-lettered events inside the stream.
	Subject = "telemetry.dlq.store_failure"

	subjectFilter = "telemetry.dlq.>"
)

// JetStreamQueue writes failed events to NATS JetStream. Safe for use across
// multiple service instances.
type JetStreamQueue struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
}

// NewJetStreamQueue connects to NATS and creates or updates the DLQ stream.
func NewJetStreamQueue(ctx context.Context, url string) (*JetStreamQueue, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{subjectFilter},
		MaxAge:    30 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create dlq stream: %w", err)
	}

	slog.Info("dead-letter queue ready", slog.String("stream", StreamName))

	return &JetStreamQueue{conn: conn, js: js, stream: stream}, nil
}

// Publish appends the failed event to the stream.
func (q *JetStreamQueue) Publish(ctx context.Context, failed FailedEvent) error {
	data, err := json.Marshal(failed)
	if err != nil {
		return fmt.Errorf("marshal dlq entry: %w", err)
	}

	if _, err := q.js.Publish(ctx, Subject, data); err != nil {
		return fmt.Errorf("publish dlq entry: %w", err)
	}

	return nil
}

// Depth reports the stream's message count.
func (q *JetStreamQueue) Depth(ctx context.Context) (int64, error) {
	info, err := q.stream.Info(ctx)
	if err != nil {
		return 0, fmt.Errorf("dlq stream info: %w", err)
	}
	return int64(info.State.Msgs), nil
}

// List fetches up to limit dead-lettered events for inspection.
func (q *JetStreamQueue) List(ctx context.Context, limit int) ([]FailedEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	consumer, err := q.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: subjectFilter,
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		MaxDeliver:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("create list consumer: %w", err)
	}

	msgs, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("fetch dlq messages: %w", err)
	}

	var events []FailedEvent
	for msg := range msgs.Messages() {
		var failed FailedEvent
		if err := json.Unmarshal(msg.Data(), &failed); err != nil {
			slog.Warn("skipping unparseable dlq entry", slog.String("error", err.Error()))
			continue
		}
		events = append(events, failed)
	}

	return events, nil
}

// Close drains the NATS connection.
func (q *JetStreamQueue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}
