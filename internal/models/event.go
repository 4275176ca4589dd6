package models

import "time"

// CanonicalTimeLayout is the only accepted wire form for event timestamps:
// UTC, millisecond precision, Z suffix. Lexicographic order of canonical
// strings equals chronological order, which the latest-by-device query
// depends on.
const CanonicalTimeLayout = "2006-01-02T15:04:05.000Z"

// RawEvent is the untrusted intake payload as posted by a charger. Any field
// may be absent or malformed.
type RawEvent struct {
	DeviceID  string         `json:"deviceId"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// ValidatedEvent is produced only by the validator. Timestamp carries the
// parsed instant; TimestampRaw keeps the canonical string form used as the
// store sort key. Data passes through untouched.
type ValidatedEvent struct {
	DeviceID     string         `json:"deviceId"`
	Timestamp    time.Time      `json:"-"`
	TimestampRaw string         `json:"timestamp"`
	Data         map[string]any `json:"data,omitempty"`
}

// ProcessedRecord is a ValidatedEvent enriched with a generated identity and
// timing metadata. RecordID is fresh per enrichment, never derived from the
// input, so re-ingestion of the same raw event yields a new record.
type ProcessedRecord struct {
	RecordID     string
	DeviceID     string
	Timestamp    time.Time
	TimestampRaw string
	Data         map[string]any
	ReceivedAt   time.Time
	ProcessedAt  time.Time
}

// RecordMetadata groups the pipeline-generated instants of a stored record.
type RecordMetadata struct {
	ReceivedAt  string `json:"receivedAt"`
	ProcessedAt string `json:"processedAt"`
}

// StoredRecord is the durable wire form of a ProcessedRecord: all instants
// serialized to canonical ISO8601 and an expiry stamp attached. TTL is unix
// seconds after which the store may delete the item.
type StoredRecord struct {
	RecordID  string         `json:"recordId"`
	DeviceID  string         `json:"deviceId"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
	Metadata  RecordMetadata `json:"metadata"`
	TTL       int64          `json:"ttl"`
}

// FormatInstant renders an instant in the canonical wire form.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(CanonicalTimeLayout)
}

// ToStored serializes the record's instants and stamps the expiry.
func (r ProcessedRecord) ToStored(expiresAt time.Time) StoredRecord {
	return StoredRecord{
		RecordID:  r.RecordID,
		DeviceID:  r.DeviceID,
		Timestamp: r.TimestampRaw,
		Data:      r.Data,
		Metadata: RecordMetadata{
			ReceivedAt:  FormatInstant(r.ReceivedAt),
			ProcessedAt: FormatInstant(r.ProcessedAt),
		},
		TTL: expiresAt.Unix(),
	}
}
