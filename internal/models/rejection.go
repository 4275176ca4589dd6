package models

// RejectionReason identifies why an inbound event failed validation. The
// values are stable: they label rejection metrics and appear in API error
// responses.
type RejectionReason string

const (
	MissingDeviceID        RejectionReason = "missing_device_id"
	MissingTimestamp       RejectionReason = "missing_timestamp"
	InvalidDeviceIDFormat  RejectionReason = "invalid_device_id_format"
	InvalidTimestampFormat RejectionReason = "invalid_timestamp_format"
	FutureTimestamp        RejectionReason = "future_timestamp"
)

// String returns the metric/API label for the reason.
func (r RejectionReason) String() string {
	return string(r)
}
