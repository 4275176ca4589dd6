package logging

import (
	"log/slog"
	"time"
)

// Common field names for consistent logging across the service.
const (
	FieldService  = "service"
	FieldDeviceID = "device_id"
	FieldRecordID = "record_id"
	FieldReason   = "reason"
	FieldAttempt  = "attempt"
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldStatus   = "status"
	FieldDuration = "duration_ms"
	FieldError    = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// DeviceID returns a slog attribute for the charger id.
func DeviceID(id string) slog.Attr {
	return slog.String(FieldDeviceID, id)
}

// RecordID returns a slog attribute for the generated record id.
func RecordID(id string) slog.Attr {
	return slog.String(FieldRecordID, id)
}

// Reason returns a slog attribute for a rejection reason.
func Reason(reason string) slog.Attr {
	return slog.String(FieldReason, reason)
}

// Attempt returns a slog attribute for a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(FieldAttempt, n)
}

// Err returns a slog attribute for an error.
func Err(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// Method returns a slog attribute for an HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for an HTTP request path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Status returns a slog attribute for an HTTP response status.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration returns a slog attribute for an elapsed time in milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Int64(FieldDuration, d.Milliseconds())
}
