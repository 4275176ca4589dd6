package metrics

import "log/slog"

// Emit runs a metric update as a best-effort side channel: any panic from
// the instrumentation path is logged and discarded so that an observability
// failure never fails the primary operation.
func Emit(update func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("metric emission failed", slog.Any("panic", r))
		}
	}()
	update()
}
