package logging

import (
	"context"
	"log/slog"

	"voiceforge-desktop/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldMethod is the standardized key for remote method names.
	FieldMethod = "method"
	// FieldSignal is the standardized key for subscribed signal members.
	FieldSignal = "signal"
	// FieldEvent is the standardized key for local event names.
	FieldEvent = "event"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step when something fails.
	FieldErrorHint = "error_hint"
	// FieldImpact says what stops working when an operation degrades.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	if method, ok := services.MethodFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldMethod, method))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
