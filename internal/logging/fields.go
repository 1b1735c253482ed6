package logging

import (
	"context"
	"log/slog"

	"taxonid/internal/services"
)

// Structured keys shared by every component.
const (
	FieldComponent     = "component"
	FieldObservationID = "observation_id"
	FieldUserID        = "user_id"
	FieldCorrelationID = "correlation_id"

	// FieldEvent names the identification event being applied.
	FieldEvent = "event"
	// FieldEventType classifies warnings for filtering; it is not the
	// identification event.
	FieldEventType    = "event_type"
	FieldDecisionType = "decision_type"
	FieldGrade        = "grade"
	FieldConfidence   = "confidence"
	FieldErrorHint    = "error_hint"
	// FieldImpact describes what the operator loses when a warning fires.
	FieldImpact = "impact"
)

// ContextFields returns the observation, user and correlation ids carried by ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if id, ok := services.ObservationIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldObservationID, id))
	}
	if user, ok := services.UserIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldUserID, user))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext binds the ids carried by ctx to logger. A nil logger yields a
// discarding one.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
