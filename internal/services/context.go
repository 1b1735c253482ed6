package services

import "context"

type contextKey int

const (
	observationIDKey contextKey = iota
	userIDKey
	requestIDKey
)

// WithObservationID tags ctx with the observation being evaluated. Blank ids
// leave ctx untouched.
func WithObservationID(ctx context.Context, id string) context.Context {
	return withString(ctx, observationIDKey, id)
}

// ObservationIDFromContext returns the observation id set by WithObservationID.
func ObservationIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, observationIDKey)
}

// WithUserID tags ctx with the acting user.
func WithUserID(ctx context.Context, id string) context.Context {
	return withString(ctx, userIDKey, id)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, userIDKey)
}

// WithRequestID tags ctx with a correlation id, one per CLI invocation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, requestIDKey)
}

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}
