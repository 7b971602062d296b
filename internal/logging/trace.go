package logging

import (
	"context"

	"github.com/oklog/ulid/v2"
)

type contextKey string

const traceIDKey contextKey = "trace_id"

// NewTraceID returns a fresh, time-ordered trace identifier.
func NewTraceID() string {
	return ulid.Make().String()
}

// ContextWithTraceID stores traceID in ctx and tags the context logger with it.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	ctx = context.WithValue(ctx, traceIDKey, traceID)
	l := FromContext(ctx).With().Str("trace_id", traceID).Logger()
	return l.WithContext(ctx)
}

// TraceIDFromContext returns the trace ID in ctx, or "".
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

// GetOrGenerateTraceID returns the trace ID already in ctx or generates a new one.
func GetOrGenerateTraceID(ctx context.Context) string {
	if id := TraceIDFromContext(ctx); id != "" {
		return id
	}
	return NewTraceID()
}
