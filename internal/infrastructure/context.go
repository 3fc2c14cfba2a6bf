package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	// TraceIDContextKey holds the request or span ID logged as trace_id
	TraceIDContextKey contextKey = "trace_id"
	// RunIDContextKey holds the ID of the merge run in progress
	RunIDContextKey contextKey = "run_id"
)

func stringValue(ctx context.Context, key contextKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

// WithTraceID stores the trace ID logged with every record of ctx
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID returns the trace ID of ctx, or ""
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDContextKey)
}

// NewRunID returns a fresh identifier for one merge run
func NewRunID() string {
	return uuid.NewString()
}

// WithRunID stores the merge run ID in the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDContextKey, runID)
}

// GetRunID returns the merge run ID of ctx, or ""
func GetRunID(ctx context.Context) string {
	return stringValue(ctx, RunIDContextKey)
}
