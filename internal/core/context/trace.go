// Package context carries request correlation ids through a call chain.
package context

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"stockroom/internal/core/id"
)

// TraceContext correlates the log lines, audit entries and spans of one
// request or one worker pass.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceContextKey struct{}

// WithTrace stores trace in ctx.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns the TraceContext of ctx, or nil.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns the request id of ctx or "".
// Audit entries are stamped with it.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// CurrentSpanID prefers the active otel span, so lines logged inside a
// transaction or reconcile span point at that span.
func CurrentSpanID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasSpanID() {
		return sc.SpanID().String()
	}
	if t := GetTrace(ctx); t != nil {
		return t.SpanID
	}
	return ""
}

// NewTraceContext creates a TraceContext with fresh time-ordered ids.
func NewTraceContext() *TraceContext {
	return &TraceContext{
		TraceID:   id.New().String(),
		SpanID:    strings.ReplaceAll(id.New().String(), "-", "")[16:],
		RequestID: id.New().String(),
	}
}
