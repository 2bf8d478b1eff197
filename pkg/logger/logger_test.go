package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appctx "stockroom/internal/core/context"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &Logger{zap.New(core).Sugar()}, logs
}

func TestFromContext_AddsTraceFields(t *testing.T) {
	l, logs := observed()
	ctx := WithLogger(context.Background(), l)
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})

	Info(ctx, "reconciled", "inventory_id", "inv-1")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "inv-1", fields["inventory_id"])
	assert.NotContains(t, fields, "span_id")
}

func TestWithComponent(t *testing.T) {
	l, logs := observed()

	l.WithComponent("outbox_relay").Warnw("publish failed")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "outbox_relay", logs.All()[0].ContextMap()["component"])
}

func TestWithContext_PrefersActiveSpan(t *testing.T) {
	l, logs := observed()
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1},
		SpanID:  trace.SpanID{0xab},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1", SpanID: "fallback"})

	l.WithContext(ctx).Infow("inventory locked")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "ab00000000000000", logs.All()[0].ContextMap()["span_id"])
}

func TestWithContext_NoTraceKeepsLogger(t *testing.T) {
	l, _ := observed()

	assert.Same(t, l, l.WithContext(context.Background()))
}
