package tracing

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestSetup_InstallsSampledProvider(t *testing.T) {
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	tp := Setup(1)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	assert.True(t, span.SpanContext().IsSampled())

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	assert.NotEmpty(t, carrier.Get("traceparent"))
}

func TestSetup_ZeroRatioFollowsParent(t *testing.T) {
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	tp := Setup(0)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, root := otel.Tracer("test").Start(context.Background(), "root")
	root.End()
	assert.False(t, root.SpanContext().IsSampled())

	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01},
		SpanID:     trace.SpanID{0x02},
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	_, child := otel.Tracer("test").Start(trace.ContextWithRemoteSpanContext(context.Background(), parent), "child")
	child.End()
	assert.True(t, child.SpanContext().IsSampled())
	assert.Equal(t, parent.TraceID(), child.SpanContext().TraceID())
}

func TestLogAttrs(t *testing.T) {
	assert.Nil(t, LogAttrs(context.Background()))

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{0xaa},
		SpanID:  trace.SpanID{0xbb},
	})
	attrs := LogAttrs(trace.ContextWithSpanContext(context.Background(), sc))
	require.Len(t, attrs, 2)
	assert.Equal(t, slog.String("trace_id", sc.TraceID().String()), attrs[0])
	assert.Equal(t, slog.String("span_id", sc.SpanID().String()), attrs[1])
}
