package propagation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	otelprop "go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestInjectExtract_RoundTrip(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(otelprop.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36},
		SpanID:     trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithRequestID(ctx, "req-42")

	headers := Inject(ctx)
	assert.Equal(t, "req-42", headers[HeaderXRequestId])
	assert.Contains(t, headers, "traceparent")

	restored := Extract(context.Background(), headers)
	assert.Equal(t, "req-42", RequestID(restored))
	got := trace.SpanContextFromContext(restored)
	assert.Equal(t, sc.TraceID(), got.TraceID())
	assert.True(t, got.IsRemote())
}

func TestContextValues_EmptyIsIgnored(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	ctx = WithIdempotencyKey(ctx, "")
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, IdempotencyKey(ctx))

	ctx = WithIdempotencyKey(ctx, "idem-1")
	assert.Equal(t, "idem-1", IdempotencyKey(ctx))
}
