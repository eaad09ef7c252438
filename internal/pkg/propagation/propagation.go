// Package propagation moves request-scoped metadata (request id, idempotency
// key, W3C trace context) between HTTP requests, contexts and message headers.
package propagation

import (
	"context"

	"go.opentelemetry.io/otel"
	otelprop "go.opentelemetry.io/otel/propagation"
)

// contextKey is an unexported type for context keys in this package.
// Using a custom type prevents collisions with keys from other packages
// that might use the same underlying string value.
type contextKey string

const (
	HeaderXRequestId      = "x-request-id"
	HeaderXIdempotencyKey = "x-idempotency-key"
	HeaderMessageType     = "x-message-type"
	HeaderSagaID          = "x-saga-id"

	ContextKeyRequestID      contextKey = HeaderXRequestId
	ContextKeyIdempotencyKey contextKey = HeaderXIdempotencyKey
)

func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ContextKeyRequestID, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}

func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, ContextKeyIdempotencyKey, key)
}

func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(ContextKeyIdempotencyKey).(string)
	return key
}

// Inject returns the headers that carry ctx's request id and trace context to
// the next hop.
func Inject(ctx context.Context) map[string]string {
	headers := map[string]string{}
	if id := RequestID(ctx); id != "" {
		headers[HeaderXRequestId] = id
	}
	otel.GetTextMapPropagator().Inject(ctx, otelprop.MapCarrier(headers))
	return headers
}

// Extract is the inverse of Inject: it restores the remote span context and
// request id found in headers onto ctx.
func Extract(ctx context.Context, headers map[string]string) context.Context {
	ctx = otel.GetTextMapPropagator().Extract(ctx, otelprop.MapCarrier(headers))
	return WithRequestID(ctx, headers[HeaderXRequestId])
}
