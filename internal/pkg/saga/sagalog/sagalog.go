// Package sagalog is a durable audit trail of every transition an order saga
// goes through. Each entry records the step that ran, the resulting saga
// status and the W3C trace that carried it, so a row can be joined with its
// distributed trace.
package sagalog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/saga"
)

// Step names recorded in the log.
const (
	StepOrderCreated     = "order_created"
	StepPaymentCompleted = "payment_completed"
	StepPaymentCancelled = "payment_cancelled"
	StepApproved         = "restaurant_approved"
	StepRejected         = "restaurant_rejected"
)

// Entry is a single, immutable row of the log.
type Entry struct {
	SagaID      string
	OrderID     string
	Status      saga.Status
	OrderStatus domain.OrderStatus
	Step        string
	// Payload is the JSON message that triggered the step, when there is one.
	Payload         string
	FailureMessages []string
	TraceID         string
	SpanID          string
	CreatedAt       time.Time
}

// Repository persists entries. Save must join the caller's transaction.
type Repository interface {
	Save(ctx context.Context, entry Entry) error
	List(ctx context.Context, sagaID string) ([]Entry, error)
	GetLatest(ctx context.Context, sagaID string) (Entry, error)
}

// TraceInfo holds the OTel identifiers found in a context.
type TraceInfo struct {
	TraceID string
	SpanID  string
}

// ExtractTraceInfo returns the active span's ids, or zero values when ctx
// carries no valid span.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewEntry builds an entry stamped with the trace found in ctx.
//
//	entry := sagalog.NewEntry(ctx, sagaID, orderID, order.Status(), sagalog.StepPaymentCompleted, payload, nil)
func NewEntry(ctx context.Context, sagaID, orderID string, orderStatus domain.OrderStatus, step, payload string, failures []string) Entry {
	ti := ExtractTraceInfo(ctx)
	if failures == nil {
		failures = []string{}
	}
	return Entry{
		SagaID:          sagaID,
		OrderID:         orderID,
		Status:          saga.StatusFor(orderStatus),
		OrderStatus:     orderStatus,
		Step:            step,
		Payload:         payload,
		FailureMessages: failures,
		TraceID:         ti.TraceID,
		SpanID:          ti.SpanID,
		CreatedAt:       time.Now().UTC(),
	}
}
