// Package saga holds the step abstraction shared by the order service's saga
// coordinators.
//
// There is no separate saga-instance record: the order's own status is the
// saga state. Each step reacts to one response message and either moves the
// saga forward (Process) or unwinds it (Rollback). Both must tolerate
// redelivery of the same message.
package saga

import (
	"context"

	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
)

// Step is one saga participant, driven by response messages of type T.
type Step[T any] interface {
	Process(ctx context.Context, data T) error
	Rollback(ctx context.Context, data T) error
}

// Status is the saga's lifecycle, derived from the order status.
type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusProcessing   Status = "PROCESSING"
	StatusSucceeded    Status = "SUCCEEDED"
	StatusCompensating Status = "COMPENSATING"
	StatusCompensated  Status = "COMPENSATED"
)

// StatusFor maps an order status to the saga status it represents.
func StatusFor(s domain.OrderStatus) Status {
	switch s {
	case domain.OrderStatusPaid:
		return StatusProcessing
	case domain.OrderStatusApproved:
		return StatusSucceeded
	case domain.OrderStatusCancelling:
		return StatusCompensating
	case domain.OrderStatusCancelled:
		return StatusCompensated
	default:
		return StatusStarted
	}
}
