package app

import (
	"context"

	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
)

// PaymentResponseListener routes payment responses to OrderPaymentSaga.
type PaymentResponseListener struct {
	saga *OrderPaymentSaga
}

func NewPaymentResponseListener(saga *OrderPaymentSaga) *PaymentResponseListener {
	return &PaymentResponseListener{saga: saga}
}

func (l *PaymentResponseListener) Handle(ctx context.Context, resp PaymentResponse) error {
	switch resp.PaymentStatus {
	case common.PaymentStatusCompleted:
		return l.PaymentCompleted(ctx, resp)
	case common.PaymentStatusCancelled, common.PaymentStatusFailed:
		return l.PaymentCancelled(ctx, resp)
	default:
		return common.NewError("Unknown payment status " + string(resp.PaymentStatus))
	}
}

func (l *PaymentResponseListener) PaymentCompleted(ctx context.Context, resp PaymentResponse) error {
	return l.saga.Process(ctx, resp)
}

func (l *PaymentResponseListener) PaymentCancelled(ctx context.Context, resp PaymentResponse) error {
	return l.saga.Rollback(ctx, resp)
}

// RestaurantApprovalResponseListener routes approval responses to
// OrderApprovalSaga.
type RestaurantApprovalResponseListener struct {
	saga *OrderApprovalSaga
}

func NewRestaurantApprovalResponseListener(saga *OrderApprovalSaga) *RestaurantApprovalResponseListener {
	return &RestaurantApprovalResponseListener{saga: saga}
}

func (l *RestaurantApprovalResponseListener) Handle(ctx context.Context, resp RestaurantApprovalResponse) error {
	switch resp.OrderApprovalStatus {
	case common.OrderApprovalStatusApproved:
		return l.OrderApproved(ctx, resp)
	case common.OrderApprovalStatusRejected:
		return l.OrderRejected(ctx, resp)
	default:
		return common.NewError("Unknown order approval status " + string(resp.OrderApprovalStatus))
	}
}

func (l *RestaurantApprovalResponseListener) OrderApproved(ctx context.Context, resp RestaurantApprovalResponse) error {
	return l.saga.Process(ctx, resp)
}

func (l *RestaurantApprovalResponseListener) OrderRejected(ctx context.Context, resp RestaurantApprovalResponse) error {
	return l.saga.Rollback(ctx, resp)
}
