// Package messaging connects the order service to the saga topics: it records
// outgoing requests in the outbox and turns incoming responses into listener
// calls.
package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/food-ordering-sagas/internal/order-service/domain"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/messaging"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/outbox"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/propagation"
)

// OutboxPublisher implements the order service's publisher ports by appending
// to the outbox inside the caller's transaction.
type OutboxPublisher struct {
	store                          outbox.Store
	paymentRequestTopic            string
	restaurantApprovalRequestTopic string
}

func NewOutboxPublisher(store outbox.Store, paymentRequestTopic, restaurantApprovalRequestTopic string) *OutboxPublisher {
	return &OutboxPublisher{
		store:                          store,
		paymentRequestTopic:            paymentRequestTopic,
		restaurantApprovalRequestTopic: restaurantApprovalRequestTopic,
	}
}

func (p *OutboxPublisher) PublishOrderCreated(ctx context.Context, evt domain.OrderCreatedEvent) error {
	req := paymentRequest(evt.Order, evt.CreatedAt, common.PaymentOrderStatusPending)
	return p.append(ctx, p.paymentRequestTopic, messaging.TypePaymentRequest, evt.Order, req)
}

func (p *OutboxPublisher) PublishOrderCancelled(ctx context.Context, evt domain.OrderCancelledEvent) error {
	req := paymentRequest(evt.Order, evt.CreatedAt, common.PaymentOrderStatusCancelled)
	return p.append(ctx, p.paymentRequestTopic, messaging.TypePaymentRequest, evt.Order, req)
}

func (p *OutboxPublisher) PublishOrderPaid(ctx context.Context, evt domain.OrderPaidEvent) error {
	products := make([]messaging.Product, 0, len(evt.Order.Items))
	for _, item := range evt.Order.Items {
		products = append(products, messaging.Product{ID: item.Product.ID.String(), Quantity: item.Quantity})
	}
	req := messaging.RestaurantApprovalRequest{
		ID:                    uuid.NewString(),
		SagaID:                evt.Order.SagaID.String(),
		RestaurantID:          evt.Order.RestaurantID.String(),
		OrderID:               evt.Order.ID.String(),
		RestaurantOrderStatus: string(common.RestaurantOrderStatusPaid),
		Products:              products,
		Price:                 evt.Order.Price.Amount(),
		CreatedAt:             evt.CreatedAt,
	}
	return p.append(ctx, p.restaurantApprovalRequestTopic, messaging.TypeRestaurantApprovalRequest, evt.Order, req)
}

func (p *OutboxPublisher) append(ctx context.Context, topic, msgType string, order domain.OrderState, v any) error {
	payload, err := messaging.Encode(v)
	if err != nil {
		return err
	}
	msg := outbox.NewMessage(topic, order.ID.String(), msgType, order.SagaID.String(), payload, propagation.Inject(ctx))
	if err := p.store.Append(ctx, msg); err != nil {
		return fmt.Errorf("publish %s for order %s: %w", msgType, order.ID, err)
	}
	return nil
}

func paymentRequest(order domain.OrderState, createdAt time.Time, status common.PaymentOrderStatus) messaging.PaymentRequest {
	return messaging.PaymentRequest{
		ID:                 uuid.NewString(),
		SagaID:             order.SagaID.String(),
		CustomerID:         order.CustomerID.String(),
		OrderID:            order.ID.String(),
		Price:              order.Price.Amount(),
		CreatedAt:          createdAt,
		PaymentOrderStatus: string(status),
	}
}
