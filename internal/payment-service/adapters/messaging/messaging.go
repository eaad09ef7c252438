// Package messaging connects the payment service to the saga topics.
package messaging

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jcmexdev/food-ordering-sagas/internal/payment-service/app"
	"github.com/jcmexdev/food-ordering-sagas/internal/payment-service/domain"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/messaging"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/outbox"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/propagation"
)

type OutboxPublisher struct {
	store outbox.Store
	topic string
}

func NewOutboxPublisher(store outbox.Store, paymentResponseTopic string) *OutboxPublisher {
	return &OutboxPublisher{store: store, topic: paymentResponseTopic}
}

// PublishPaymentResponse queues the response keyed by order id, echoing the
// request's saga id.
func (p *OutboxPublisher) PublishPaymentResponse(ctx context.Context, sagaID common.SagaID, evt domain.PaymentEvent) error {
	payment := evt.Snapshot()
	resp := messaging.PaymentResponse{
		ID:              uuid.NewString(),
		SagaID:          sagaIDString(sagaID),
		PaymentID:       payment.ID.String(),
		CustomerID:      payment.CustomerID.String(),
		OrderID:         payment.OrderID.String(),
		Price:           payment.Price.Amount(),
		PaymentStatus:   string(payment.Status),
		FailureMessages: []string{},
	}
	switch e := evt.(type) {
	case domain.PaymentCompletedEvent:
		resp.CreatedAt = e.CreatedAt
	case domain.PaymentCancelledEvent:
		resp.CreatedAt = e.CreatedAt
	case domain.PaymentFailedEvent:
		resp.CreatedAt = e.CreatedAt
		resp.FailureMessages = e.FailureMessages
	}

	payload, err := messaging.Encode(resp)
	if err != nil {
		return err
	}
	msg := outbox.NewMessage(p.topic, resp.OrderID, messaging.TypePaymentResponse, resp.SagaID, payload, propagation.Inject(ctx))
	if err := p.store.Append(ctx, msg); err != nil {
		return fmt.Errorf("publish payment response for order %s: %w", resp.OrderID, err)
	}
	return nil
}

type PaymentRequestListener interface {
	Handle(ctx context.Context, req app.PaymentRequest) error
}

// PaymentRequestHandler decodes payment requests for the listener. Its Handle
// method fits kafka.Handler.
type PaymentRequestHandler struct {
	listener PaymentRequestListener
}

func NewPaymentRequestHandler(listener PaymentRequestListener) *PaymentRequestHandler {
	return &PaymentRequestHandler{listener: listener}
}

func (h *PaymentRequestHandler) Handle(ctx context.Context, msg messaging.Message) error {
	in, err := messaging.Decode[messaging.PaymentRequest](msg)
	if err != nil {
		return err
	}

	req := app.PaymentRequest{
		ID:                 in.ID,
		Price:              common.NewMoney(in.Price),
		CreatedAt:          in.CreatedAt,
		PaymentOrderStatus: common.PaymentOrderStatus(in.PaymentOrderStatus),
	}
	if in.SagaID != "" {
		if req.SagaID, err = common.ParseID[common.SagaID](in.SagaID); err != nil {
			return undecodable(msg, "saga_id", err)
		}
	}
	if req.OrderID, err = common.ParseID[common.OrderID](in.OrderID); err != nil {
		return undecodable(msg, "order_id", err)
	}
	if req.CustomerID, err = common.ParseID[common.CustomerID](in.CustomerID); err != nil {
		return undecodable(msg, "customer_id", err)
	}
	return h.listener.Handle(ctx, req)
}

func sagaIDString(id common.SagaID) string {
	if common.IsZeroID(id) {
		return ""
	}
	return id.String()
}

func undecodable(msg messaging.Message, field string, err error) error {
	return fmt.Errorf("%w: %s at %s/%d@%d: %s: %v", messaging.ErrUndecodable, msg.Key, msg.Topic, msg.Partition, msg.Offset, field, err)
}
