// Package messaging connects the restaurant service to the approval topics.
package messaging

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/messaging"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/outbox"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/propagation"
	"github.com/jcmexdev/food-ordering-sagas/internal/restaurant-service/app"
	"github.com/jcmexdev/food-ordering-sagas/internal/restaurant-service/domain"
)

type OutboxPublisher struct {
	store outbox.Store
	topic string
}

func NewOutboxPublisher(store outbox.Store, approvalResponseTopic string) *OutboxPublisher {
	return &OutboxPublisher{store: store, topic: approvalResponseTopic}
}

func (p *OutboxPublisher) PublishApprovalResponse(ctx context.Context, sagaID common.SagaID, evt domain.OrderApprovalEvent) error {
	approval := evt.Approval()
	resp := messaging.RestaurantApprovalResponse{
		ID:                  uuid.NewString(),
		OrderID:             approval.OrderID.String(),
		RestaurantID:        approval.RestaurantID.String(),
		OrderApprovalStatus: string(approval.Status),
		FailureMessages:     []string{},
	}
	if !common.IsZeroID(sagaID) {
		resp.SagaID = sagaID.String()
	}
	switch e := evt.(type) {
	case domain.OrderApprovedEvent:
		resp.CreatedAt = e.CreatedAt
	case domain.OrderRejectedEvent:
		resp.CreatedAt = e.CreatedAt
		resp.FailureMessages = e.FailureMessages
	}

	payload, err := messaging.Encode(resp)
	if err != nil {
		return err
	}
	msg := outbox.NewMessage(p.topic, resp.OrderID, messaging.TypeRestaurantApprovalResponse, resp.SagaID, payload, propagation.Inject(ctx))
	if err := p.store.Append(ctx, msg); err != nil {
		return fmt.Errorf("publish approval response for order %s: %w", resp.OrderID, err)
	}
	return nil
}

type RestaurantApprovalRequestListener interface {
	Handle(ctx context.Context, req app.RestaurantApprovalRequest) error
}

// RestaurantApprovalRequestHandler fits kafka.Handler.
type RestaurantApprovalRequestHandler struct {
	listener RestaurantApprovalRequestListener
}

func NewRestaurantApprovalRequestHandler(listener RestaurantApprovalRequestListener) *RestaurantApprovalRequestHandler {
	return &RestaurantApprovalRequestHandler{listener: listener}
}

func (h *RestaurantApprovalRequestHandler) Handle(ctx context.Context, msg messaging.Message) error {
	in, err := messaging.Decode[messaging.RestaurantApprovalRequest](msg)
	if err != nil {
		return err
	}

	req := app.RestaurantApprovalRequest{
		ID:                    in.ID,
		RestaurantOrderStatus: common.RestaurantOrderStatus(in.RestaurantOrderStatus),
		Price:                 common.NewMoney(in.Price),
		CreatedAt:             in.CreatedAt,
		Products:              make([]app.Product, 0, len(in.Products)),
	}
	if in.SagaID != "" {
		if req.SagaID, err = common.ParseID[common.SagaID](in.SagaID); err != nil {
			return undecodable(msg, "saga_id", err)
		}
	}
	if req.OrderID, err = common.ParseID[common.OrderID](in.OrderID); err != nil {
		return undecodable(msg, "order_id", err)
	}
	if req.RestaurantID, err = common.ParseID[common.RestaurantID](in.RestaurantID); err != nil {
		return undecodable(msg, "restaurant_id", err)
	}
	for _, p := range in.Products {
		id, err := common.ParseID[common.ProductID](p.ID)
		if err != nil {
			return undecodable(msg, "products.id", err)
		}
		req.Products = append(req.Products, app.Product{ID: id, Quantity: p.Quantity})
	}
	return h.listener.Handle(ctx, req)
}

func undecodable(msg messaging.Message, field string, err error) error {
	return fmt.Errorf("%w: %s at %s/%d@%d: %s: %v", messaging.ErrUndecodable, msg.Key, msg.Topic, msg.Partition, msg.Offset, field, err)
}
