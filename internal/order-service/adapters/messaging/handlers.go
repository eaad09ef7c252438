package messaging

import (
	"context"
	"fmt"

	"github.com/jcmexdev/food-ordering-sagas/internal/order-service/app"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/messaging"
)

type PaymentResponseListener interface {
	Handle(ctx context.Context, resp app.PaymentResponse) error
}

type RestaurantApprovalResponseListener interface {
	Handle(ctx context.Context, resp app.RestaurantApprovalResponse) error
}

// PaymentResponseHandler decodes payment responses for the listener. Its
// Handle method fits kafka.Handler.
type PaymentResponseHandler struct {
	listener PaymentResponseListener
}

func NewPaymentResponseHandler(listener PaymentResponseListener) *PaymentResponseHandler {
	return &PaymentResponseHandler{listener: listener}
}

func (h *PaymentResponseHandler) Handle(ctx context.Context, msg messaging.Message) error {
	in, err := messaging.Decode[messaging.PaymentResponse](msg)
	if err != nil {
		return err
	}

	resp := app.PaymentResponse{
		ID:              in.ID,
		Price:           common.NewMoney(in.Price),
		CreatedAt:       in.CreatedAt,
		PaymentStatus:   common.PaymentStatus(in.PaymentStatus),
		FailureMessages: in.FailureMessages,
	}
	if err := parseIDs(msg,
		idField(&resp.SagaID, "saga_id", in.SagaID, true),
		idField(&resp.OrderID, "order_id", in.OrderID, false),
		idField(&resp.PaymentID, "payment_id", in.PaymentID, true),
		idField(&resp.CustomerID, "customer_id", in.CustomerID, false),
	); err != nil {
		return err
	}
	return h.listener.Handle(ctx, resp)
}

type RestaurantApprovalResponseHandler struct {
	listener RestaurantApprovalResponseListener
}

func NewRestaurantApprovalResponseHandler(listener RestaurantApprovalResponseListener) *RestaurantApprovalResponseHandler {
	return &RestaurantApprovalResponseHandler{listener: listener}
}

func (h *RestaurantApprovalResponseHandler) Handle(ctx context.Context, msg messaging.Message) error {
	in, err := messaging.Decode[messaging.RestaurantApprovalResponse](msg)
	if err != nil {
		return err
	}

	resp := app.RestaurantApprovalResponse{
		ID:                  in.ID,
		CreatedAt:           in.CreatedAt,
		OrderApprovalStatus: common.OrderApprovalStatus(in.OrderApprovalStatus),
		FailureMessages:     in.FailureMessages,
	}
	if err := parseIDs(msg,
		idField(&resp.SagaID, "saga_id", in.SagaID, true),
		idField(&resp.OrderID, "order_id", in.OrderID, false),
		idField(&resp.RestaurantID, "restaurant_id", in.RestaurantID, true),
	); err != nil {
		return err
	}
	return h.listener.Handle(ctx, resp)
}

// idField parses one identifier of a decoded contract. An optional field may
// be empty and is then left as the zero id.
func idField[T ~[16]byte](dst *T, name, raw string, optional bool) func() error {
	return func() error {
		if raw == "" && optional {
			return nil
		}
		id, err := common.ParseID[T](raw)
		if err != nil {
			return fmt.Errorf("%s %q: %v", name, raw, err)
		}
		*dst = id
		return nil
	}
}

func parseIDs(msg messaging.Message, fields ...func() error) error {
	for _, parse := range fields {
		if err := parse(); err != nil {
			return fmt.Errorf("%w: %s at %s/%d@%d: %v", messaging.ErrUndecodable, msg.Key, msg.Topic, msg.Partition, msg.Offset, err)
		}
	}
	return nil
}
