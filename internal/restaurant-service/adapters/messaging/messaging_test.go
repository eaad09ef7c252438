package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/messaging"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/outbox"
	"github.com/jcmexdev/food-ordering-sagas/internal/restaurant-service/app"
	"github.com/jcmexdev/food-ordering-sagas/internal/restaurant-service/domain"
)

type appendOnlyStore struct {
	outbox.Store
	appended []outbox.Message
}

func (s *appendOnlyStore) Append(_ context.Context, msg outbox.Message) error {
	s.appended = append(s.appended, msg)
	return nil
}

func TestOutboxPublisher_PublishApprovalResponse(t *testing.T) {
	store := &appendOnlyStore{}
	pub := NewOutboxPublisher(store, "restaurant-approval-response")
	approval := domain.OrderApproval{
		ID:           common.NewID[common.OrderApprovalID](),
		RestaurantID: common.NewID[common.RestaurantID](),
		OrderID:      common.NewID[common.OrderID](),
		Status:       common.OrderApprovalStatusRejected,
	}
	evt := domain.OrderRejectedEvent{
		OrderApproval:   approval,
		CreatedAt:       time.Now().UTC(),
		FailureMessages: []string{"Restaurant is closed"},
	}

	require.NoError(t, pub.PublishApprovalResponse(context.Background(), common.SagaID{}, evt))

	require.Len(t, store.appended, 1)
	msg := store.appended[0]
	assert.Equal(t, "restaurant-approval-response", msg.Topic)
	assert.Equal(t, approval.OrderID.String(), msg.Key)
	assert.Empty(t, msg.SagaID)

	resp, err := messaging.Decode[messaging.RestaurantApprovalResponse](messaging.Message{Value: msg.Payload})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", resp.OrderApprovalStatus)
	assert.Equal(t, approval.RestaurantID.String(), resp.RestaurantID)
	assert.Equal(t, []string{"Restaurant is closed"}, resp.FailureMessages)
}

type listener struct{ got []app.RestaurantApprovalRequest }

func (l *listener) Handle(_ context.Context, req app.RestaurantApprovalRequest) error {
	l.got = append(l.got, req)
	return nil
}

func TestRestaurantApprovalRequestHandler(t *testing.T) {
	l := &listener{}
	h := NewRestaurantApprovalRequestHandler(l)
	productID := common.NewID[common.ProductID]()
	in := messaging.RestaurantApprovalRequest{
		ID:                    "req-1",
		SagaID:                common.NewID[common.SagaID]().String(),
		RestaurantID:          common.NewID[common.RestaurantID]().String(),
		OrderID:               common.NewID[common.OrderID]().String(),
		RestaurantOrderStatus: "PAID",
		Products:              []messaging.Product{{ID: productID.String(), Quantity: 3}},
		Price:                 decimal.RequireFromString("75.00"),
	}
	b, err := messaging.Encode(in)
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), messaging.Message{Value: b}))

	require.Len(t, l.got, 1)
	assert.Equal(t, common.RestaurantOrderStatusPaid, l.got[0].RestaurantOrderStatus)
	assert.Equal(t, []app.Product{{ID: productID, Quantity: 3}}, l.got[0].Products)
	assert.Equal(t, in.OrderID, l.got[0].OrderID.String())
	assert.Equal(t, "75.00", l.got[0].Price.String())
}

func TestRestaurantApprovalRequestHandler_Undecodable(t *testing.T) {
	l := &listener{}
	h := NewRestaurantApprovalRequestHandler(l)

	bad := []string{
		`not json`,
		`{"order_id":"` + common.NewID[common.OrderID]().String() + `","restaurant_id":"nope"}`,
	}
	for _, raw := range bad {
		err := h.Handle(context.Background(), messaging.Message{Value: []byte(raw)})
		assert.ErrorIs(t, err, messaging.ErrUndecodable, raw)
	}
	assert.Empty(t, l.got)
}
