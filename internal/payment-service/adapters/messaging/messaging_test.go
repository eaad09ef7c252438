package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/food-ordering-sagas/internal/payment-service/app"
	"github.com/jcmexdev/food-ordering-sagas/internal/payment-service/domain"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/messaging"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/outbox"
)

type appendOnlyStore struct {
	outbox.Store
	appended []outbox.Message
}

func (s *appendOnlyStore) Append(_ context.Context, msg outbox.Message) error {
	s.appended = append(s.appended, msg)
	return nil
}

func paymentState(status common.PaymentStatus) domain.PaymentState {
	return domain.PaymentState{
		ID:         common.NewID[common.PaymentID](),
		OrderID:    common.NewID[common.OrderID](),
		CustomerID: common.NewID[common.CustomerID](),
		Price:      common.MustMoney("200.00"),
		Status:     status,
	}
}

func TestOutboxPublisher_PublishPaymentResponse(t *testing.T) {
	store := &appendOnlyStore{}
	pub := NewOutboxPublisher(store, "payment-response")
	sagaID := common.NewID[common.SagaID]()
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	completed := paymentState(common.PaymentStatusCompleted)
	failed := paymentState(common.PaymentStatusFailed)
	require.NoError(t, pub.PublishPaymentResponse(context.Background(), sagaID,
		domain.PaymentCompletedEvent{Payment: completed, CreatedAt: at}))
	require.NoError(t, pub.PublishPaymentResponse(context.Background(), sagaID,
		domain.PaymentFailedEvent{Payment: failed, CreatedAt: at, FailureMessages: []string{"no credit"}}))
	require.Len(t, store.appended, 2)

	msg := store.appended[0]
	assert.Equal(t, "payment-response", msg.Topic)
	assert.Equal(t, completed.OrderID.String(), msg.Key)
	assert.Equal(t, sagaID.String(), msg.SagaID)
	resp, err := messaging.Decode[messaging.PaymentResponse](messaging.Message{Value: msg.Payload})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", resp.PaymentStatus)
	assert.Equal(t, completed.ID.String(), resp.PaymentID)
	assert.Empty(t, resp.FailureMessages)
	assert.True(t, at.Equal(resp.CreatedAt))

	resp, err = messaging.Decode[messaging.PaymentResponse](messaging.Message{Value: store.appended[1].Payload})
	require.NoError(t, err)
	assert.Equal(t, "FAILED", resp.PaymentStatus)
	assert.Equal(t, []string{"no credit"}, resp.FailureMessages)
}

type listener struct{ got []app.PaymentRequest }

func (l *listener) Handle(_ context.Context, req app.PaymentRequest) error {
	l.got = append(l.got, req)
	return nil
}

func TestPaymentRequestHandler(t *testing.T) {
	l := &listener{}
	h := NewPaymentRequestHandler(l)
	orderID := common.NewID[common.OrderID]()
	customerID := common.NewID[common.CustomerID]()

	b, err := messaging.Encode(messaging.PaymentRequest{
		ID:                 "req-1",
		SagaID:             common.NewID[common.SagaID]().String(),
		CustomerID:         customerID.String(),
		OrderID:            orderID.String(),
		Price:              decimal.RequireFromString("200.00"),
		PaymentOrderStatus: "CANCELLED",
	})
	require.NoError(t, err)
	require.NoError(t, h.Handle(context.Background(), messaging.Message{Value: b}))

	require.Len(t, l.got, 1)
	assert.Equal(t, orderID, l.got[0].OrderID)
	assert.Equal(t, customerID, l.got[0].CustomerID)
	assert.Equal(t, common.PaymentOrderStatusCancelled, l.got[0].PaymentOrderStatus)
	assert.Equal(t, "200.00", l.got[0].Price.String())

	err = h.Handle(context.Background(), messaging.Message{Value: []byte(`{"order_id":"x"}`)})
	assert.ErrorIs(t, err, messaging.ErrUndecodable)
	assert.Len(t, l.got, 1)
}
