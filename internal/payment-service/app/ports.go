// Package app is the payment service's application layer: it answers payment
// requests from the order saga by charging or refunding the customer's
// credit.
package app

import (
	"context"
	"time"

	"github.com/jcmexdev/food-ordering-sagas/internal/payment-service/domain"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
)

// Repositories report a missing row with an error matching common.ErrNotFound.

type PaymentRepository interface {
	Save(ctx context.Context, payment *domain.Payment) error
	FindByOrderID(ctx context.Context, orderID common.OrderID) (*domain.Payment, error)
}

type CreditEntryRepository interface {
	FindByCustomerID(ctx context.Context, customerID common.CustomerID) (*domain.CreditEntry, error)
	Save(ctx context.Context, entry *domain.CreditEntry) error
}

type CreditHistoryRepository interface {
	FindByCustomerID(ctx context.Context, customerID common.CustomerID) ([]domain.CreditHistory, error)
	Save(ctx context.Context, history domain.CreditHistory) error
}

type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// PaymentResponsePublisher records the answer to a payment request inside
// the unit of work.
type PaymentResponsePublisher interface {
	PublishPaymentResponse(ctx context.Context, sagaID common.SagaID, evt domain.PaymentEvent) error
}

type PaymentRequest struct {
	ID                 string
	SagaID             common.SagaID
	CustomerID         common.CustomerID
	OrderID            common.OrderID
	Price              common.Money
	CreatedAt          time.Time
	PaymentOrderStatus common.PaymentOrderStatus
}
