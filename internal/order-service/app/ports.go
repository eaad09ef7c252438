package app

import (
	"context"

	"github.com/jcmexdev/food-ordering-sagas/internal/order-service/domain"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/saga/sagalog"
)

// Repositories report a missing row with an error matching common.ErrNotFound.

type OrderRepository interface {
	Save(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id common.OrderID) (*domain.Order, error)
	FindByTrackingID(ctx context.Context, id common.TrackingID) (*domain.Order, error)
}

type CustomerRepository interface {
	FindByID(ctx context.Context, id common.CustomerID) (domain.Customer, error)
}

type RestaurantRepository interface {
	// FindRestaurant returns the restaurant with only the requested products
	// of its catalog, whether the restaurant is active or not.
	FindRestaurant(ctx context.Context, id common.RestaurantID, productIDs []common.ProductID) (domain.Restaurant, error)
}

type SagaLogRepository interface {
	sagalog.Repository
}

// UnitOfWork runs fn atomically. Everything fn writes through the ports above
// and the publishers below commits or rolls back together.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Publishers record the follow-up message of a transition. They run inside the
// unit of work, so the message is sent only if the transition commits.

type OrderCreatedPaymentRequestPublisher interface {
	PublishOrderCreated(ctx context.Context, evt domain.OrderCreatedEvent) error
}

type OrderCancelledPaymentRequestPublisher interface {
	PublishOrderCancelled(ctx context.Context, evt domain.OrderCancelledEvent) error
}

type OrderPaidRestaurantRequestPublisher interface {
	PublishOrderPaid(ctx context.Context, evt domain.OrderPaidEvent) error
}
