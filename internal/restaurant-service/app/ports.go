// Package app is the restaurant service's application layer: it approves or
// rejects paid orders for the approval saga.
package app

import (
	"context"
	"time"

	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/restaurant-service/domain"
)

// RestaurantRepository loads the restaurant with the catalog entries of the
// given products. Products missing from the catalog are left out; a missing
// restaurant is reported with an error matching common.ErrNotFound.
type RestaurantRepository interface {
	FindRestaurant(ctx context.Context, id common.RestaurantID, productIDs []common.ProductID) (*domain.Restaurant, error)
}

type OrderApprovalRepository interface {
	Save(ctx context.Context, approval domain.OrderApproval) error
	FindByOrderID(ctx context.Context, orderID common.OrderID) (*domain.OrderApproval, error)
}

type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type RestaurantApprovalResponsePublisher interface {
	PublishApprovalResponse(ctx context.Context, sagaID common.SagaID, evt domain.OrderApprovalEvent) error
}

type Product struct {
	ID       common.ProductID
	Quantity int
}

type RestaurantApprovalRequest struct {
	ID                    string
	SagaID                common.SagaID
	RestaurantID          common.RestaurantID
	OrderID               common.OrderID
	RestaurantOrderStatus common.RestaurantOrderStatus
	Products              []Product
	Price                 common.Money
	CreatedAt             time.Time
}
