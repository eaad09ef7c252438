package app

import (
	"time"

	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/saga"
)

type OrderAddress struct {
	Street     string
	PostalCode string
	City       string
}

type OrderItemCommand struct {
	ProductID common.ProductID
	Quantity  int
	Price     common.Money
	SubTotal  common.Money
}

type CreateOrderCommand struct {
	CustomerID   common.CustomerID
	RestaurantID common.RestaurantID
	Price        common.Money
	Items        []OrderItemCommand
	Address      OrderAddress
}

type CreateOrderResponse struct {
	OrderTrackingID common.TrackingID
	OrderStatus     common.OrderStatus
	Message         string
}

type TrackOrderResponse struct {
	OrderTrackingID common.TrackingID
	OrderStatus     common.OrderStatus
	// SagaStatus is the status of the latest saga log entry, empty when the
	// saga has none yet.
	SagaStatus      saga.Status
	FailureMessages []string
}

// PaymentResponse is the payment service's answer to a payment request.
type PaymentResponse struct {
	ID              string
	SagaID          common.SagaID
	OrderID         common.OrderID
	PaymentID       common.PaymentID
	CustomerID      common.CustomerID
	Price           common.Money
	CreatedAt       time.Time
	PaymentStatus   common.PaymentStatus
	FailureMessages []string
}

// RestaurantApprovalResponse is the restaurant's answer to an approval request.
type RestaurantApprovalResponse struct {
	ID                  string
	SagaID              common.SagaID
	OrderID             common.OrderID
	RestaurantID        common.RestaurantID
	CreatedAt           time.Time
	OrderApprovalStatus common.OrderApprovalStatus
	FailureMessages     []string
}
