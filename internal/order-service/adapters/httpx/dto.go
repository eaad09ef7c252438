package httpx

import (
	"time"

	"github.com/shopspring/decimal"
)

// Amounts accept both JSON numbers and strings.

type CreateOrderRequest struct {
	CustomerID   string               `json:"customer_id"`
	RestaurantID string               `json:"restaurant_id"`
	Price        decimal.Decimal      `json:"price"`
	Items        []CreateOrderItemDTO `json:"items"`
	Address      AddressDTO           `json:"address"`
}

type CreateOrderItemDTO struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	SubTotal  decimal.Decimal `json:"sub_total"`
}

type AddressDTO struct {
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
}

type CreateOrderResponse struct {
	OrderTrackingID string `json:"order_tracking_id"`
	OrderStatus     string `json:"order_status"`
	Message         string `json:"message"`
}

type TrackOrderResponse struct {
	OrderTrackingID string   `json:"order_tracking_id"`
	OrderStatus     string   `json:"order_status"`
	SagaStatus      string   `json:"saga_status,omitempty"`
	FailureMessages []string `json:"failure_messages"`
}

type SagaLogEntryResponse struct {
	SagaID          string    `json:"saga_id"`
	OrderID         string    `json:"order_id"`
	Step            string    `json:"step"`
	SagaStatus      string    `json:"saga_status"`
	OrderStatus     string    `json:"order_status"`
	FailureMessages []string  `json:"failure_messages"`
	TraceID         string    `json:"trace_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
