// Package messaging holds the JSON contracts exchanged between the order,
// payment and restaurant services, and the transport-neutral Message the
// consumers hand to their handlers.
package messaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Message types, carried in the x-message-type header.
const (
	TypePaymentRequest             = "PaymentRequest"
	TypePaymentResponse            = "PaymentResponse"
	TypeRestaurantApprovalRequest  = "RestaurantApprovalRequest"
	TypeRestaurantApprovalResponse = "RestaurantApprovalResponse"
)

// ErrUndecodable marks a payload that can never be processed.
var ErrUndecodable = errors.New("messaging: undecodable payload")

// Message is a received message, decoupled from the broker client.
type Message struct {
	Topic     string
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
}

type PaymentRequest struct {
	ID                 string          `json:"id"`
	SagaID             string          `json:"saga_id"`
	CustomerID         string          `json:"customer_id"`
	OrderID            string          `json:"order_id"`
	Price              decimal.Decimal `json:"price"`
	CreatedAt          time.Time       `json:"created_at"`
	PaymentOrderStatus string          `json:"payment_order_status"`
}

type PaymentResponse struct {
	ID              string          `json:"id"`
	SagaID          string          `json:"saga_id"`
	PaymentID       string          `json:"payment_id"`
	CustomerID      string          `json:"customer_id"`
	OrderID         string          `json:"order_id"`
	Price           decimal.Decimal `json:"price"`
	CreatedAt       time.Time       `json:"created_at"`
	PaymentStatus   string          `json:"payment_status"`
	FailureMessages []string        `json:"failure_messages"`
}

type Product struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type RestaurantApprovalRequest struct {
	ID                    string          `json:"id"`
	SagaID                string          `json:"saga_id"`
	RestaurantID          string          `json:"restaurant_id"`
	OrderID               string          `json:"order_id"`
	RestaurantOrderStatus string          `json:"restaurant_order_status"`
	Products              []Product       `json:"products"`
	Price                 decimal.Decimal `json:"price"`
	CreatedAt             time.Time       `json:"created_at"`
}

type RestaurantApprovalResponse struct {
	ID                  string    `json:"id"`
	SagaID              string    `json:"saga_id"`
	OrderID             string    `json:"order_id"`
	RestaurantID        string    `json:"restaurant_id"`
	CreatedAt           time.Time `json:"created_at"`
	OrderApprovalStatus string    `json:"order_approval_status"`
	FailureMessages     []string  `json:"failure_messages"`
}

// Decode unmarshals msg into T. Any failure wraps ErrUndecodable.
func Decode[T any](msg Message) (T, error) {
	var v T
	if err := json.Unmarshal(msg.Value, &v); err != nil {
		return v, fmt.Errorf("%w: %s at %s/%d@%d: %v", ErrUndecodable, msg.Key, msg.Topic, msg.Partition, msg.Offset, err)
	}
	return v, nil
}

// Encode marshals a contract for the outbox.
func Encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("messaging: encode %T: %w", v, err)
	}
	return b, nil
}
