// Package domain is the payment aggregate, the customer's credit ledger and
// the PaymentDomainService that charges and refunds orders against it.
package domain

import (
	"time"

	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
)

type Payment struct {
	id         common.PaymentID
	orderID    common.OrderID
	customerID common.CustomerID
	price      common.Money
	status     common.PaymentStatus
	createdAt  time.Time
}

// PaymentState is the persisted form of a payment.
type PaymentState struct {
	ID         common.PaymentID
	OrderID    common.OrderID
	CustomerID common.CustomerID
	Price      common.Money
	Status     common.PaymentStatus
	CreatedAt  time.Time
}

// NewPayment returns a payment for an incoming request. It has no id until
// InitializePayment.
func NewPayment(orderID common.OrderID, customerID common.CustomerID, price common.Money) *Payment {
	return &Payment{orderID: orderID, customerID: customerID, price: price}
}

func RehydratePayment(s PaymentState) *Payment {
	return &Payment{
		id:         s.ID,
		orderID:    s.OrderID,
		customerID: s.CustomerID,
		price:      s.Price,
		status:     s.Status,
		createdAt:  s.CreatedAt,
	}
}

func (p *Payment) State() PaymentState {
	return PaymentState{
		ID:         p.id,
		OrderID:    p.orderID,
		CustomerID: p.customerID,
		Price:      p.price,
		Status:     p.status,
		CreatedAt:  p.createdAt,
	}
}

func (p *Payment) ID() common.PaymentID          { return p.id }
func (p *Payment) OrderID() common.OrderID       { return p.orderID }
func (p *Payment) CustomerID() common.CustomerID { return p.customerID }
func (p *Payment) Price() common.Money           { return p.price }
func (p *Payment) Status() common.PaymentStatus  { return p.status }
func (p *Payment) CreatedAt() time.Time          { return p.createdAt }

// ValidatePayment returns failureMessages with any problem of the payment
// itself appended.
func (p *Payment) ValidatePayment(failureMessages []string) []string {
	if !p.price.IsGreaterThanZero() {
		failureMessages = append(failureMessages, "Total price must be greater than zero!")
	}
	return failureMessages
}

func (p *Payment) InitializePayment(now time.Time) {
	p.id = common.NewID[common.PaymentID]()
	p.createdAt = now
}

func (p *Payment) UpdateStatus(status common.PaymentStatus) {
	p.status = status
}
