// Package domain is the order aggregate and the stateless OrderDomainService
// that drives it. The order status is the saga state: every transition below
// is one saga step.
//
//	PENDING -> PAID -> APPROVED
//	PENDING -> CANCELLED
//	PAID -> CANCELLING -> CANCELLED
package domain

import (
	"errors"
	"fmt"

	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
)

// ErrInvalidStatus marks an illegal state transition. Errors wrapping it are
// also invariant violations.
var ErrInvalidStatus = errors.New("order: invalid status transition")

type Order struct {
	id              common.OrderID
	customerID      common.CustomerID
	restaurantID    common.RestaurantID
	deliveryAddress StreetAddress
	price           common.Money
	items           []OrderItem
	trackingID      common.TrackingID
	sagaID          common.SagaID
	status          common.OrderStatus
	failureMessages []string
}

// NewOrderParams is everything a caller may decide about a new order. Ids and
// status are assigned by InitializeOrder.
type NewOrderParams struct {
	CustomerID      common.CustomerID
	RestaurantID    common.RestaurantID
	DeliveryAddress StreetAddress
	Price           common.Money
	Items           []OrderItem
}

// OrderState is the full persisted state of an order, used by repositories
// and event snapshots.
type OrderState struct {
	ID              common.OrderID
	CustomerID      common.CustomerID
	RestaurantID    common.RestaurantID
	DeliveryAddress StreetAddress
	Price           common.Money
	Items           []OrderItem
	TrackingID      common.TrackingID
	SagaID          common.SagaID
	Status          common.OrderStatus
	FailureMessages []string
}

// NewOrder returns an unsaved order with no id and no status.
func NewOrder(p NewOrderParams) *Order {
	return &Order{
		customerID:      p.CustomerID,
		restaurantID:    p.RestaurantID,
		deliveryAddress: p.DeliveryAddress,
		price:           p.Price,
		items:           append([]OrderItem(nil), p.Items...),
	}
}

// RehydrateOrder rebuilds an order from stored state. Every field of s is
// copied, including ID and TrackingID.
func RehydrateOrder(s OrderState) *Order {
	return &Order{
		id:              s.ID,
		customerID:      s.CustomerID,
		restaurantID:    s.RestaurantID,
		deliveryAddress: s.DeliveryAddress,
		price:           s.Price,
		items:           append([]OrderItem(nil), s.Items...),
		trackingID:      s.TrackingID,
		sagaID:          s.SagaID,
		status:          s.Status,
		failureMessages: append([]string(nil), s.FailureMessages...),
	}
}

// State returns a copy of the order's state.
func (o *Order) State() OrderState {
	return OrderState{
		ID:              o.id,
		CustomerID:      o.customerID,
		RestaurantID:    o.restaurantID,
		DeliveryAddress: o.deliveryAddress,
		Price:           o.price,
		Items:           o.Items(),
		TrackingID:      o.trackingID,
		SagaID:          o.sagaID,
		Status:          o.status,
		FailureMessages: o.FailureMessages(),
	}
}

func (o *Order) ID() common.OrderID                { return o.id }
func (o *Order) CustomerID() common.CustomerID     { return o.customerID }
func (o *Order) RestaurantID() common.RestaurantID { return o.restaurantID }
func (o *Order) DeliveryAddress() StreetAddress    { return o.deliveryAddress }
func (o *Order) Price() common.Money               { return o.price }
func (o *Order) TrackingID() common.TrackingID     { return o.trackingID }
func (o *Order) SagaID() common.SagaID             { return o.sagaID }
func (o *Order) Status() common.OrderStatus        { return o.status }
func (o *Order) Items() []OrderItem                { return append([]OrderItem(nil), o.items...) }
func (o *Order) FailureMessages() []string         { return append([]string{}, o.failureMessages...) }

// ValidateOrder checks a not yet initialized order. It has no side effects.
func (o *Order) ValidateOrder() error {
	if o.status != "" || !common.IsZeroID(o.id) {
		return common.NewError("Order is not in the correct state for initialization.")
	}
	if !o.price.IsGreaterThanZero() {
		return common.NewError("Price must be greater than zero.")
	}

	total := common.ZeroMoney
	for _, item := range o.items {
		if !item.IsPriceValid() {
			return common.NewError("Item price is not valid.")
		}
		total = total.Add(item.SubTotal)
	}
	if !total.Equal(o.price) {
		return common.NewError("Total price is not equals to the sum of the items")
	}
	return nil
}

// InitializeOrder validates the order, then assigns its id, tracking id,
// saga id and item ids and moves it to PENDING.
func (o *Order) InitializeOrder() error {
	if err := o.ValidateOrder(); err != nil {
		return err
	}
	o.id = common.NewID[common.OrderID]()
	o.trackingID = common.NewID[common.TrackingID]()
	o.sagaID = common.NewID[common.SagaID]()
	o.status = common.OrderStatusPending
	for i := range o.items {
		o.items[i].ID = int64(i + 1)
		o.items[i].OrderID = o.id
	}
	return nil
}

func (o *Order) Pay() error {
	if o.status != common.OrderStatusPending {
		return statusError("pay")
	}
	o.status = common.OrderStatusPaid
	return nil
}

func (o *Order) Approve() error {
	if o.status != common.OrderStatusPaid {
		return statusError("approve")
	}
	o.status = common.OrderStatusApproved
	return nil
}

// InitCancel starts compensation of a paid order.
func (o *Order) InitCancel(failureMessages []string) error {
	if o.status != common.OrderStatusPaid {
		return statusError("initCancel")
	}
	o.status = common.OrderStatusCancelling
	o.appendFailureMessages(failureMessages)
	return nil
}

func (o *Order) Cancel(failureMessages []string) error {
	if o.status != common.OrderStatusCancelling && o.status != common.OrderStatusPending {
		return statusError("cancel")
	}
	o.status = common.OrderStatusCancelled
	o.appendFailureMessages(failureMessages)
	return nil
}

// appendFailureMessages keeps duplicates and drops empty strings.
func (o *Order) appendFailureMessages(msgs []string) {
	for _, m := range msgs {
		if m != "" {
			o.failureMessages = append(o.failureMessages, m)
		}
	}
}

func statusError(op string) error {
	return common.WrapError(ErrInvalidStatus, fmt.Sprintf("Order is not in the correct state for %s operation.", op))
}
