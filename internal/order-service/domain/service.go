package domain

import (
	"time"

	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
)

// OrderDomainService holds the order transitions that need more than the
// aggregate itself, and wraps each one into the event it produces.
type OrderDomainService struct {
	now func() time.Time
}

func NewOrderDomainService() *OrderDomainService {
	return &OrderDomainService{now: func() time.Time { return time.Now().UTC() }}
}

// ValidateAndInitiateOrder confirms item names and prices against the
// restaurant catalog, then validates and initializes the order.
func (s *OrderDomainService) ValidateAndInitiateOrder(order *Order, restaurant Restaurant) (OrderCreatedEvent, error) {
	if !restaurant.Active {
		return OrderCreatedEvent{}, common.NewError("Restaurant is not active.")
	}
	for i := range order.items {
		if p, ok := restaurant.product(order.items[i].Product.ID); ok {
			order.items[i].Product = p
		}
	}
	if err := order.InitializeOrder(); err != nil {
		return OrderCreatedEvent{}, err
	}
	return OrderCreatedEvent{Order: order.State(), CreatedAt: s.now()}, nil
}

func (s *OrderDomainService) PayOrder(order *Order) (OrderPaidEvent, error) {
	if err := order.Pay(); err != nil {
		return OrderPaidEvent{}, err
	}
	return OrderPaidEvent{Order: order.State(), CreatedAt: s.now()}, nil
}

func (s *OrderDomainService) ApproveOrder(order *Order) error {
	return order.Approve()
}

// CancelOrderPayment starts compensation. The returned event becomes the
// payment-cancellation request.
func (s *OrderDomainService) CancelOrderPayment(order *Order, failureMessages []string) (OrderCancelledEvent, error) {
	if err := order.InitCancel(failureMessages); err != nil {
		return OrderCancelledEvent{}, err
	}
	return OrderCancelledEvent{Order: order.State(), CreatedAt: s.now()}, nil
}

func (s *OrderDomainService) CancelOrder(order *Order, failureMessages []string) error {
	return order.Cancel(failureMessages)
}
