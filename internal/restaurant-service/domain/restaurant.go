// Package domain holds the restaurant approval model: a paid order is checked
// against the restaurant's catalog before the restaurant accepts it.
package domain

import (
	"fmt"

	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
)

// Product is a catalog product as ordered. Quantity comes from the order,
// the rest from the catalog.
type Product struct {
	ID        common.ProductID
	Name      string
	Price     common.Money
	Quantity  int
	Available bool
}

// OrderDetail is the paid order the restaurant is asked to approve.
type OrderDetail struct {
	ID          common.OrderID
	Status      common.RestaurantOrderStatus
	TotalAmount common.Money
	Products    []Product
}

type Restaurant struct {
	ID          common.RestaurantID
	Active      bool
	OrderDetail OrderDetail
	Approval    *OrderApproval
}

// ValidateOrder appends a failure message for every rule the order breaks:
// it must be paid, every product available, and its total must match the
// catalog prices.
func (r *Restaurant) ValidateOrder(failureMessages []string) []string {
	if r.OrderDetail.Status != common.RestaurantOrderStatusPaid {
		failureMessages = append(failureMessages,
			fmt.Sprintf("Payment is not completed for order: %s", r.OrderDetail.ID))
	}

	total := common.ZeroMoney
	for _, p := range r.OrderDetail.Products {
		if !p.Available {
			failureMessages = append(failureMessages,
				fmt.Sprintf("Product with id: %s is not available", p.ID))
		}
		total = total.Add(p.Price.Multiply(p.Quantity))
	}
	if !total.Equal(r.OrderDetail.TotalAmount) {
		failureMessages = append(failureMessages,
			fmt.Sprintf("Price total is not correct for order: %s", r.OrderDetail.ID))
	}
	return failureMessages
}

// ConstructOrderApproval records the restaurant's decision for the order.
func (r *Restaurant) ConstructOrderApproval(status common.OrderApprovalStatus) {
	r.Approval = &OrderApproval{
		ID:           common.NewID[common.OrderApprovalID](),
		RestaurantID: r.ID,
		OrderID:      r.OrderDetail.ID,
		Status:       status,
	}
}

type OrderApproval struct {
	ID           common.OrderApprovalID
	RestaurantID common.RestaurantID
	OrderID      common.OrderID
	Status       common.OrderApprovalStatus
}
