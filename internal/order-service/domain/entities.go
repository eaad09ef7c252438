package domain

import (
	"github.com/google/uuid"

	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
)

type Product struct {
	ID    common.ProductID
	Name  string
	Price common.Money
}

// OrderItem is a line of an order. ID is its 1-based position, assigned by
// InitializeOrder.
type OrderItem struct {
	ID       int64
	OrderID  common.OrderID
	Product  Product
	Quantity int
	Price    common.Money
	SubTotal common.Money
}

// NewOrderItem returns an item whose product carries only its id. Name and
// price are confirmed against the restaurant catalog before validation.
func NewOrderItem(productID common.ProductID, quantity int, price, subTotal common.Money) OrderItem {
	return OrderItem{
		Product:  Product{ID: productID},
		Quantity: quantity,
		Price:    price,
		SubTotal: subTotal,
	}
}

// IsPriceValid reports whether the item price is positive, matches the
// confirmed catalog price, and times the quantity equals the subtotal.
func (i OrderItem) IsPriceValid() bool {
	return i.Price.IsGreaterThanZero() &&
		i.Price.Equal(i.Product.Price) &&
		i.Price.Multiply(i.Quantity).Equal(i.SubTotal)
}

type StreetAddress struct {
	ID         uuid.UUID
	Street     string
	PostalCode string
	City       string
}

type Customer struct {
	ID common.CustomerID
}

// Restaurant is the order service's read model of a restaurant and the part
// of its catalog an order refers to.
type Restaurant struct {
	ID       common.RestaurantID
	Products []Product
	Active   bool
}

func (r Restaurant) product(id common.ProductID) (Product, bool) {
	for _, p := range r.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
