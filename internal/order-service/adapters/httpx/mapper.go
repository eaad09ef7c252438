package httpx

import (
	"errors"
	"fmt"

	"github.com/jcmexdev/food-ordering-sagas/internal/order-service/app"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
)

// toCommand checks the request shape. Business rules such as price totals
// are left to the domain.
func toCommand(req CreateOrderRequest) (app.CreateOrderCommand, error) {
	if req.CustomerID == "" || req.RestaurantID == "" || len(req.Items) == 0 {
		return app.CreateOrderCommand{}, errors.New("customer_id, restaurant_id and items are required")
	}
	customerID, err := common.ParseID[common.CustomerID](req.CustomerID)
	if err != nil {
		return app.CreateOrderCommand{}, fmt.Errorf("customer_id: %w", err)
	}
	restaurantID, err := common.ParseID[common.RestaurantID](req.RestaurantID)
	if err != nil {
		return app.CreateOrderCommand{}, fmt.Errorf("restaurant_id: %w", err)
	}

	items := make([]app.OrderItemCommand, 0, len(req.Items))
	for i, it := range req.Items {
		productID, err := common.ParseID[common.ProductID](it.ProductID)
		if err != nil {
			return app.CreateOrderCommand{}, fmt.Errorf("items[%d].product_id: %w", i, err)
		}
		if it.Quantity <= 0 {
			return app.CreateOrderCommand{}, fmt.Errorf("items[%d].quantity must be positive", i)
		}
		items = append(items, app.OrderItemCommand{
			ProductID: productID,
			Quantity:  it.Quantity,
			Price:     common.NewMoney(it.Price),
			SubTotal:  common.NewMoney(it.SubTotal),
		})
	}

	return app.CreateOrderCommand{
		CustomerID:   customerID,
		RestaurantID: restaurantID,
		Price:        common.NewMoney(req.Price),
		Items:        items,
		Address: app.OrderAddress{
			Street:     req.Address.Street,
			PostalCode: req.Address.PostalCode,
			City:       req.Address.City,
		},
	}, nil
}
