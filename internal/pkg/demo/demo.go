// Package demo holds the fixed identifiers of the demo data every service
// seeds when SEED_DEMO_DATA is set, so a locally created order lines up
// across the three databases.
package demo

import (
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
)

var (
	CustomerID   = mustID[common.CustomerID]("d215b5f8-0249-4dc5-89a3-51fd148cfb41")
	RestaurantID = mustID[common.RestaurantID]("d215b5f8-0249-4dc5-89a3-51fd148cfb45")
)

// InitialCredit is the demo customer's opening balance.
var InitialCredit = common.MustMoney("500.00")

type Product struct {
	ID        common.ProductID
	Name      string
	Price     common.Money
	Available bool
}

var Products = []Product{
	{ID: mustID[common.ProductID]("d215b5f8-0249-4dc5-89a3-51fd148cfb47"), Name: "product-1", Price: common.MustMoney("25.00"), Available: true},
	{ID: mustID[common.ProductID]("d215b5f8-0249-4dc5-89a3-51fd148cfb48"), Name: "product-2", Price: common.MustMoney("50.00"), Available: true},
	{ID: mustID[common.ProductID]("d215b5f8-0249-4dc5-89a3-51fd148cfb49"), Name: "product-3", Price: common.MustMoney("20.00"), Available: false},
}

func mustID[T ~[16]byte](s string) T {
	id, err := common.ParseID[T](s)
	if err != nil {
		panic(err)
	}
	return id
}
