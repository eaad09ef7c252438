package app

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/jcmexdev/food-ordering-sagas/internal/order-service/domain"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/saga/sagalog"
)

// store is an in-memory stand-in for the order database, outbox included.
// Its unit of work restores the previous contents when fn fails.
type store struct {
	orders      map[common.OrderID]domain.OrderState
	customers   map[common.CustomerID]domain.Customer
	restaurants map[common.RestaurantID]domain.Restaurant
	entries     []sagalog.Entry

	created   []domain.OrderCreatedEvent
	paid      []domain.OrderPaidEvent
	cancelled []domain.OrderCancelledEvent

	failSave error
}

func newStore() *store {
	return &store{
		orders:      map[common.OrderID]domain.OrderState{},
		customers:   map[common.CustomerID]domain.Customer{},
		restaurants: map[common.RestaurantID]domain.Restaurant{},
	}
}

func (s *store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	orders := maps.Clone(s.orders)
	entries := slices.Clone(s.entries)
	created, paid, cancelled := slices.Clone(s.created), slices.Clone(s.paid), slices.Clone(s.cancelled)

	if err := fn(ctx); err != nil {
		s.orders, s.entries = orders, entries
		s.created, s.paid, s.cancelled = created, paid, cancelled
		return err
	}
	return nil
}

type orderRepo struct{ *store }

func (r orderRepo) Save(_ context.Context, order *domain.Order) error {
	if r.failSave != nil {
		return r.failSave
	}
	r.orders[order.ID()] = order.State()
	return nil
}

func (r orderRepo) FindByID(_ context.Context, id common.OrderID) (*domain.Order, error) {
	state, ok := r.orders[id]
	if !ok {
		return nil, common.NotFound("order %s", id)
	}
	return domain.RehydrateOrder(state), nil
}

func (r orderRepo) FindByTrackingID(_ context.Context, id common.TrackingID) (*domain.Order, error) {
	for _, state := range r.orders {
		if state.TrackingID == id {
			return domain.RehydrateOrder(state), nil
		}
	}
	return nil, common.NotFound("order with tracking id %s", id)
}

type customerRepo struct{ *store }

func (r customerRepo) FindByID(_ context.Context, id common.CustomerID) (domain.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return domain.Customer{}, common.NotFound("customer %s", id)
	}
	return c, nil
}

type restaurantRepo struct{ *store }

func (r restaurantRepo) FindRestaurant(_ context.Context, id common.RestaurantID, productIDs []common.ProductID) (domain.Restaurant, error) {
	rest, ok := r.restaurants[id]
	if !ok {
		return domain.Restaurant{}, common.NotFound("restaurant %s", id)
	}
	var products []domain.Product
	for _, p := range rest.Products {
		if slices.Contains(productIDs, p.ID) {
			products = append(products, p)
		}
	}
	rest.Products = products
	return rest, nil
}

type sagaLogRepo struct{ *store }

func (r sagaLogRepo) Save(_ context.Context, entry sagalog.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r sagaLogRepo) List(_ context.Context, sagaID string) ([]sagalog.Entry, error) {
	var out []sagalog.Entry
	for _, e := range r.entries {
		if e.SagaID == sagaID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r sagaLogRepo) GetLatest(ctx context.Context, sagaID string) (sagalog.Entry, error) {
	entries, _ := r.List(ctx, sagaID)
	if len(entries) == 0 {
		return sagalog.Entry{}, common.NotFound("Could not find saga log for saga id: %s", sagaID)
	}
	return entries[len(entries)-1], nil
}

type publisher struct{ *store }

func (p publisher) PublishOrderCreated(_ context.Context, evt domain.OrderCreatedEvent) error {
	p.created = append(p.created, evt)
	return nil
}

func (p publisher) PublishOrderPaid(_ context.Context, evt domain.OrderPaidEvent) error {
	p.paid = append(p.paid, evt)
	return nil
}

func (p publisher) PublishOrderCancelled(_ context.Context, evt domain.OrderCancelledEvent) error {
	p.cancelled = append(p.cancelled, evt)
	return nil
}

var errDiskFull = errors.New("disk full")
