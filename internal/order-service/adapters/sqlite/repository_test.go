package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/food-ordering-sagas/internal/order-service/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/demo"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/sqlitedb"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "order.db"), Schema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Seed(context.Background(), db))
	return db
}

// initiatedOrder builds a PENDING order of one demo product-2 (50.00) and two
// product-1 (25.00).
func initiatedOrder(t *testing.T, db *sql.DB) *domain.Order {
	t.Helper()
	p1, p2 := demo.Products[0], demo.Products[1]
	restaurant, err := NewRestaurantRepository(db).FindRestaurant(context.Background(), demo.RestaurantID,
		[]common.ProductID{p1.ID, p2.ID})
	require.NoError(t, err)

	order := domain.NewOrder(domain.NewOrderParams{
		CustomerID:   demo.CustomerID,
		RestaurantID: demo.RestaurantID,
		Price:        common.MustMoney("100.00"),
		Items: []domain.OrderItem{
			domain.NewOrderItem(p2.ID, 1, p2.Price, common.MustMoney("50.00")),
			domain.NewOrderItem(p1.ID, 2, p1.Price, common.MustMoney("50.00")),
		},
		DeliveryAddress: domain.StreetAddress{Street: "street_1", PostalCode: "1000AB", City: "Paris"},
	})
	_, err = domain.NewOrderDomainService().ValidateAndInitiateOrder(order, restaurant)
	require.NoError(t, err)
	return order
}

func TestOrderRepository_SaveAndFind(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	order := initiatedOrder(t, db)

	require.NoError(t, repo.Save(ctx, order))

	byID, err := repo.FindByID(ctx, order.ID())
	require.NoError(t, err)
	byTracking, err := repo.FindByTrackingID(ctx, order.TrackingID())
	require.NoError(t, err)

	want := order.State()
	for _, got := range []*domain.Order{byID, byTracking} {
		s := got.State()
		assert.Equal(t, want.ID, s.ID)
		assert.Equal(t, want.TrackingID, s.TrackingID)
		assert.Equal(t, want.SagaID, s.SagaID)
		assert.Equal(t, common.OrderStatusPending, s.Status)
		assert.True(t, want.Price.Equal(s.Price))
		assert.Equal(t, want.DeliveryAddress.Street, s.DeliveryAddress.Street)
		assert.Equal(t, want.DeliveryAddress.City, s.DeliveryAddress.City)
		require.Len(t, s.Items, 2)
		assert.Equal(t, int64(1), s.Items[0].ID)
		assert.Equal(t, int64(2), s.Items[1].ID)
		assert.Equal(t, 2, s.Items[1].Quantity)
		assert.Equal(t, want.ID, s.Items[1].OrderID)
		assert.Empty(t, s.FailureMessages)
	}
}

func TestOrderRepository_SaveUpdatesStatusAndFailures(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	order := initiatedOrder(t, db)
	require.NoError(t, repo.Save(ctx, order))

	require.NoError(t, order.Pay())
	require.NoError(t, order.InitCancel([]string{"Product with id: p is not available"}))
	require.NoError(t, repo.Save(ctx, order))

	got, err := repo.FindByID(ctx, order.ID())
	require.NoError(t, err)
	assert.Equal(t, common.OrderStatusCancelling, got.Status())
	assert.Equal(t, []string{"Product with id: p is not available"}, got.FailureMessages())
	assert.Len(t, got.Items(), 2, "items are written once")
}

func TestOrderRepository_NotFound(t *testing.T) {
	repo := NewOrderRepository(openTestDB(t))
	ctx := context.Background()

	_, err := repo.FindByID(ctx, common.NewID[common.OrderID]())
	assert.True(t, common.IsNotFound(err))

	_, err = repo.FindByTrackingID(ctx, common.NewID[common.TrackingID]())
	assert.True(t, common.IsNotFound(err))
}

func TestOrderRepository_SaveJoinsTransaction(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	order := initiatedOrder(t, db)

	err := sqlitedb.NewUnitOfWork(db).Do(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Save(ctx, order))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, err = repo.FindByID(ctx, order.ID())
	assert.True(t, common.IsNotFound(err))
}

func TestCustomerRepository_FindByID(t *testing.T) {
	repo := NewCustomerRepository(openTestDB(t))
	ctx := context.Background()

	c, err := repo.FindByID(ctx, demo.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, demo.CustomerID, c.ID)

	_, err = repo.FindByID(ctx, common.NewID[common.CustomerID]())
	assert.True(t, common.IsNotFound(err))
}

func TestRestaurantRepository_FindRestaurant(t *testing.T) {
	repo := NewRestaurantRepository(openTestDB(t))
	ctx := context.Background()
	unknown := common.NewID[common.ProductID]()

	r, err := repo.FindRestaurant(ctx, demo.RestaurantID, []common.ProductID{demo.Products[1].ID, unknown})
	require.NoError(t, err)
	assert.True(t, r.Active)
	require.Len(t, r.Products, 1, "unknown products are left out")
	assert.Equal(t, demo.Products[1].ID, r.Products[0].ID)
	assert.Equal(t, "product-2", r.Products[0].Name)
	assert.Equal(t, "50.00", r.Products[0].Price.String())

	_, err = repo.FindRestaurant(ctx, common.NewID[common.RestaurantID](), nil)
	assert.True(t, common.IsNotFound(err))
}

func TestSeed_IsRepeatable(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Seed(context.Background(), db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM restaurant_products`).Scan(&n))
	assert.Equal(t, len(demo.Products), n)
}
