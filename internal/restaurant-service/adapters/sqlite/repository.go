// Package sqlite stores the restaurant catalog and the order approvals in
// SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/sqlitedb"
	"github.com/jcmexdev/food-ordering-sagas/internal/restaurant-service/domain"
)

const Schema = `
CREATE TABLE IF NOT EXISTS restaurants (
    id     TEXT PRIMARY KEY,
    name   TEXT NOT NULL,
    active INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
    id        TEXT PRIMARY KEY,
    name      TEXT NOT NULL,
    price     TEXT NOT NULL,
    available INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS restaurant_products (
    restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
    product_id    TEXT NOT NULL REFERENCES products(id),
    PRIMARY KEY (restaurant_id, product_id)
);

CREATE TABLE IF NOT EXISTS order_approvals (
    id            TEXT PRIMARY KEY,
    restaurant_id TEXT NOT NULL,
    order_id      TEXT NOT NULL UNIQUE,
    status        TEXT NOT NULL CHECK (status IN ('APPROVED', 'REJECTED'))
);
`

type RestaurantRepository struct {
	db *sql.DB
}

func NewRestaurantRepository(db *sql.DB) *RestaurantRepository {
	return &RestaurantRepository{db: db}
}

// FindRestaurant returns the restaurant with the listed products found in its
// catalog, in the restaurant's OrderDetail.
func (r *RestaurantRepository) FindRestaurant(ctx context.Context, id common.RestaurantID, productIDs []common.ProductID) (*domain.Restaurant, error) {
	conn := sqlitedb.Conn(ctx, r.db)

	restaurant := &domain.Restaurant{ID: id}
	err := conn.QueryRowContext(ctx, `SELECT active FROM restaurants WHERE id = ?`, id.String()).
		Scan(&restaurant.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFound("Could not find restaurant with id %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("restaurant repository: find %s: %w", id, err)
	}
	if len(productIDs) == 0 {
		return restaurant, nil
	}

	args := []any{id.String()}
	for _, pid := range productIDs {
		args = append(args, pid.String())
	}
	rows, err := conn.QueryContext(ctx, `
		SELECT p.id, p.name, p.price, p.available
		FROM   restaurant_products rp
		JOIN   products p ON p.id = rp.product_id
		WHERE  rp.restaurant_id = ?
		  AND  p.id IN (?`+strings.Repeat(", ?", len(productIDs)-1)+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("restaurant repository: products of %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p         domain.Product
			productID string
			price     string
		)
		if err := rows.Scan(&productID, &p.Name, &price, &p.Available); err != nil {
			return nil, fmt.Errorf("restaurant repository: scan product: %w", err)
		}
		if p.ID, err = common.ParseID[common.ProductID](productID); err != nil {
			return nil, fmt.Errorf("restaurant repository: product id %q: %w", productID, err)
		}
		if p.Price, err = common.MoneyFromString(price); err != nil {
			return nil, err
		}
		restaurant.OrderDetail.Products = append(restaurant.OrderDetail.Products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return restaurant, nil
}

type OrderApprovalRepository struct {
	db *sql.DB
}

func NewOrderApprovalRepository(db *sql.DB) *OrderApprovalRepository {
	return &OrderApprovalRepository{db: db}
}

func (r *OrderApprovalRepository) Save(ctx context.Context, a domain.OrderApproval) error {
	_, err := sqlitedb.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO order_approvals (id, restaurant_id, order_id, status) VALUES (?, ?, ?, ?)`,
		a.ID.String(), a.RestaurantID.String(), a.OrderID.String(), string(a.Status))
	if err != nil {
		return fmt.Errorf("order approval repository: save %s: %w", a.OrderID, err)
	}
	return nil
}

func (r *OrderApprovalRepository) FindByOrderID(ctx context.Context, orderID common.OrderID) (*domain.OrderApproval, error) {
	var id, restaurantID, status string
	err := sqlitedb.Conn(ctx, r.db).
		QueryRowContext(ctx, `SELECT id, restaurant_id, status FROM order_approvals WHERE order_id = ?`, orderID.String()).
		Scan(&id, &restaurantID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFound("Could not find order approval for order %s", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("order approval repository: find %s: %w", orderID, err)
	}

	a := &domain.OrderApproval{OrderID: orderID, Status: common.OrderApprovalStatus(status)}
	if a.ID, err = common.ParseID[common.OrderApprovalID](id); err != nil {
		return nil, fmt.Errorf("order approval repository: id: %w", err)
	}
	if a.RestaurantID, err = common.ParseID[common.RestaurantID](restaurantID); err != nil {
		return nil, fmt.Errorf("order approval repository: restaurant id: %w", err)
	}
	return a, nil
}
