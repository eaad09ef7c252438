package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jcmexdev/food-ordering-sagas/internal/order-service/domain"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/sqlitedb"
)

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) FindByID(ctx context.Context, id common.CustomerID) (domain.Customer, error) {
	var found string
	err := sqlitedb.Conn(ctx, r.db).
		QueryRowContext(ctx, `SELECT id FROM customers WHERE id = ?`, id.String()).
		Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Customer{}, common.NotFound("Could not find customer with customer id: %s", id)
	}
	if err != nil {
		return domain.Customer{}, fmt.Errorf("customer repository: find %s: %w", id, err)
	}
	return domain.Customer{ID: id}, nil
}

type RestaurantRepository struct {
	db *sql.DB
}

func NewRestaurantRepository(db *sql.DB) *RestaurantRepository {
	return &RestaurantRepository{db: db}
}

// FindRestaurant returns the restaurant and those of productIDs it lists.
// Unknown products are left out for the domain service to report.
func (r *RestaurantRepository) FindRestaurant(ctx context.Context, id common.RestaurantID, productIDs []common.ProductID) (domain.Restaurant, error) {
	conn := sqlitedb.Conn(ctx, r.db)

	restaurant := domain.Restaurant{ID: id}
	err := conn.QueryRowContext(ctx, `SELECT active FROM restaurants WHERE id = ?`, id.String()).
		Scan(&restaurant.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Restaurant{}, common.NotFound("Could not find restaurant with restaurant id: %s", id)
	}
	if err != nil {
		return domain.Restaurant{}, fmt.Errorf("restaurant repository: find %s: %w", id, err)
	}
	if len(productIDs) == 0 {
		return restaurant, nil
	}

	args := make([]any, 0, len(productIDs)+1)
	args = append(args, id.String())
	for _, pid := range productIDs {
		args = append(args, pid.String())
	}
	q := `
		SELECT product_id, name, price
		FROM   restaurant_products
		WHERE  restaurant_id = ?
		  AND  product_id IN (?` + strings.Repeat(", ?", len(productIDs)-1) + `)`

	rows, err := conn.QueryContext(ctx, q, args...)
	if err != nil {
		return domain.Restaurant{}, fmt.Errorf("restaurant repository: products of %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p                domain.Product
			productID, price string
		)
		if err := rows.Scan(&productID, &p.Name, &price); err != nil {
			return domain.Restaurant{}, fmt.Errorf("restaurant repository: scan product: %w", err)
		}
		if p.ID, err = common.ParseID[common.ProductID](productID); err != nil {
			return domain.Restaurant{}, fmt.Errorf("restaurant repository: product id %q: %w", productID, err)
		}
		if p.Price, err = common.MoneyFromString(price); err != nil {
			return domain.Restaurant{}, err
		}
		restaurant.Products = append(restaurant.Products, p)
	}
	return restaurant, rows.Err()
}
