package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/demo"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/sqlitedb"
)

// Seed writes the demo customer and restaurant. It is safe to run on every
// start.
func Seed(ctx context.Context, db *sql.DB) error {
	return sqlitedb.NewUnitOfWork(db).Do(ctx, func(ctx context.Context) error {
		conn := sqlitedb.Conn(ctx, db)
		if _, err := conn.ExecContext(ctx, `
			INSERT OR IGNORE INTO customers (id, username, first_name, last_name)
			VALUES (?, 'user_1', 'First', 'User')`, demo.CustomerID.String()); err != nil {
			return fmt.Errorf("seed customer: %w", err)
		}
		if _, err := conn.ExecContext(ctx, `
			INSERT OR IGNORE INTO restaurants (id, name, active) VALUES (?, 'restaurant_1', 1)`,
			demo.RestaurantID.String()); err != nil {
			return fmt.Errorf("seed restaurant: %w", err)
		}
		for _, p := range demo.Products {
			if _, err := conn.ExecContext(ctx, `
				INSERT OR IGNORE INTO restaurant_products (restaurant_id, product_id, name, price)
				VALUES (?, ?, ?, ?)`,
				demo.RestaurantID.String(), p.ID.String(), p.Name, p.Price.String()); err != nil {
				return fmt.Errorf("seed product %s: %w", p.Name, err)
			}
		}
		return nil
	})
}
