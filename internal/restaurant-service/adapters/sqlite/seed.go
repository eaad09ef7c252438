package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/demo"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/sqlitedb"
)

// Seed writes the demo restaurant and its catalog, including the one product
// that is out of stock.
func Seed(ctx context.Context, db *sql.DB) error {
	return sqlitedb.NewUnitOfWork(db).Do(ctx, func(ctx context.Context) error {
		conn := sqlitedb.Conn(ctx, db)
		if _, err := conn.ExecContext(ctx, `
			INSERT OR IGNORE INTO restaurants (id, name, active) VALUES (?, 'restaurant_1', 1)`,
			demo.RestaurantID.String()); err != nil {
			return fmt.Errorf("seed restaurant: %w", err)
		}
		for _, p := range demo.Products {
			if _, err := conn.ExecContext(ctx, `
				INSERT OR IGNORE INTO products (id, name, price, available) VALUES (?, ?, ?, ?)`,
				p.ID.String(), p.Name, p.Price.String(), p.Available); err != nil {
				return fmt.Errorf("seed product %s: %w", p.Name, err)
			}
			if _, err := conn.ExecContext(ctx, `
				INSERT OR IGNORE INTO restaurant_products (restaurant_id, product_id) VALUES (?, ?)`,
				demo.RestaurantID.String(), p.ID.String()); err != nil {
				return fmt.Errorf("seed catalog entry %s: %w", p.Name, err)
			}
		}
		return nil
	})
}
