package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/food-ordering-sagas/internal/order-service/domain"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/sqlitedb"
)

type OrderRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Save inserts a new order with its items and address, or updates the status
// and failure messages of an existing one. Items and address never change
// after creation.
func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	const upsert = `
		INSERT INTO orders
			(id, customer_id, restaurant_id, tracking_id, saga_id, price, status,
			 failure_messages, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status           = excluded.status,
			failure_messages = excluded.failure_messages,
			updated_at       = excluded.updated_at`

	s := order.State()
	failures, err := json.Marshal(s.FailureMessages)
	if err != nil {
		return fmt.Errorf("order repository: encode failure messages: %w", err)
	}
	now := sqlitedb.FormatTime(r.now())

	conn := sqlitedb.Conn(ctx, r.db)
	_, err = conn.ExecContext(ctx, upsert,
		s.ID.String(),
		s.CustomerID.String(),
		s.RestaurantID.String(),
		s.TrackingID.String(),
		s.SagaID.String(),
		s.Price.String(),
		string(s.Status),
		string(failures),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("order repository: save %s: %w", s.ID, err)
	}

	for _, item := range s.Items {
		_, err := conn.ExecContext(ctx, `
			INSERT OR IGNORE INTO order_items (order_id, id, product_id, price, quantity, sub_total)
			VALUES (?, ?, ?, ?, ?, ?)`,
			s.ID.String(), item.ID, item.Product.ID.String(), item.Price.String(), item.Quantity, item.SubTotal.String())
		if err != nil {
			return fmt.Errorf("order repository: save item %d of %s: %w", item.ID, s.ID, err)
		}
	}

	addr := s.DeliveryAddress
	if addr.ID == uuid.Nil {
		addr.ID = uuid.New()
	}
	_, err = conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO order_address (id, order_id, street, postal_code, city)
		VALUES (?, ?, ?, ?, ?)`,
		addr.ID.String(), s.ID.String(), addr.Street, addr.PostalCode, addr.City)
	if err != nil {
		return fmt.Errorf("order repository: save address of %s: %w", s.ID, err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id common.OrderID) (*domain.Order, error) {
	order, err := r.find(ctx, "id", id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFound("Could not find order with order id: %s", id)
	}
	return order, err
}

func (r *OrderRepository) FindByTrackingID(ctx context.Context, id common.TrackingID) (*domain.Order, error) {
	order, err := r.find(ctx, "tracking_id", id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFound("Could not find order with tracking id: %s", id)
	}
	return order, err
}

// find loads the order row first and its children afterwards. The pool holds
// a single connection, so no two result sets may be open at once.
func (r *OrderRepository) find(ctx context.Context, column, value string) (*domain.Order, error) {
	q := `
		SELECT id, customer_id, restaurant_id, tracking_id, saga_id, price, status, failure_messages
		FROM   orders
		WHERE  ` + column + ` = ?`

	var (
		s                                   domain.OrderState
		id, customerID, restaurantID        string
		trackingID, sagaID, price, failures string
		status                              string
	)
	conn := sqlitedb.Conn(ctx, r.db)
	err := conn.QueryRowContext(ctx, q, value).
		Scan(&id, &customerID, &restaurantID, &trackingID, &sagaID, &price, &status, &failures)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("order repository: find by %s %s: %w", column, value, err)
	}

	if s.ID, err = common.ParseID[common.OrderID](id); err != nil {
		return nil, fmt.Errorf("order repository: order id: %w", err)
	}
	if s.CustomerID, err = common.ParseID[common.CustomerID](customerID); err != nil {
		return nil, fmt.Errorf("order repository: customer id of %s: %w", id, err)
	}
	if s.RestaurantID, err = common.ParseID[common.RestaurantID](restaurantID); err != nil {
		return nil, fmt.Errorf("order repository: restaurant id of %s: %w", id, err)
	}
	if s.TrackingID, err = common.ParseID[common.TrackingID](trackingID); err != nil {
		return nil, fmt.Errorf("order repository: tracking id of %s: %w", id, err)
	}
	if s.SagaID, err = common.ParseID[common.SagaID](sagaID); err != nil {
		return nil, fmt.Errorf("order repository: saga id of %s: %w", id, err)
	}
	if s.Price, err = common.MoneyFromString(price); err != nil {
		return nil, err
	}
	s.Status = common.OrderStatus(status)
	if err := json.Unmarshal([]byte(failures), &s.FailureMessages); err != nil {
		return nil, fmt.Errorf("order repository: decode failure messages of %s: %w", id, err)
	}

	if s.Items, err = r.items(ctx, conn, s.ID); err != nil {
		return nil, err
	}
	if s.DeliveryAddress, err = r.address(ctx, conn, s.ID); err != nil {
		return nil, err
	}
	return domain.RehydrateOrder(s), nil
}

func (r *OrderRepository) items(ctx context.Context, conn sqlitedb.Querier, orderID common.OrderID) ([]domain.OrderItem, error) {
	rows, err := conn.QueryContext(ctx, `
		SELECT id, product_id, price, quantity, sub_total
		FROM   order_items
		WHERE  order_id = ?
		ORDER  BY id`, orderID.String())
	if err != nil {
		return nil, fmt.Errorf("order repository: items of %s: %w", orderID, err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var (
			item                       domain.OrderItem
			productID, price, subTotal string
		)
		if err := rows.Scan(&item.ID, &productID, &price, &item.Quantity, &subTotal); err != nil {
			return nil, fmt.Errorf("order repository: scan item: %w", err)
		}
		item.OrderID = orderID
		if item.Product.ID, err = common.ParseID[common.ProductID](productID); err != nil {
			return nil, fmt.Errorf("order repository: product id of item %d: %w", item.ID, err)
		}
		if item.Price, err = common.MoneyFromString(price); err != nil {
			return nil, err
		}
		if item.SubTotal, err = common.MoneyFromString(subTotal); err != nil {
			return nil, err
		}
		// The stored price was confirmed against the catalog when the order
		// was created.
		item.Product.Price = item.Price
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *OrderRepository) address(ctx context.Context, conn sqlitedb.Querier, orderID common.OrderID) (domain.StreetAddress, error) {
	var (
		addr domain.StreetAddress
		id   string
	)
	err := conn.QueryRowContext(ctx, `
		SELECT id, street, postal_code, city FROM order_address WHERE order_id = ?`, orderID.String()).
		Scan(&id, &addr.Street, &addr.PostalCode, &addr.City)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StreetAddress{}, nil
	}
	if err != nil {
		return domain.StreetAddress{}, fmt.Errorf("order repository: address of %s: %w", orderID, err)
	}
	if addr.ID, err = uuid.Parse(id); err != nil {
		return domain.StreetAddress{}, fmt.Errorf("order repository: address id of %s: %w", orderID, err)
	}
	return addr, nil
}
