// Package sqlite stores payments and the customers' credit ledger in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/food-ordering-sagas/internal/payment-service/domain"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/sqlitedb"
)

const Schema = `
CREATE TABLE IF NOT EXISTS payments (
    id          TEXT PRIMARY KEY,
    order_id    TEXT NOT NULL UNIQUE,
    customer_id TEXT NOT NULL,
    price       TEXT NOT NULL,
    status      TEXT NOT NULL,
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS credit_entry (
    id                  TEXT PRIMARY KEY,
    customer_id         TEXT NOT NULL UNIQUE,
    total_credit_amount TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS credit_history (
    id          TEXT PRIMARY KEY,
    customer_id TEXT NOT NULL,
    amount      TEXT NOT NULL,
    type        TEXT NOT NULL CHECK (type IN ('CREDIT', 'DEBIT'))
);

CREATE INDEX IF NOT EXISTS idx_credit_history_customer ON credit_history(customer_id);
`

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Save(ctx context.Context, payment *domain.Payment) error {
	const q = `
		INSERT INTO payments (id, order_id, customer_id, price, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status`

	s := payment.State()
	_, err := sqlitedb.Conn(ctx, r.db).ExecContext(ctx, q,
		s.ID.String(),
		s.OrderID.String(),
		s.CustomerID.String(),
		s.Price.String(),
		string(s.Status),
		sqlitedb.FormatTime(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("payment repository: save %s: %w", s.ID, err)
	}
	return nil
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID common.OrderID) (*domain.Payment, error) {
	const q = `
		SELECT id, customer_id, price, status, created_at
		FROM   payments
		WHERE  order_id = ?`

	var (
		s                             domain.PaymentState
		id, customerID, price, status string
		createdAt                     string
	)
	err := sqlitedb.Conn(ctx, r.db).QueryRowContext(ctx, q, orderID.String()).
		Scan(&id, &customerID, &price, &status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFound("Could not find payment for order %s", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("payment repository: find by order %s: %w", orderID, err)
	}

	s.OrderID = orderID
	s.Status = common.PaymentStatus(status)
	if s.ID, err = common.ParseID[common.PaymentID](id); err != nil {
		return nil, fmt.Errorf("payment repository: payment id: %w", err)
	}
	if s.CustomerID, err = common.ParseID[common.CustomerID](customerID); err != nil {
		return nil, fmt.Errorf("payment repository: customer id of %s: %w", id, err)
	}
	if s.Price, err = common.MoneyFromString(price); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = sqlitedb.ParseTime(createdAt); err != nil {
		return nil, err
	}
	return domain.RehydratePayment(s), nil
}

type CreditEntryRepository struct {
	db *sql.DB
}

func NewCreditEntryRepository(db *sql.DB) *CreditEntryRepository {
	return &CreditEntryRepository{db: db}
}

func (r *CreditEntryRepository) FindByCustomerID(ctx context.Context, customerID common.CustomerID) (*domain.CreditEntry, error) {
	var id, total string
	err := sqlitedb.Conn(ctx, r.db).
		QueryRowContext(ctx, `SELECT id, total_credit_amount FROM credit_entry WHERE customer_id = ?`, customerID.String()).
		Scan(&id, &total)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFound("Could not find credit entry for customer %s", customerID)
	}
	if err != nil {
		return nil, fmt.Errorf("credit entry repository: find %s: %w", customerID, err)
	}

	entry := &domain.CreditEntry{CustomerID: customerID}
	if entry.ID, err = common.ParseID[common.CreditEntryID](id); err != nil {
		return nil, fmt.Errorf("credit entry repository: id: %w", err)
	}
	if entry.TotalCreditAmount, err = common.MoneyFromString(total); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *CreditEntryRepository) Save(ctx context.Context, entry *domain.CreditEntry) error {
	const q = `
		INSERT INTO credit_entry (id, customer_id, total_credit_amount)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET total_credit_amount = excluded.total_credit_amount`

	_, err := sqlitedb.Conn(ctx, r.db).ExecContext(ctx, q,
		entry.ID.String(), entry.CustomerID.String(), entry.TotalCreditAmount.String())
	if err != nil {
		return fmt.Errorf("credit entry repository: save %s: %w", entry.ID, err)
	}
	return nil
}

type CreditHistoryRepository struct {
	db *sql.DB
}

func NewCreditHistoryRepository(db *sql.DB) *CreditHistoryRepository {
	return &CreditHistoryRepository{db: db}
}

// FindByCustomerID returns the customer's ledger in insertion order. A
// customer with no rows at all is reported as not found.
func (r *CreditHistoryRepository) FindByCustomerID(ctx context.Context, customerID common.CustomerID) ([]domain.CreditHistory, error) {
	rows, err := sqlitedb.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT id, amount, type
		FROM   credit_history
		WHERE  customer_id = ?
		ORDER  BY rowid`, customerID.String())
	if err != nil {
		return nil, fmt.Errorf("credit history repository: find %s: %w", customerID, err)
	}
	defer rows.Close()

	var out []domain.CreditHistory
	for rows.Next() {
		var id, amount, txType string
		if err := rows.Scan(&id, &amount, &txType); err != nil {
			return nil, fmt.Errorf("credit history repository: scan: %w", err)
		}
		h := domain.CreditHistory{CustomerID: customerID, TransactionType: domain.TransactionType(txType)}
		if h.ID, err = common.ParseID[common.CreditHistoryID](id); err != nil {
			return nil, fmt.Errorf("credit history repository: id: %w", err)
		}
		if h.Amount, err = common.MoneyFromString(amount); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, common.NotFound("Could not find credit history for customer %s", customerID)
	}
	return out, nil
}

func (r *CreditHistoryRepository) Save(ctx context.Context, h domain.CreditHistory) error {
	_, err := sqlitedb.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO credit_history (id, customer_id, amount, type) VALUES (?, ?, ?, ?)`,
		h.ID.String(), h.CustomerID.String(), h.Amount.String(), string(h.TransactionType))
	if err != nil {
		return fmt.Errorf("credit history repository: save %s: %w", h.ID, err)
	}
	return nil
}
