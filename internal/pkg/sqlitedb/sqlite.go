// Package sqlitedb opens the per-service SQLite database and carries the
// active transaction through a context.Context so repositories, the outbox
// and the saga log all write inside one unit of work.
//
// WAL mode is enabled on Open so that readers never block writers and vice
// versa. The pool holds a single connection: SQLite serialises writers anyway,
// and a single connection keeps the outbox dispatcher and the message
// consumers from tripping over SQLITE_BUSY.
package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"

	// Register the pure-Go SQLite driver.
	_ "modernc.org/sqlite"
)

// Querier is the subset of *sql.DB and *sql.Tx the repositories need.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (or creates) the SQLite database at path and applies each schema
// statement block in order.
//
//	db, err := sqlitedb.Open("./data/order.db", orderSchema, outboxsqlite.Schema)
func Open(path string, schemas ...string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	for _, schema := range schemas {
		if _, err := db.Exec(schema); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlitedb: apply schema: %w", err)
		}
	}
	return db, nil
}

type txKey struct{}

// UnitOfWork runs a function inside a database transaction.
type UnitOfWork struct {
	db *sql.DB
}

func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Do begins a transaction, hands fn a context carrying it, and commits when fn
// returns nil. Nested calls join the outer transaction.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlitedb: begin: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlitedb: commit: %w", err)
	}
	return nil
}

// Conn returns the transaction stored in ctx, or db when there is none.
func Conn(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}
