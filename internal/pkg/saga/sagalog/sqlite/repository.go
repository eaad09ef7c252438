// Package sqlite provides a SQLite-backed implementation of sagalog.Repository.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/saga"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/saga/sagalog"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/sqlitedb"
)

// Schema is the DDL for the saga log. The table is append-only: each row is
// an immutable event in the saga's lifecycle.
const Schema = `
CREATE TABLE IF NOT EXISTS saga_logs (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,

    -- Correlation id carried on every message of one saga.
    -- Not UNIQUE because multiple rows exist per saga (one per transition).
    saga_id          TEXT NOT NULL,
    order_id         TEXT NOT NULL,
    status           TEXT NOT NULL,
    order_status     TEXT NOT NULL,
    step             TEXT NOT NULL DEFAULT '',

    -- JSON message that triggered the step, NULL for steps without one.
    payload          TEXT,

    -- JSON array of failure messages reported by the step.
    failure_messages TEXT NOT NULL DEFAULT '[]',

    -- W3C ids of the span active when the row was written.
    trace_id         TEXT NOT NULL DEFAULT '',
    span_id          TEXT NOT NULL DEFAULT '',
    created_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_saga_logs_saga_id ON saga_logs(saga_id, id);
CREATE INDEX IF NOT EXISTS idx_saga_logs_trace_id ON saga_logs(trace_id);
`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save appends entry using the transaction in ctx, if any.
func (r *Repository) Save(ctx context.Context, entry sagalog.Entry) error {
	const q = `
		INSERT INTO saga_logs
			(saga_id, order_id, status, order_status, step, payload, failure_messages, trace_id, span_id, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	failures := entry.FailureMessages
	if failures == nil {
		failures = []string{}
	}
	failuresJSON, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("sqlite: encode failure messages: %w", err)
	}

	_, err = sqlitedb.Conn(ctx, r.db).ExecContext(ctx, q,
		entry.SagaID,
		entry.OrderID,
		string(entry.Status),
		string(entry.OrderStatus),
		entry.Step,
		nullableString(entry.Payload),
		string(failuresJSON),
		entry.TraceID,
		entry.SpanID,
		sqlitedb.FormatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save saga log for %q: %w", entry.SagaID, err)
	}
	return nil
}

// List returns every entry of a saga in the order they were written.
func (r *Repository) List(ctx context.Context, sagaID string) ([]sagalog.Entry, error) {
	const q = `
		SELECT saga_id, order_id, status, order_status, step, COALESCE(payload, ''),
		       failure_messages, trace_id, span_id, created_at
		FROM   saga_logs
		WHERE  saga_id = ?
		ORDER  BY id`

	rows, err := sqlitedb.Conn(ctx, r.db).QueryContext(ctx, q, sagaID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list saga log for %q: %w", sagaID, err)
	}
	defer rows.Close()

	var out []sagalog.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// GetLatest returns the most recent entry for a saga.
func (r *Repository) GetLatest(ctx context.Context, sagaID string) (sagalog.Entry, error) {
	const q = `
		SELECT saga_id, order_id, status, order_status, step, COALESCE(payload, ''),
		       failure_messages, trace_id, span_id, created_at
		FROM   saga_logs
		WHERE  saga_id = ?
		ORDER  BY id DESC
		LIMIT  1`

	entry, err := scanEntry(sqlitedb.Conn(ctx, r.db).QueryRowContext(ctx, q, sagaID))
	if err == sql.ErrNoRows {
		return sagalog.Entry{}, domain.NotFound("Could not find saga log for saga id: %s", sagaID)
	}
	return entry, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (sagalog.Entry, error) {
	var (
		entry               sagalog.Entry
		status, orderStatus string
		failures, createdAt string
	)
	err := s.Scan(&entry.SagaID, &entry.OrderID, &status, &orderStatus, &entry.Step, &entry.Payload,
		&failures, &entry.TraceID, &entry.SpanID, &createdAt)
	if err == sql.ErrNoRows {
		return entry, err
	}
	if err != nil {
		return entry, fmt.Errorf("sqlite: scan saga log: %w", err)
	}

	entry.Status = saga.Status(status)
	entry.OrderStatus = domain.OrderStatus(orderStatus)
	if err := json.Unmarshal([]byte(failures), &entry.FailureMessages); err != nil {
		return entry, fmt.Errorf("sqlite: decode failure messages: %w", err)
	}
	if entry.CreatedAt, err = sqlitedb.ParseTime(createdAt); err != nil {
		return entry, err
	}
	return entry, nil
}

// nullableString stores NULL instead of an empty TEXT.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
