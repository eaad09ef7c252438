// Package sqlite provides a SQLite-backed implementation of outbox.Store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/outbox"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/sqlitedb"
)

// Schema is the DDL for the outbox table. Pass it to sqlitedb.Open next to the
// service's own schema so both live in the same database file.
const Schema = `
CREATE TABLE IF NOT EXISTS outbox_messages (
    id              TEXT    PRIMARY KEY,
    aggregate_id    TEXT    NOT NULL,
    saga_id         TEXT    NOT NULL DEFAULT '',
    topic           TEXT    NOT NULL,
    message_key     TEXT    NOT NULL,
    message_type    TEXT    NOT NULL,
    payload         BLOB    NOT NULL,
    -- JSON object of string headers (trace context, request id).
    headers         TEXT    NOT NULL DEFAULT '{}',
    status          TEXT    NOT NULL,
    attempts        INTEGER NOT NULL DEFAULT 0,
    last_error      TEXT    NOT NULL DEFAULT '',
    created_at      TEXT    NOT NULL,
    next_attempt_at TEXT    NOT NULL,
    sent_at         TEXT
);

CREATE INDEX IF NOT EXISTS idx_outbox_due ON outbox_messages(status, next_attempt_at);
CREATE INDEX IF NOT EXISTS idx_outbox_key ON outbox_messages(message_key, status);
`

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts msg using the transaction in ctx, if any.
func (s *Store) Append(ctx context.Context, msg outbox.Message) error {
	const q = `
		INSERT INTO outbox_messages
			(id, aggregate_id, saga_id, topic, message_key, message_type, payload, headers,
			 status, attempts, last_error, created_at, next_attempt_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	headers, err := json.Marshal(msg.Headers)
	if err != nil {
		return fmt.Errorf("outbox: encode headers: %w", err)
	}
	status := msg.Status
	if status == "" {
		status = outbox.StatusPending
	}

	_, err = sqlitedb.Conn(ctx, s.db).ExecContext(ctx, q,
		msg.ID,
		msg.AggregateID,
		msg.SagaID,
		msg.Topic,
		msg.Key,
		msg.Type,
		msg.Payload,
		string(headers),
		string(status),
		msg.Attempts,
		msg.LastError,
		sqlitedb.FormatTime(msg.CreatedAt),
		sqlitedb.FormatTime(msg.NextAttemptAt),
	)
	if err != nil {
		return fmt.Errorf("outbox: append %s for %q: %w", msg.Type, msg.Key, err)
	}
	return nil
}

// FetchDue returns due PENDING messages in insertion order. A message is held
// back while an older PENDING message with the same key exists, even if that
// older one is still waiting for its retry.
func (s *Store) FetchDue(ctx context.Context, now time.Time, limit int) ([]outbox.Message, error) {
	const q = `
		SELECT m.id, m.aggregate_id, m.saga_id, m.topic, m.message_key, m.message_type,
		       m.payload, m.headers, m.status, m.attempts, m.last_error,
		       m.created_at, m.next_attempt_at
		FROM   outbox_messages m
		WHERE  m.status = 'PENDING'
		  AND  m.next_attempt_at <= ?
		  AND  NOT EXISTS (
		         SELECT 1 FROM outbox_messages o
		         WHERE  o.message_key = m.message_key
		           AND  o.status = 'PENDING'
		           AND  o.rowid < m.rowid)
		ORDER  BY m.rowid
		LIMIT  ?`

	rows, err := sqlitedb.Conn(ctx, s.db).QueryContext(ctx, q, sqlitedb.FormatTime(now), limit)
	if err != nil {
		return nil, fmt.Errorf("outbox: fetch due: %w", err)
	}
	defer rows.Close()

	var out []outbox.Message
	for rows.Next() {
		var (
			m                    outbox.Message
			headers, status      string
			createdAt, nextAfter string
		)
		if err := rows.Scan(&m.ID, &m.AggregateID, &m.SagaID, &m.Topic, &m.Key, &m.Type,
			&m.Payload, &headers, &status, &m.Attempts, &m.LastError, &createdAt, &nextAfter); err != nil {
			return nil, fmt.Errorf("outbox: scan: %w", err)
		}
		m.Status = outbox.Status(status)
		if err := json.Unmarshal([]byte(headers), &m.Headers); err != nil {
			return nil, fmt.Errorf("outbox: decode headers of %s: %w", m.ID, err)
		}
		if m.CreatedAt, err = sqlitedb.ParseTime(createdAt); err != nil {
			return nil, err
		}
		if m.NextAttemptAt, err = sqlitedb.ParseTime(nextAfter); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) MarkSent(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE outbox_messages SET status = 'SENT', sent_at = ? WHERE id = ?`
	return s.update(ctx, id, q, sqlitedb.FormatTime(at), id)
}

func (s *Store) MarkRetry(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error {
	const q = `
		UPDATE outbox_messages
		SET    attempts = ?, next_attempt_at = ?, last_error = ?
		WHERE  id = ?`
	return s.update(ctx, id, q, attempts, sqlitedb.FormatTime(next), lastErr, id)
}

func (s *Store) MarkFailed(ctx context.Context, id string, attempts int, lastErr string) error {
	const q = `
		UPDATE outbox_messages
		SET    status = 'FAILED', attempts = ?, last_error = ?
		WHERE  id = ?`
	return s.update(ctx, id, q, attempts, lastErr, id)
}

func (s *Store) update(ctx context.Context, id, q string, args ...any) error {
	res, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("outbox: update %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("outbox: message %q not found", id)
	}
	return nil
}
