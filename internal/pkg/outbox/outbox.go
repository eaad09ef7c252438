// Package outbox implements the transactional outbox: a follow-up message is
// stored in the same transaction as the state change that caused it, and a
// Dispatcher delivers stored messages to the broker with retry. A crash
// between "mutate" and "publish" therefore delays a saga step instead of
// stranding it.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	// StatusFailed marks a dead-lettered message that exhausted its attempts.
	StatusFailed Status = "FAILED"
)

type Message struct {
	ID          string
	AggregateID string
	SagaID      string
	Topic       string
	// Key is the partition key. For saga traffic it is always the order id.
	Key           string
	Type          string
	Payload       []byte
	Headers       map[string]string
	Status        Status
	Attempts      int
	LastError     string
	CreatedAt     time.Time
	NextAttemptAt time.Time
	SentAt        *time.Time
}

// NewMessage returns a PENDING message due immediately.
func NewMessage(topic, key, msgType, sagaID string, payload []byte, headers map[string]string) Message {
	now := time.Now().UTC()
	if headers == nil {
		headers = map[string]string{}
	}
	return Message{
		ID:            uuid.NewString(),
		AggregateID:   key,
		SagaID:        sagaID,
		Topic:         topic,
		Key:           key,
		Type:          msgType,
		Payload:       payload,
		Headers:       headers,
		Status:        StatusPending,
		CreatedAt:     now,
		NextAttemptAt: now,
	}
}

// Store persists outbox messages. Append must join the caller's transaction.
type Store interface {
	Append(ctx context.Context, msg Message) error
	// FetchDue returns PENDING messages whose next attempt is due, oldest
	// first, skipping any message queued behind an older pending message with
	// the same key.
	FetchDue(ctx context.Context, now time.Time, limit int) ([]Message, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkRetry(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error
	MarkFailed(ctx context.Context, id string, attempts int, lastErr string) error
}

// Publisher delivers a message to the broker.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte, headers map[string]string) error
}
