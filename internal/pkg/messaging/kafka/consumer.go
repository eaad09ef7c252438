package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/messaging"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/propagation"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/telemetry"
)

// HeaderDLQError carries the reason a message was dead-lettered.
const HeaderDLQError = "x-dlq-error"

// DLQSuffix is appended to a topic name to form its dead letter topic.
const DLQSuffix = ".dlq"

// Handler processes one message. Returning an invariant or not-found error, or
// messaging.ErrUndecodable, dead-letters the message without retrying.
type Handler func(ctx context.Context, msg messaging.Message) error

// Reader is the part of *kafka.Reader the consumer uses.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends dead-lettered messages. *Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte, headers map[string]string) error
}

type ConsumerConfig struct {
	MaxRetries     uint
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Consumer reads one topic and commits each offset only after the handler
// succeeded or the message was dead-lettered.
type Consumer struct {
	reader  Reader
	dlq     Publisher
	handler Handler
	cfg     ConsumerConfig
	logger  *zap.Logger
}

// NewReader builds a consumer-group reader with explicit commits.
func NewReader(brokers []string, groupID, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
}

func NewConsumer(reader Reader, dlq Publisher, handler Handler, cfg ConsumerConfig, logger *zap.Logger) *Consumer {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	return &Consumer{reader: reader, dlq: dlq, handler: handler, cfg: cfg, logger: logger}
}

// Run consumes until ctx is cancelled, then closes the reader.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Warn("closing kafka reader", zap.Error(err))
		}
	}()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka: fetch: %w", err)
		}

		if err := c.process(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka: commit %s/%d@%d: %w", m.Topic, m.Partition, m.Offset, err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, m kafka.Message) error {
	msg := messaging.Message{
		Topic:     m.Topic,
		Key:       string(m.Key),
		Value:     m.Value,
		Headers:   fromKafkaHeaders(m.Headers),
		Partition: m.Partition,
		Offset:    m.Offset,
	}

	ctx = propagation.Extract(ctx, msg.Headers)
	ctx, span := otel.Tracer("kafka").Start(ctx, "consume "+msg.Topic, trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.destination", msg.Topic),
		attribute.String("messaging.message.type", msg.Headers[propagation.HeaderMessageType]),
		attribute.String("messaging.kafka.message.key", msg.Key),
		attribute.Int64("messaging.kafka.offset", msg.Offset),
	)
	logger := telemetry.WithTrace(ctx, c.logger).With(
		zap.String("topic", msg.Topic),
		zap.String("key", msg.Key),
		zap.Int64("offset", msg.Offset),
	)

	b := &backoff.ExponentialBackOff{
		InitialInterval:     c.cfg.InitialBackoff,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         c.cfg.MaxBackoff,
	}
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := c.handler(ctx, msg)
		if err != nil && IsPermanent(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.cfg.MaxRetries),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("message handling failed, retrying", zap.Duration("retry_in", next), zap.Error(err))
		}),
	)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "dead-lettered")
	logger.Error("message dead-lettered", zap.Bool("permanent", IsPermanent(err)), zap.Error(err))
	return c.deadLetter(ctx, msg, err)
}

func (c *Consumer) deadLetter(ctx context.Context, msg messaging.Message, cause error) error {
	headers := make(map[string]string, len(msg.Headers)+1)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderDLQError] = cause.Error()

	if err := c.dlq.Publish(ctx, msg.Topic+DLQSuffix, msg.Key, msg.Value, headers); err != nil {
		return fmt.Errorf("kafka: dead-letter %s key=%s: %w", msg.Topic, msg.Key, err)
	}
	return nil
}

// IsPermanent reports whether retrying err can never succeed.
func IsPermanent(err error) bool {
	return domain.IsInvariant(err) || domain.IsNotFound(err) || errors.Is(err, messaging.ErrUndecodable)
}
