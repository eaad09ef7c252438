package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/propagation"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/telemetry"
)

type DispatcherConfig struct {
	PollInterval   time.Duration
	BatchSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Dispatcher relays stored messages to the broker.
type Dispatcher struct {
	store     Store
	publisher Publisher
	cfg       DispatcherConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewDispatcher(store Store, publisher Publisher, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.Named("outbox"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run polls until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.cfg.PollInterval <= 0 {
		return fmt.Errorf("outbox: poll interval must be positive, got %s", d.cfg.PollInterval)
	}
	d.logger.Info("outbox dispatcher started", zap.Duration("poll_interval", d.cfg.PollInterval))
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := d.DispatchOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("outbox dispatch failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			d.logger.Info("outbox dispatcher stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// DispatchOnce delivers one batch of due messages and returns how many were
// sent. A failed message blocks the rest of its key for this batch so that
// per-order ordering survives retries.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	due, err := d.store.FetchDue(ctx, d.now(), d.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	blocked := map[string]bool{}
	for _, msg := range due {
		if blocked[msg.Key] {
			continue
		}
		if err := d.deliver(ctx, msg); err != nil {
			blocked[msg.Key] = true
			if markErr := d.handleFailure(ctx, msg, err); markErr != nil {
				return sent, markErr
			}
			continue
		}
		if err := d.store.MarkSent(ctx, msg.ID, d.now()); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) error {
	ctx = propagation.Extract(ctx, msg.Headers)
	ctx, span := otel.Tracer("outbox").Start(ctx, "outbox.deliver")
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.destination", msg.Topic),
		attribute.String("messaging.message.type", msg.Type),
		attribute.String("saga.id", msg.SagaID),
	)

	headers := make(map[string]string, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[propagation.HeaderMessageType] = msg.Type
	if msg.SagaID != "" {
		headers[propagation.HeaderSagaID] = msg.SagaID
	}

	if err := d.publisher.Publish(ctx, msg.Topic, msg.Key, msg.Payload, headers); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		return err
	}
	telemetry.WithTrace(ctx, d.logger).Debug("outbox message sent",
		zap.String("id", msg.ID),
		zap.String("topic", msg.Topic),
		zap.String("type", msg.Type),
		zap.String("key", msg.Key),
	)
	return nil
}

func (d *Dispatcher) handleFailure(ctx context.Context, msg Message, cause error) error {
	attempts := msg.Attempts + 1
	if attempts >= d.cfg.MaxAttempts {
		d.logger.Error("outbox message dead-lettered",
			zap.String("id", msg.ID),
			zap.String("topic", msg.Topic),
			zap.String("type", msg.Type),
			zap.String("saga_id", msg.SagaID),
			zap.Int("attempts", attempts),
			zap.Error(cause),
		)
		return d.store.MarkFailed(ctx, msg.ID, attempts, cause.Error())
	}

	delay := d.retryDelay(attempts)
	d.logger.Warn("outbox publish failed, will retry",
		zap.String("id", msg.ID),
		zap.String("topic", msg.Topic),
		zap.Int("attempts", attempts),
		zap.Duration("retry_in", delay),
		zap.Error(cause),
	)
	return d.store.MarkRetry(ctx, msg.ID, attempts, d.now().Add(delay), cause.Error())
}

// retryDelay is the exponential delay before the given attempt, without jitter.
func (d *Dispatcher) retryDelay(attempt int) time.Duration {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     d.cfg.InitialBackoff,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         d.cfg.MaxBackoff,
	}
	b.Reset()

	var delay time.Duration
	for i := 0; i < attempt; i++ {
		delay = b.NextBackOff()
	}
	return delay
}
