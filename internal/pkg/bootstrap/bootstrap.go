// Package bootstrap assembles the pieces every service process shares: config,
// logger, tracer, database, Kafka producer and the outbox dispatcher. Each
// main composes its own domain on top of a Runtime.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/config"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/messaging/kafka"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/outbox"
	outboxsqlite "github.com/jcmexdev/food-ordering-sagas/internal/pkg/outbox/sqlite"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/sqlitedb"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/telemetry"
)

const shutdownTimeout = 5 * time.Second

type Runtime struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *sql.DB
	Producer *kafka.Producer
	Outbox   *outboxsqlite.Store

	closers []func(ctx context.Context) error
}

// Start loads the configuration of service and opens its resources. The
// outbox schema is applied after the given ones. Callers must Close the
// runtime.
func Start(ctx context.Context, service string, schemas ...string) (*Runtime, error) {
	cfg, err := config.Load(service)
	if err != nil {
		return nil, err
	}
	logger, err := telemetry.NewLogger(cfg.Env)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("service", cfg.ServiceName))
	rt := &Runtime{Config: cfg, Logger: logger}
	rt.closers = append(rt.closers, installGlobalLogger(logger))

	shutdownTracer, err := telemetry.SetupTracer(ctx, cfg.ServiceName, cfg.Env)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, shutdownTracer)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			rt.Close()
			return nil, fmt.Errorf("bootstrap: create data dir: %w", err)
		}
	}
	rt.DB, err = sqlitedb.Open(cfg.DatabasePath, append(schemas, outboxsqlite.Schema)...)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, func(context.Context) error { return rt.DB.Close() })
	rt.Outbox = outboxsqlite.NewStore(rt.DB)

	rt.Producer = kafka.NewProducer(cfg.KafkaBrokers, logger)
	rt.closers = append(rt.closers, func(context.Context) error { return rt.Producer.Close() })

	logger.Info("runtime started",
		zap.String("database", cfg.DatabasePath),
		zap.Strings("kafka_brokers", cfg.KafkaBrokers),
	)
	return rt, nil
}

// installGlobalLogger makes logger the zap global for code without an injected
// logger and returns the closer that restores the previous one.
func installGlobalLogger(logger *zap.Logger) func(context.Context) error {
	restore := zap.ReplaceGlobals(logger)
	return func(context.Context) error {
		restore()
		return nil
	}
}

// Close releases the resources in reverse order of acquisition.
func (rt *Runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			rt.Logger.Warn("shutdown error", zap.Error(err))
		}
	}
	_ = rt.Logger.Sync()
}

func (rt *Runtime) Dispatcher() *outbox.Dispatcher {
	return outbox.NewDispatcher(rt.Outbox, rt.Producer, DispatcherConfig(rt.Config.Outbox), rt.Logger)
}

// Consumer reads topic with the service's consumer group and dead-letters
// through the runtime's producer.
func (rt *Runtime) Consumer(topic string, handler kafka.Handler) *kafka.Consumer {
	reader := kafka.NewReader(rt.Config.KafkaBrokers, rt.Config.GroupID, topic)
	return kafka.NewConsumer(reader, rt.Producer, handler, ConsumerConfig(rt.Config.Outbox),
		rt.Logger.Named("consumer").With(zap.String("topic", topic)))
}

func DispatcherConfig(cfg config.Outbox) outbox.DispatcherConfig {
	return outbox.DispatcherConfig{
		PollInterval:   cfg.PollInterval,
		BatchSize:      cfg.BatchSize,
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
	}
}

// ConsumerConfig reuses the outbox backoff bounds for handler retries.
func ConsumerConfig(cfg config.Outbox) kafka.ConsumerConfig {
	return kafka.ConsumerConfig{
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
	}
}

// HealthRouter serves only /healthz, for the services without an API.
func HealthRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return r
}

// Serve runs an HTTP server on addr until ctx is cancelled, then shuts it
// down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("bootstrap: http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
