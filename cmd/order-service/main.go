package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/food-ordering-sagas/internal/order-service/adapters/httpx"
	ordermessaging "github.com/jcmexdev/food-ordering-sagas/internal/order-service/adapters/messaging"
	ordersqlite "github.com/jcmexdev/food-ordering-sagas/internal/order-service/adapters/sqlite"
	"github.com/jcmexdev/food-ordering-sagas/internal/order-service/app"
	"github.com/jcmexdev/food-ordering-sagas/internal/order-service/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/bootstrap"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/cache"
	sagalogsqlite "github.com/jcmexdev/food-ordering-sagas/internal/pkg/saga/sagalog/sqlite"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/sqlitedb"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("order-service: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rt, err := bootstrap.Start(ctx, "order-service", ordersqlite.Schema, sagalogsqlite.Schema)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, logger := rt.Config, rt.Logger

	if cfg.SeedDemoData {
		if err := ordersqlite.Seed(ctx, rt.DB); err != nil {
			return err
		}
		logger.Info("demo data seeded")
	}

	var idempotency cache.Cache
	if cfg.RedisAddr != "" {
		c, closeCache, err := cache.NewRedisCache(ctx, cfg.RedisAddr, "order")
		if err != nil {
			return err
		}
		defer closeCache()
		idempotency = c
	} else {
		logger.Warn("REDIS_ADDR not set, idempotency keys are ignored")
	}

	uow := sqlitedb.NewUnitOfWork(rt.DB)
	orders := ordersqlite.NewOrderRepository(rt.DB)
	sagaLog := sagalogsqlite.NewRepository(rt.DB)
	publisher := ordermessaging.NewOutboxPublisher(rt.Outbox, cfg.Topics.PaymentRequest, cfg.Topics.RestaurantApprovalRequest)
	domainService := domain.NewOrderDomainService()

	orderService := app.NewOrderApplicationService(uow, orders,
		ordersqlite.NewCustomerRepository(rt.DB),
		ordersqlite.NewRestaurantRepository(rt.DB),
		sagaLog, publisher, domainService, logger.Named("order"))
	paymentSaga := app.NewOrderPaymentSaga(uow, orders, sagaLog, publisher, domainService, logger.Named("payment-saga"))
	approvalSaga := app.NewOrderApprovalSaga(uow, orders, sagaLog, publisher, domainService, logger.Named("approval-saga"))

	payments := rt.Consumer(cfg.Topics.PaymentResponse,
		ordermessaging.NewPaymentResponseHandler(app.NewPaymentResponseListener(paymentSaga)).Handle)
	approvals := rt.Consumer(cfg.Topics.RestaurantApprovalResponse,
		ordermessaging.NewRestaurantApprovalResponseHandler(app.NewRestaurantApprovalResponseListener(approvalSaga)).Handle)
	router := httpx.NewRouter(httpx.NewHandler(orderService, idempotency, logger))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rt.Dispatcher().Run(ctx) })
	g.Go(func() error { return payments.Run(ctx) })
	g.Go(func() error { return approvals.Run(ctx) })
	g.Go(func() error { return bootstrap.Serve(ctx, cfg.HTTPAddr, router, logger) })

	logger.Info("order service running", zap.String("http_addr", cfg.HTTPAddr))
	return g.Wait()
}
