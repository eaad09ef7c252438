package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	paymentmessaging "github.com/jcmexdev/food-ordering-sagas/internal/payment-service/adapters/messaging"
	paymentsqlite "github.com/jcmexdev/food-ordering-sagas/internal/payment-service/adapters/sqlite"
	"github.com/jcmexdev/food-ordering-sagas/internal/payment-service/app"
	"github.com/jcmexdev/food-ordering-sagas/internal/payment-service/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/bootstrap"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/sqlitedb"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("payment-service: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rt, err := bootstrap.Start(ctx, "payment-service", paymentsqlite.Schema)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, logger := rt.Config, rt.Logger

	if cfg.SeedDemoData {
		if err := paymentsqlite.Seed(ctx, rt.DB); err != nil {
			return err
		}
		logger.Info("demo credit ledger seeded")
	}

	helper := app.NewPaymentRequestHelper(
		sqlitedb.NewUnitOfWork(rt.DB),
		paymentsqlite.NewPaymentRepository(rt.DB),
		paymentsqlite.NewCreditEntryRepository(rt.DB),
		paymentsqlite.NewCreditHistoryRepository(rt.DB),
		paymentmessaging.NewOutboxPublisher(rt.Outbox, cfg.Topics.PaymentResponse),
		domain.NewPaymentDomainService(),
		logger.Named("payment"),
	)
	requests := rt.Consumer(cfg.Topics.PaymentRequest, paymentmessaging.NewPaymentRequestHandler(helper).Handle)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rt.Dispatcher().Run(ctx) })
	g.Go(func() error { return requests.Run(ctx) })
	g.Go(func() error { return bootstrap.Serve(ctx, cfg.HTTPAddr, bootstrap.HealthRouter(), logger) })

	logger.Info("payment service running")
	return g.Wait()
}
