package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/bootstrap"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/sqlitedb"
	restaurantmessaging "github.com/jcmexdev/food-ordering-sagas/internal/restaurant-service/adapters/messaging"
	restaurantsqlite "github.com/jcmexdev/food-ordering-sagas/internal/restaurant-service/adapters/sqlite"
	"github.com/jcmexdev/food-ordering-sagas/internal/restaurant-service/app"
	"github.com/jcmexdev/food-ordering-sagas/internal/restaurant-service/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("restaurant-service: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rt, err := bootstrap.Start(ctx, "restaurant-service", restaurantsqlite.Schema)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, logger := rt.Config, rt.Logger

	if cfg.SeedDemoData {
		if err := restaurantsqlite.Seed(ctx, rt.DB); err != nil {
			return err
		}
		logger.Info("demo restaurant seeded")
	}

	helper := app.NewRestaurantApprovalRequestHelper(
		sqlitedb.NewUnitOfWork(rt.DB),
		restaurantsqlite.NewRestaurantRepository(rt.DB),
		restaurantsqlite.NewOrderApprovalRepository(rt.DB),
		restaurantmessaging.NewOutboxPublisher(rt.Outbox, cfg.Topics.RestaurantApprovalResponse),
		domain.NewRestaurantDomainService(),
		logger.Named("approval"),
	)
	requests := rt.Consumer(cfg.Topics.RestaurantApprovalRequest, restaurantmessaging.NewRestaurantApprovalRequestHandler(helper).Handle)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rt.Dispatcher().Run(ctx) })
	g.Go(func() error { return requests.Run(ctx) })
	g.Go(func() error { return bootstrap.Serve(ctx, cfg.HTTPAddr, bootstrap.HealthRouter(), logger) })

	logger.Info("restaurant service running")
	return g.Wait()
}
