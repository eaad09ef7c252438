// Package app is the order service's application layer: the create and track
// use cases and the two saga coordinators driven by payment and restaurant
// responses.
package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jcmexdev/food-ordering-sagas/internal/order-service/domain"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/saga/sagalog"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/telemetry"
)

var tracer = otel.Tracer("order-service")

type OrderApplicationService struct {
	uow             UnitOfWork
	orders          OrderRepository
	customers       CustomerRepository
	restaurants     RestaurantRepository
	sagaLog         SagaLogRepository
	paymentRequests OrderCreatedPaymentRequestPublisher
	domainService   *domain.OrderDomainService
	logger          *zap.Logger
}

func NewOrderApplicationService(
	uow UnitOfWork,
	orders OrderRepository,
	customers CustomerRepository,
	restaurants RestaurantRepository,
	sagaLog SagaLogRepository,
	paymentRequests OrderCreatedPaymentRequestPublisher,
	domainService *domain.OrderDomainService,
	logger *zap.Logger,
) *OrderApplicationService {
	return &OrderApplicationService{
		uow:             uow,
		orders:          orders,
		customers:       customers,
		restaurants:     restaurants,
		sagaLog:         sagaLog,
		paymentRequests: paymentRequests,
		domainService:   domainService,
		logger:          logger,
	}
}

// CreateOrder validates and stores a new order and queues its payment
// request in the same transaction.
func (s *OrderApplicationService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (CreateOrderResponse, error) {
	ctx, span := tracer.Start(ctx, "OrderApplicationService.CreateOrder")
	defer span.End()

	var evt domain.OrderCreatedEvent
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		if err := s.checkCustomer(ctx, cmd.CustomerID); err != nil {
			return err
		}
		restaurant, err := s.checkRestaurant(ctx, cmd)
		if err != nil {
			return err
		}

		order := domain.NewOrder(orderParams(cmd))
		evt, err = s.domainService.ValidateAndInitiateOrder(order, restaurant)
		if err != nil {
			return err
		}
		if err := s.orders.Save(ctx, order); err != nil {
			return fmt.Errorf("app: save order: %w", err)
		}
		if err := s.paymentRequests.PublishOrderCreated(ctx, evt); err != nil {
			return fmt.Errorf("app: publish order created: %w", err)
		}
		return s.sagaLog.Save(ctx, sagalog.NewEntry(ctx, order.SagaID().String(), order.ID().String(),
			order.Status(), sagalog.StepOrderCreated, payload(cmd), nil))
	})
	if err != nil {
		telemetry.WithTrace(ctx, s.logger).Warn("order creation failed", zap.Error(err))
		return CreateOrderResponse{}, err
	}

	span.SetAttributes(
		attribute.String("order.id", evt.Order.ID.String()),
		attribute.String("saga.id", evt.Order.SagaID.String()),
	)
	telemetry.WithTrace(ctx, s.logger).Info("order created",
		zap.String("order_id", evt.Order.ID.String()),
		zap.String("tracking_id", evt.Order.TrackingID.String()),
		zap.String("saga_id", evt.Order.SagaID.String()),
	)
	return CreateOrderResponse{
		OrderTrackingID: evt.Order.TrackingID,
		OrderStatus:     evt.Order.Status,
		Message:         "Order created successfully.",
	}, nil
}

// TrackOrder returns the current status of an order and of its saga.
func (s *OrderApplicationService) TrackOrder(ctx context.Context, trackingID common.TrackingID) (TrackOrderResponse, error) {
	order, err := s.findByTrackingID(ctx, trackingID)
	if err != nil {
		return TrackOrderResponse{}, err
	}
	resp := TrackOrderResponse{
		OrderTrackingID: order.TrackingID(),
		OrderStatus:     order.Status(),
		FailureMessages: order.FailureMessages(),
	}
	latest, err := s.sagaLog.GetLatest(ctx, order.SagaID().String())
	switch {
	case err == nil:
		resp.SagaStatus = latest.Status
	case !common.IsNotFound(err):
		return TrackOrderResponse{}, fmt.Errorf("app: latest saga log entry: %w", err)
	}
	return resp, nil
}

// SagaLog returns every recorded transition of the order's saga.
func (s *OrderApplicationService) SagaLog(ctx context.Context, trackingID common.TrackingID) ([]sagalog.Entry, error) {
	order, err := s.findByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	return s.sagaLog.List(ctx, order.SagaID().String())
}

func (s *OrderApplicationService) findByTrackingID(ctx context.Context, trackingID common.TrackingID) (*domain.Order, error) {
	order, err := s.orders.FindByTrackingID(ctx, trackingID)
	if common.IsNotFound(err) {
		return nil, common.NotFound("Could not find order with tracking id: %s", trackingID)
	}
	if err != nil {
		return nil, fmt.Errorf("app: find order by tracking id: %w", err)
	}
	return order, nil
}

func (s *OrderApplicationService) checkCustomer(ctx context.Context, id common.CustomerID) error {
	_, err := s.customers.FindByID(ctx, id)
	if common.IsNotFound(err) {
		telemetry.WithTrace(ctx, s.logger).Warn("customer does not exist", zap.String("customer_id", id.String()))
		return common.NotFound("Customer does not exist")
	}
	if err != nil {
		return fmt.Errorf("app: find customer: %w", err)
	}
	return nil
}

func (s *OrderApplicationService) checkRestaurant(ctx context.Context, cmd CreateOrderCommand) (domain.Restaurant, error) {
	productIDs := make([]common.ProductID, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		productIDs = append(productIDs, item.ProductID)
	}

	restaurant, err := s.restaurants.FindRestaurant(ctx, cmd.RestaurantID, productIDs)
	if common.IsNotFound(err) {
		return domain.Restaurant{}, common.NotFound("Restaurant does not exists")
	}
	if err != nil {
		return domain.Restaurant{}, fmt.Errorf("app: find restaurant: %w", err)
	}
	return restaurant, nil
}

func orderParams(cmd CreateOrderCommand) domain.NewOrderParams {
	items := make([]domain.OrderItem, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		items = append(items, domain.NewOrderItem(item.ProductID, item.Quantity, item.Price, item.SubTotal))
	}
	return domain.NewOrderParams{
		CustomerID:   cmd.CustomerID,
		RestaurantID: cmd.RestaurantID,
		Price:        cmd.Price,
		Items:        items,
		DeliveryAddress: domain.StreetAddress{
			ID:         uuid.New(),
			Street:     cmd.Address.Street,
			PostalCode: cmd.Address.PostalCode,
			City:       cmd.Address.City,
		},
	}
}

// payload renders v for the saga log. The log is an audit aid, so an
// unencodable value is recorded as empty.
func payload(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
