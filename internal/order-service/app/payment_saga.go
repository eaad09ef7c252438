package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jcmexdev/food-ordering-sagas/internal/order-service/domain"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/saga"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/saga/sagalog"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/telemetry"
)

var _ saga.Step[PaymentResponse] = (*OrderPaymentSaga)(nil)

// OrderPaymentSaga advances an order on payment responses: a completed
// payment pays the order and requests restaurant approval, a cancelled or
// failed payment cancels it.
type OrderPaymentSaga struct {
	uow              UnitOfWork
	orders           OrderRepository
	sagaLog          SagaLogRepository
	approvalRequests OrderPaidRestaurantRequestPublisher
	domainService    *domain.OrderDomainService
	logger           *zap.Logger
}

func NewOrderPaymentSaga(
	uow UnitOfWork,
	orders OrderRepository,
	sagaLog SagaLogRepository,
	approvalRequests OrderPaidRestaurantRequestPublisher,
	domainService *domain.OrderDomainService,
	logger *zap.Logger,
) *OrderPaymentSaga {
	return &OrderPaymentSaga{
		uow:              uow,
		orders:           orders,
		sagaLog:          sagaLog,
		approvalRequests: approvalRequests,
		domainService:    domainService,
		logger:           logger,
	}
}

// Process pays a PENDING order. Any later status means the response was
// already applied, and the call is a no-op.
func (s *OrderPaymentSaga) Process(ctx context.Context, resp PaymentResponse) error {
	ctx, span := startStep(ctx, "OrderPaymentSaga.Process", resp.OrderID, resp.SagaID)
	defer span.End()
	logger := telemetry.WithTrace(ctx, s.logger).With(zap.String("order_id", resp.OrderID.String()))

	return s.uow.Do(ctx, func(ctx context.Context) error {
		order, ok, err := loadForStep(ctx, s.orders, resp.OrderID, resp.SagaID, logger)
		if err != nil || !ok {
			return err
		}
		if order.Status() != common.OrderStatusPending {
			logger.Info("payment already applied, skipping", zap.String("status", string(order.Status())))
			return nil
		}

		evt, err := s.domainService.PayOrder(order)
		if err != nil {
			return err
		}
		if err := s.orders.Save(ctx, order); err != nil {
			return fmt.Errorf("app: save paid order: %w", err)
		}
		if err := s.approvalRequests.PublishOrderPaid(ctx, evt); err != nil {
			return fmt.Errorf("app: publish order paid: %w", err)
		}
		if err := s.sagaLog.Save(ctx, sagalog.NewEntry(ctx, order.SagaID().String(), order.ID().String(),
			order.Status(), sagalog.StepPaymentCompleted, payload(resp), nil)); err != nil {
			return err
		}
		logger.Info("order is paid")
		return nil
	})
}

// Rollback cancels a PENDING or CANCELLING order. An already cancelled order
// is left untouched.
func (s *OrderPaymentSaga) Rollback(ctx context.Context, resp PaymentResponse) error {
	ctx, span := startStep(ctx, "OrderPaymentSaga.Rollback", resp.OrderID, resp.SagaID)
	defer span.End()
	logger := telemetry.WithTrace(ctx, s.logger).With(zap.String("order_id", resp.OrderID.String()))

	return s.uow.Do(ctx, func(ctx context.Context) error {
		order, ok, err := loadForStep(ctx, s.orders, resp.OrderID, resp.SagaID, logger)
		if err != nil || !ok {
			return err
		}
		if order.Status() == common.OrderStatusCancelled {
			logger.Info("order already cancelled, skipping")
			return nil
		}

		if err := s.domainService.CancelOrder(order, resp.FailureMessages); err != nil {
			return err
		}
		if err := s.orders.Save(ctx, order); err != nil {
			return fmt.Errorf("app: save cancelled order: %w", err)
		}
		if err := s.sagaLog.Save(ctx, sagalog.NewEntry(ctx, order.SagaID().String(), order.ID().String(),
			order.Status(), sagalog.StepPaymentCancelled, payload(resp), resp.FailureMessages)); err != nil {
			return err
		}
		logger.Info("order is cancelled", zap.Strings("failure_messages", resp.FailureMessages))
		return nil
	})
}

func startStep(ctx context.Context, name string, orderID common.OrderID, sagaID common.SagaID) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name)
	span.SetAttributes(
		attribute.String("order.id", orderID.String()),
		attribute.String("saga.id", sagaID.String()),
	)
	return ctx, span
}

// loadForStep loads the order a response refers to. ok is false when the
// response belongs to another saga instance and must be ignored.
func loadForStep(ctx context.Context, orders OrderRepository, orderID common.OrderID, sagaID common.SagaID, logger *zap.Logger) (*domain.Order, bool, error) {
	order, err := orders.FindByID(ctx, orderID)
	if common.IsNotFound(err) {
		return nil, false, common.NotFound("Could not find order with order id: %s", orderID)
	}
	if err != nil {
		return nil, false, fmt.Errorf("app: find order: %w", err)
	}
	if !common.IsZeroID(sagaID) && sagaID != order.SagaID() {
		logger.Warn("response belongs to another saga, ignoring",
			zap.String("saga_id", sagaID.String()),
			zap.String("order_saga_id", order.SagaID().String()),
		)
		return nil, false, nil
	}
	return order, true, nil
}
