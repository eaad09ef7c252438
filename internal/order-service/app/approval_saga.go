package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jcmexdev/food-ordering-sagas/internal/order-service/domain"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/saga"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/saga/sagalog"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/telemetry"
)

var _ saga.Step[RestaurantApprovalResponse] = (*OrderApprovalSaga)(nil)

// OrderApprovalSaga finishes or unwinds a paid order on the restaurant's
// answer. A rejection starts compensation: the order moves to CANCELLING and
// a payment cancellation is requested. The payment service's CANCELLED
// response then completes the cancellation through OrderPaymentSaga.Rollback.
type OrderApprovalSaga struct {
	uow            UnitOfWork
	orders         OrderRepository
	sagaLog        SagaLogRepository
	paymentCancels OrderCancelledPaymentRequestPublisher
	domainService  *domain.OrderDomainService
	logger         *zap.Logger
}

func NewOrderApprovalSaga(
	uow UnitOfWork,
	orders OrderRepository,
	sagaLog SagaLogRepository,
	paymentCancels OrderCancelledPaymentRequestPublisher,
	domainService *domain.OrderDomainService,
	logger *zap.Logger,
) *OrderApprovalSaga {
	return &OrderApprovalSaga{
		uow:            uow,
		orders:         orders,
		sagaLog:        sagaLog,
		paymentCancels: paymentCancels,
		domainService:  domainService,
		logger:         logger,
	}
}

// Process approves a PAID order. An already approved order is left untouched.
func (s *OrderApprovalSaga) Process(ctx context.Context, resp RestaurantApprovalResponse) error {
	ctx, span := startStep(ctx, "OrderApprovalSaga.Process", resp.OrderID, resp.SagaID)
	defer span.End()
	logger := telemetry.WithTrace(ctx, s.logger).With(zap.String("order_id", resp.OrderID.String()))

	return s.uow.Do(ctx, func(ctx context.Context) error {
		order, ok, err := loadForStep(ctx, s.orders, resp.OrderID, resp.SagaID, logger)
		if err != nil || !ok {
			return err
		}
		if order.Status() == common.OrderStatusApproved {
			logger.Info("order already approved, skipping")
			return nil
		}

		if err := s.domainService.ApproveOrder(order); err != nil {
			return err
		}
		if err := s.orders.Save(ctx, order); err != nil {
			return fmt.Errorf("app: save approved order: %w", err)
		}
		if err := s.sagaLog.Save(ctx, sagalog.NewEntry(ctx, order.SagaID().String(), order.ID().String(),
			order.Status(), sagalog.StepApproved, payload(resp), nil)); err != nil {
			return err
		}
		logger.Info("order is approved")
		return nil
	})
}

// Rollback moves a PAID order to CANCELLING and requests the payment
// cancellation. A CANCELLING or CANCELLED order means the rejection was
// already applied.
func (s *OrderApprovalSaga) Rollback(ctx context.Context, resp RestaurantApprovalResponse) error {
	ctx, span := startStep(ctx, "OrderApprovalSaga.Rollback", resp.OrderID, resp.SagaID)
	defer span.End()
	logger := telemetry.WithTrace(ctx, s.logger).With(zap.String("order_id", resp.OrderID.String()))

	return s.uow.Do(ctx, func(ctx context.Context) error {
		order, ok, err := loadForStep(ctx, s.orders, resp.OrderID, resp.SagaID, logger)
		if err != nil || !ok {
			return err
		}
		switch order.Status() {
		case common.OrderStatusCancelling, common.OrderStatusCancelled:
			logger.Info("rejection already applied, skipping", zap.String("status", string(order.Status())))
			return nil
		}

		evt, err := s.domainService.CancelOrderPayment(order, resp.FailureMessages)
		if err != nil {
			return err
		}
		if err := s.orders.Save(ctx, order); err != nil {
			return fmt.Errorf("app: save cancelling order: %w", err)
		}
		if err := s.paymentCancels.PublishOrderCancelled(ctx, evt); err != nil {
			return fmt.Errorf("app: publish order cancelled: %w", err)
		}
		if err := s.sagaLog.Save(ctx, sagalog.NewEntry(ctx, order.SagaID().String(), order.ID().String(),
			order.Status(), sagalog.StepRejected, payload(resp), resp.FailureMessages)); err != nil {
			return err
		}
		logger.Info("order is cancelling, payment cancellation requested",
			zap.Strings("failure_messages", resp.FailureMessages))
		return nil
	})
}
