package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jcmexdev/food-ordering-sagas/internal/payment-service/domain"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/telemetry"
)

var tracer = otel.Tracer("payment-service")

// PaymentRequestHelper runs each payment request as one transaction: load
// the ledger, apply the domain service, persist, and queue the response.
type PaymentRequestHelper struct {
	uow           UnitOfWork
	payments      PaymentRepository
	entries       CreditEntryRepository
	histories     CreditHistoryRepository
	responses     PaymentResponsePublisher
	domainService *domain.PaymentDomainService
	logger        *zap.Logger
}

func NewPaymentRequestHelper(
	uow UnitOfWork,
	payments PaymentRepository,
	entries CreditEntryRepository,
	histories CreditHistoryRepository,
	responses PaymentResponsePublisher,
	domainService *domain.PaymentDomainService,
	logger *zap.Logger,
) *PaymentRequestHelper {
	return &PaymentRequestHelper{
		uow:           uow,
		payments:      payments,
		entries:       entries,
		histories:     histories,
		responses:     responses,
		domainService: domainService,
		logger:        logger,
	}
}

// Handle dispatches on the requested payment order status.
func (h *PaymentRequestHelper) Handle(ctx context.Context, req PaymentRequest) error {
	switch req.PaymentOrderStatus {
	case common.PaymentOrderStatusPending:
		return h.PersistPayment(ctx, req)
	case common.PaymentOrderStatusCancelled:
		return h.PersistCancelPayment(ctx, req)
	default:
		return common.NewError(fmt.Sprintf("Unknown payment order status %q for order %s", req.PaymentOrderStatus, req.OrderID))
	}
}

// PersistPayment charges the order's price. A request for an order that
// already has a payment was answered before and is a no-op.
func (h *PaymentRequestHelper) PersistPayment(ctx context.Context, req PaymentRequest) error {
	ctx, span := tracer.Start(ctx, "PaymentRequestHelper.PersistPayment")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", req.OrderID.String()), attribute.String("saga.id", req.SagaID.String()))
	logger := telemetry.WithTrace(ctx, h.logger).With(zap.String("order_id", req.OrderID.String()))
	logger.Info("received payment", zap.String("price", req.Price.String()))

	return h.uow.Do(ctx, func(ctx context.Context) error {
		existing, err := h.payments.FindByOrderID(ctx, req.OrderID)
		if err != nil && !common.IsNotFound(err) {
			return fmt.Errorf("app: find payment: %w", err)
		}
		if existing != nil {
			logger.Info("payment already processed, skipping", zap.String("status", string(existing.Status())))
			return nil
		}

		entry, histories, err := h.ledger(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		payment := domain.NewPayment(req.OrderID, req.CustomerID, req.Price)
		evt, histories := h.domainService.ValidateAndInitiatePayment(payment, entry, histories, nil)
		if err := h.persist(ctx, payment, entry, histories, evt); err != nil {
			return err
		}
		return h.respond(ctx, logger, req.SagaID, evt)
	})
}

// PersistCancelPayment refunds a completed payment. A payment that is already
// cancelled is left untouched.
func (h *PaymentRequestHelper) PersistCancelPayment(ctx context.Context, req PaymentRequest) error {
	ctx, span := tracer.Start(ctx, "PaymentRequestHelper.PersistCancelPayment")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", req.OrderID.String()), attribute.String("saga.id", req.SagaID.String()))
	logger := telemetry.WithTrace(ctx, h.logger).With(zap.String("order_id", req.OrderID.String()))
	logger.Info("received payment rollback")

	return h.uow.Do(ctx, func(ctx context.Context) error {
		payment, err := h.payments.FindByOrderID(ctx, req.OrderID)
		if common.IsNotFound(err) {
			return common.NotFound("There is no payment registered for order %s", req.OrderID)
		}
		if err != nil {
			return fmt.Errorf("app: find payment: %w", err)
		}
		switch payment.Status() {
		case common.PaymentStatusCancelled:
			logger.Info("payment already cancelled, skipping")
			return nil
		case common.PaymentStatusFailed:
			return common.NewError(fmt.Sprintf("Payment for order %s was never completed and cannot be cancelled", req.OrderID))
		}

		entry, histories, err := h.ledger(ctx, payment.CustomerID())
		if err != nil {
			return err
		}
		evt, histories := h.domainService.ValidateAndCancelPayment(payment, entry, histories, nil)
		if err := h.persist(ctx, payment, entry, histories, evt); err != nil {
			return err
		}
		return h.respond(ctx, logger, req.SagaID, evt)
	})
}

func (h *PaymentRequestHelper) ledger(ctx context.Context, customerID common.CustomerID) (*domain.CreditEntry, []domain.CreditHistory, error) {
	entry, err := h.entries.FindByCustomerID(ctx, customerID)
	if common.IsNotFound(err) {
		return nil, nil, common.NotFound("Could not find credit entry for customer %s", customerID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("app: find credit entry: %w", err)
	}
	histories, err := h.histories.FindByCustomerID(ctx, customerID)
	if common.IsNotFound(err) {
		return nil, nil, common.NotFound("Could not find credit history for customer %s", customerID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("app: find credit history: %w", err)
	}
	return entry, histories, nil
}

// persist always saves the payment. The ledger is saved only when the
// payment went through, so a failed charge leaves the credit untouched.
func (h *PaymentRequestHelper) persist(ctx context.Context, payment *domain.Payment, entry *domain.CreditEntry,
	histories []domain.CreditHistory, evt domain.PaymentEvent) error {
	if err := h.payments.Save(ctx, payment); err != nil {
		return fmt.Errorf("app: save payment: %w", err)
	}
	if _, failed := evt.(domain.PaymentFailedEvent); failed {
		return nil
	}
	if err := h.entries.Save(ctx, entry); err != nil {
		return fmt.Errorf("app: save credit entry: %w", err)
	}
	if err := h.histories.Save(ctx, histories[len(histories)-1]); err != nil {
		return fmt.Errorf("app: save credit history: %w", err)
	}
	return nil
}

func (h *PaymentRequestHelper) respond(ctx context.Context, logger *zap.Logger, sagaID common.SagaID, evt domain.PaymentEvent) error {
	if err := h.responses.PublishPaymentResponse(ctx, sagaID, evt); err != nil {
		return fmt.Errorf("app: publish payment response: %w", err)
	}
	switch e := evt.(type) {
	case domain.PaymentFailedEvent:
		logger.Warn("payment failed", zap.Strings("failure_messages", e.FailureMessages))
	default:
		logger.Info("payment answered", zap.String("status", string(evt.Snapshot().Status)))
	}
	return nil
}
