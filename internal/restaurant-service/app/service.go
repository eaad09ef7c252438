package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/telemetry"
	"github.com/jcmexdev/food-ordering-sagas/internal/restaurant-service/domain"
)

var tracer = otel.Tracer("restaurant-service")

type RestaurantApprovalRequestHelper struct {
	uow           UnitOfWork
	restaurants   RestaurantRepository
	approvals     OrderApprovalRepository
	responses     RestaurantApprovalResponsePublisher
	domainService *domain.RestaurantDomainService
	logger        *zap.Logger
}

func NewRestaurantApprovalRequestHelper(
	uow UnitOfWork,
	restaurants RestaurantRepository,
	approvals OrderApprovalRepository,
	responses RestaurantApprovalResponsePublisher,
	domainService *domain.RestaurantDomainService,
	logger *zap.Logger,
) *RestaurantApprovalRequestHelper {
	return &RestaurantApprovalRequestHelper{
		uow:           uow,
		restaurants:   restaurants,
		approvals:     approvals,
		responses:     responses,
		domainService: domainService,
		logger:        logger,
	}
}

// Handle approves or rejects the order in one transaction and queues the
// answer. An order that already has an approval was answered before; the
// redelivery is dropped.
func (h *RestaurantApprovalRequestHelper) Handle(ctx context.Context, req RestaurantApprovalRequest) error {
	ctx, span := tracer.Start(ctx, "RestaurantApprovalRequestHelper.Handle")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", req.OrderID.String()), attribute.String("saga.id", req.SagaID.String()))
	logger := telemetry.WithTrace(ctx, h.logger).With(zap.String("order_id", req.OrderID.String()))
	logger.Info("processing restaurant approval", zap.String("restaurant_id", req.RestaurantID.String()))

	return h.uow.Do(ctx, func(ctx context.Context) error {
		existing, err := h.approvals.FindByOrderID(ctx, req.OrderID)
		if err != nil && !common.IsNotFound(err) {
			return fmt.Errorf("app: find order approval: %w", err)
		}
		if existing != nil {
			logger.Info("order already answered, skipping", zap.String("status", string(existing.Status)))
			return nil
		}

		restaurant, err := h.findRestaurant(ctx, req)
		if err != nil {
			return err
		}
		evt := h.domainService.ValidateOrder(restaurant, nil)

		if err := h.approvals.Save(ctx, *restaurant.Approval); err != nil {
			return fmt.Errorf("app: save order approval: %w", err)
		}
		if err := h.responses.PublishApprovalResponse(ctx, req.SagaID, evt); err != nil {
			return fmt.Errorf("app: publish approval response: %w", err)
		}

		if rejected, ok := evt.(domain.OrderRejectedEvent); ok {
			logger.Warn("order rejected", zap.Strings("failure_messages", rejected.FailureMessages))
		} else {
			logger.Info("order approved")
		}
		return nil
	})
}

// findRestaurant builds the order detail from the request and the catalog.
// A product the catalog does not list is treated as unavailable.
func (h *RestaurantApprovalRequestHelper) findRestaurant(ctx context.Context, req RestaurantApprovalRequest) (*domain.Restaurant, error) {
	ids := make([]common.ProductID, 0, len(req.Products))
	for _, p := range req.Products {
		ids = append(ids, p.ID)
	}
	restaurant, err := h.restaurants.FindRestaurant(ctx, req.RestaurantID, ids)
	if common.IsNotFound(err) {
		return nil, common.NotFound("Restaurant with id %s not found!", req.RestaurantID)
	}
	if err != nil {
		return nil, fmt.Errorf("app: find restaurant: %w", err)
	}

	catalog := make(map[common.ProductID]domain.Product, len(restaurant.OrderDetail.Products))
	for _, p := range restaurant.OrderDetail.Products {
		catalog[p.ID] = p
	}
	products := make([]domain.Product, 0, len(req.Products))
	for _, p := range req.Products {
		product, ok := catalog[p.ID]
		if !ok {
			product = domain.Product{ID: p.ID}
		}
		product.Quantity = p.Quantity
		products = append(products, product)
	}

	restaurant.OrderDetail = domain.OrderDetail{
		ID:          req.OrderID,
		Status:      req.RestaurantOrderStatus,
		TotalAmount: req.Price,
		Products:    products,
	}
	return restaurant, nil
}
