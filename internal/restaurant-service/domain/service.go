package domain

import (
	"fmt"
	"time"

	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
)

type RestaurantDomainService struct {
	now func() time.Time
}

func NewRestaurantDomainService() *RestaurantDomainService {
	return &RestaurantDomainService{now: func() time.Time { return time.Now().UTC() }}
}

// ValidateOrder decides the approval. A rejection is not an error: the
// reasons come back in the OrderRejectedEvent and restaurant.Approval is set
// either way.
func (s *RestaurantDomainService) ValidateOrder(restaurant *Restaurant, failureMessages []string) OrderApprovalEvent {
	if !restaurant.Active {
		failureMessages = append(failureMessages,
			fmt.Sprintf("Restaurant with id %s is currently not active!", restaurant.ID))
	}
	failureMessages = restaurant.ValidateOrder(failureMessages)

	now := s.now()
	if len(failureMessages) > 0 {
		restaurant.ConstructOrderApproval(common.OrderApprovalStatusRejected)
		return OrderRejectedEvent{OrderApproval: *restaurant.Approval, CreatedAt: now, FailureMessages: failureMessages}
	}
	restaurant.ConstructOrderApproval(common.OrderApprovalStatusApproved)
	return OrderApprovedEvent{OrderApproval: *restaurant.Approval, CreatedAt: now}
}
