package domain

import "time"

// OrderApprovalEvent is either OrderApprovedEvent or OrderRejectedEvent.
type OrderApprovalEvent interface {
	Approval() OrderApproval
	isOrderApprovalEvent()
}

type OrderApprovedEvent struct {
	OrderApproval OrderApproval
	CreatedAt     time.Time
}

type OrderRejectedEvent struct {
	OrderApproval   OrderApproval
	CreatedAt       time.Time
	FailureMessages []string
}

func (e OrderApprovedEvent) Approval() OrderApproval { return e.OrderApproval }
func (e OrderRejectedEvent) Approval() OrderApproval { return e.OrderApproval }

func (OrderApprovedEvent) isOrderApprovalEvent() {}
func (OrderRejectedEvent) isOrderApprovalEvent() {}
