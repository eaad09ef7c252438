package domain

// OrderStatus is the saga state of an order. The zero value means the order
// has not been initialized yet.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusApproved   OrderStatus = "APPROVED"
	OrderStatusCancelling OrderStatus = "CANCELLING"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

type OrderApprovalStatus string

const (
	OrderApprovalStatusApproved OrderApprovalStatus = "APPROVED"
	OrderApprovalStatusRejected OrderApprovalStatus = "REJECTED"
)

// PaymentOrderStatus tells the payment service whether to charge or refund.
type PaymentOrderStatus string

const (
	PaymentOrderStatusPending   PaymentOrderStatus = "PENDING"
	PaymentOrderStatusCancelled PaymentOrderStatus = "CANCELLED"
)

type RestaurantOrderStatus string

const (
	RestaurantOrderStatusPaid RestaurantOrderStatus = "PAID"
)
