package domain

import "time"

// Events are immutable snapshots of the order taken right after a transition.

type OrderCreatedEvent struct {
	Order     OrderState
	CreatedAt time.Time
}

type OrderPaidEvent struct {
	Order     OrderState
	CreatedAt time.Time
}

type OrderCancelledEvent struct {
	Order     OrderState
	CreatedAt time.Time
}
