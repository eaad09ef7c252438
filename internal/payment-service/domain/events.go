package domain

import "time"

// PaymentEvent is one of PaymentCompletedEvent, PaymentCancelledEvent or
// PaymentFailedEvent.
type PaymentEvent interface {
	Snapshot() PaymentState
	isPaymentEvent()
}

type PaymentCompletedEvent struct {
	Payment   PaymentState
	CreatedAt time.Time
}

type PaymentCancelledEvent struct {
	Payment   PaymentState
	CreatedAt time.Time
}

type PaymentFailedEvent struct {
	Payment         PaymentState
	CreatedAt       time.Time
	FailureMessages []string
}

func (e PaymentCompletedEvent) Snapshot() PaymentState { return e.Payment }
func (e PaymentCancelledEvent) Snapshot() PaymentState { return e.Payment }
func (e PaymentFailedEvent) Snapshot() PaymentState    { return e.Payment }

func (PaymentCompletedEvent) isPaymentEvent() {}
func (PaymentCancelledEvent) isPaymentEvent() {}
func (PaymentFailedEvent) isPaymentEvent()    {}
