package domain

import "github.com/google/uuid"

// Identifiers are distinct types over a UUID so an order id can never be
// passed where a customer id is expected.
type (
	OrderID         uuid.UUID
	CustomerID      uuid.UUID
	RestaurantID    uuid.UUID
	ProductID       uuid.UUID
	PaymentID       uuid.UUID
	TrackingID      uuid.UUID
	CreditEntryID   uuid.UUID
	CreditHistoryID uuid.UUID
	SagaID          uuid.UUID
	OrderApprovalID uuid.UUID
)

// NewID returns a fresh random identifier of the requested type.
func NewID[T ~[16]byte]() T {
	return T(uuid.New())
}

// ParseID parses the canonical textual form of an identifier.
func ParseID[T ~[16]byte](s string) (T, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		var zero T
		return zero, err
	}
	return T(u), nil
}

// IsZeroID reports whether id was never assigned.
func IsZeroID[T ~[16]byte](id T) bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id OrderID) String() string         { return uuid.UUID(id).String() }
func (id CustomerID) String() string      { return uuid.UUID(id).String() }
func (id RestaurantID) String() string    { return uuid.UUID(id).String() }
func (id ProductID) String() string       { return uuid.UUID(id).String() }
func (id PaymentID) String() string       { return uuid.UUID(id).String() }
func (id TrackingID) String() string      { return uuid.UUID(id).String() }
func (id CreditEntryID) String() string   { return uuid.UUID(id).String() }
func (id CreditHistoryID) String() string { return uuid.UUID(id).String() }
func (id SagaID) String() string          { return uuid.UUID(id).String() }
func (id OrderApprovalID) String() string { return uuid.UUID(id).String() }

func (id OrderID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id CustomerID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id RestaurantID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id ProductID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id PaymentID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id TrackingID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id CreditEntryID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id CreditHistoryID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id SagaID) MarshalText() ([]byte, error)          { return uuid.UUID(id).MarshalText() }
func (id OrderApprovalID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
