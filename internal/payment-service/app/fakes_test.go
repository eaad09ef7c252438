package app

import (
	"context"
	"errors"

	"github.com/jcmexdev/food-ordering-sagas/internal/payment-service/domain"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
)

var errDiskFull = errors.New("disk full")

type published struct {
	sagaID common.SagaID
	evt    domain.PaymentEvent
}

// store is an in-memory database. Do restores every table when fn fails.
type store struct {
	payments  map[common.OrderID]domain.PaymentState
	entries   map[common.CustomerID]domain.CreditEntry
	histories map[common.CustomerID][]domain.CreditHistory
	published []published
	failSave  bool
}

func newStore() *store {
	return &store{
		payments:  map[common.OrderID]domain.PaymentState{},
		entries:   map[common.CustomerID]domain.CreditEntry{},
		histories: map[common.CustomerID][]domain.CreditHistory{},
	}
}

func (s *store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	payments := make(map[common.OrderID]domain.PaymentState, len(s.payments))
	for k, v := range s.payments {
		payments[k] = v
	}
	entries := make(map[common.CustomerID]domain.CreditEntry, len(s.entries))
	for k, v := range s.entries {
		entries[k] = v
	}
	histories := make(map[common.CustomerID][]domain.CreditHistory, len(s.histories))
	for k, v := range s.histories {
		histories[k] = append([]domain.CreditHistory(nil), v...)
	}
	pub := append([]published(nil), s.published...)

	if err := fn(ctx); err != nil {
		s.payments, s.entries, s.histories, s.published = payments, entries, histories, pub
		return err
	}
	return nil
}

// seed gives customerID a consistent ledger with the given balance.
func (s *store) seed(customerID common.CustomerID, balance string) {
	amount := common.MustMoney(balance)
	s.entries[customerID] = domain.CreditEntry{
		ID:                common.NewID[common.CreditEntryID](),
		CustomerID:        customerID,
		TotalCreditAmount: amount,
	}
	s.histories[customerID] = []domain.CreditHistory{
		domain.NewCreditHistory(customerID, amount, domain.TransactionTypeCredit),
	}
}

type paymentRepo struct{ *store }

func (r paymentRepo) Save(_ context.Context, p *domain.Payment) error {
	if r.failSave {
		return errDiskFull
	}
	r.payments[p.OrderID()] = p.State()
	return nil
}

func (r paymentRepo) FindByOrderID(_ context.Context, id common.OrderID) (*domain.Payment, error) {
	s, ok := r.payments[id]
	if !ok {
		return nil, common.NotFound("payment for order %s", id)
	}
	return domain.RehydratePayment(s), nil
}

type entryRepo struct{ *store }

func (r entryRepo) FindByCustomerID(_ context.Context, id common.CustomerID) (*domain.CreditEntry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, common.NotFound("credit entry of %s", id)
	}
	return &e, nil
}

func (r entryRepo) Save(_ context.Context, e *domain.CreditEntry) error {
	r.entries[e.CustomerID] = *e
	return nil
}

type historyRepo struct{ *store }

func (r historyRepo) FindByCustomerID(_ context.Context, id common.CustomerID) ([]domain.CreditHistory, error) {
	h, ok := r.histories[id]
	if !ok {
		return nil, common.NotFound("credit history of %s", id)
	}
	return append([]domain.CreditHistory(nil), h...), nil
}

func (r historyRepo) Save(_ context.Context, h domain.CreditHistory) error {
	r.histories[h.CustomerID] = append(r.histories[h.CustomerID], h)
	return nil
}

type publisher struct{ *store }

func (p publisher) PublishPaymentResponse(_ context.Context, sagaID common.SagaID, evt domain.PaymentEvent) error {
	p.published = append(p.published, published{sagaID: sagaID, evt: evt})
	return nil
}
