package domain

import (
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
)

// CreditEntry is a customer's running balance. There is exactly one per
// customer and it is never created by a payment.
type CreditEntry struct {
	ID                common.CreditEntryID
	CustomerID        common.CustomerID
	TotalCreditAmount common.Money
}

func (e *CreditEntry) AddCreditAmount(amount common.Money) {
	e.TotalCreditAmount = e.TotalCreditAmount.Add(amount)
}

func (e *CreditEntry) SubtractCreditAmount(amount common.Money) {
	e.TotalCreditAmount = e.TotalCreditAmount.Subtract(amount)
}

type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

// CreditHistory is one append-only ledger row.
type CreditHistory struct {
	ID              common.CreditHistoryID
	CustomerID      common.CustomerID
	Amount          common.Money
	TransactionType TransactionType
}

func NewCreditHistory(customerID common.CustomerID, amount common.Money, t TransactionType) CreditHistory {
	return CreditHistory{
		ID:              common.NewID[common.CreditHistoryID](),
		CustomerID:      customerID,
		Amount:          amount,
		TransactionType: t,
	}
}

// TotalByType sums the amounts of every row of the given type.
func TotalByType(histories []CreditHistory, t TransactionType) common.Money {
	total := common.ZeroMoney
	for _, h := range histories {
		if h.TransactionType == t {
			total = total.Add(h.Amount)
		}
	}
	return total
}
