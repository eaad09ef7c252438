package domain

import (
	"fmt"
	"time"

	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
)

// PaymentDomainService charges and refunds payments against a customer's
// ledger. Business failures are not errors: they come back as failure
// messages inside a PaymentFailedEvent.
//
// Both operations mutate entry in place and return the history with the new
// row appended. Callers persist the ledger only when the event is not a
// failure.
type PaymentDomainService struct {
	now func() time.Time
}

func NewPaymentDomainService() *PaymentDomainService {
	return &PaymentDomainService{now: func() time.Time { return time.Now().UTC() }}
}

// ValidateAndInitiatePayment debits the payment's price from entry.
func (s *PaymentDomainService) ValidateAndInitiatePayment(
	payment *Payment,
	entry *CreditEntry,
	histories []CreditHistory,
	failureMessages []string,
) (PaymentEvent, []CreditHistory) {
	now := s.now()
	failureMessages = payment.ValidatePayment(failureMessages)
	payment.InitializePayment(now)
	failureMessages = validateCreditEntry(payment, entry, failureMessages)
	entry.SubtractCreditAmount(payment.Price())
	histories = append(histories, NewCreditHistory(payment.CustomerID(), payment.Price(), TransactionTypeDebit))
	failureMessages = validateCreditHistory(entry, histories, failureMessages)

	if len(failureMessages) > 0 {
		payment.UpdateStatus(common.PaymentStatusFailed)
		return PaymentFailedEvent{Payment: payment.State(), CreatedAt: now, FailureMessages: failureMessages}, histories
	}
	payment.UpdateStatus(common.PaymentStatusCompleted)
	return PaymentCompletedEvent{Payment: payment.State(), CreatedAt: now}, histories
}

// ValidateAndCancelPayment credits the payment's price back to entry.
func (s *PaymentDomainService) ValidateAndCancelPayment(
	payment *Payment,
	entry *CreditEntry,
	histories []CreditHistory,
	failureMessages []string,
) (PaymentEvent, []CreditHistory) {
	now := s.now()
	failureMessages = payment.ValidatePayment(failureMessages)
	entry.AddCreditAmount(payment.Price())
	histories = append(histories, NewCreditHistory(payment.CustomerID(), payment.Price(), TransactionTypeCredit))

	if len(failureMessages) > 0 {
		payment.UpdateStatus(common.PaymentStatusFailed)
		return PaymentFailedEvent{Payment: payment.State(), CreatedAt: now, FailureMessages: failureMessages}, histories
	}
	payment.UpdateStatus(common.PaymentStatusCancelled)
	return PaymentCancelledEvent{Payment: payment.State(), CreatedAt: now}, histories
}

func validateCreditEntry(payment *Payment, entry *CreditEntry, failureMessages []string) []string {
	if payment.Price().IsGreaterThan(entry.TotalCreditAmount) {
		failureMessages = append(failureMessages,
			fmt.Sprintf("Customer with id %s doesn't have enough credit for payment", payment.CustomerID()))
	}
	return failureMessages
}

// validateCreditHistory checks the ledger invariant: the credits minus the
// debits of the history equal the entry's balance.
func validateCreditHistory(entry *CreditEntry, histories []CreditHistory, failureMessages []string) []string {
	totalCredit := TotalByType(histories, TransactionTypeCredit)
	totalDebit := TotalByType(histories, TransactionTypeDebit)

	if totalDebit.IsGreaterThan(totalCredit) {
		failureMessages = append(failureMessages,
			fmt.Sprintf("Customer with id %s doesn't have enough credit according to credit history", entry.CustomerID))
	}
	if !entry.TotalCreditAmount.Equal(totalCredit.Subtract(totalDebit)) {
		failureMessages = append(failureMessages,
			fmt.Sprintf("Credit total is not equal to current credit for customer %s", entry.CustomerID))
	}
	return failureMessages
}
