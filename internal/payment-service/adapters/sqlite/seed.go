package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jcmexdev/food-ordering-sagas/internal/payment-service/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/demo"
	common "github.com/jcmexdev/food-ordering-sagas/internal/pkg/domain"
	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/sqlitedb"
)

// Seed opens a balanced ledger for the demo customer: a credit entry and one
// CREDIT row of the same amount. An existing ledger is left alone.
func Seed(ctx context.Context, db *sql.DB) error {
	entries := NewCreditEntryRepository(db)
	histories := NewCreditHistoryRepository(db)

	return sqlitedb.NewUnitOfWork(db).Do(ctx, func(ctx context.Context) error {
		_, err := entries.FindByCustomerID(ctx, demo.CustomerID)
		if err == nil {
			return nil
		}
		if !common.IsNotFound(err) {
			return err
		}

		entry := &domain.CreditEntry{
			ID:                common.NewID[common.CreditEntryID](),
			CustomerID:        demo.CustomerID,
			TotalCreditAmount: demo.InitialCredit,
		}
		if err := entries.Save(ctx, entry); err != nil {
			return fmt.Errorf("seed credit entry: %w", err)
		}
		return histories.Save(ctx, domain.NewCreditHistory(demo.CustomerID, demo.InitialCredit, domain.TransactionTypeCredit))
	})
}
