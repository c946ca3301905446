package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction) (Transaction, error)
	GetByID(ctx context.Context, transactionID int64) (Transaction, error)
	GetBySmsReference(ctx context.Context, smsReference string) (Transaction, error)
	// UpdateStatus stamps completed_at when the new status is terminal.
	UpdateStatus(ctx context.Context, transactionID int64, status TransactionStatus) (Transaction, error)
	ListByUser(ctx context.Context, upiID string) ([]Transaction, error)
	ListByUserPaginated(ctx context.Context, upiID string, limit, offset int) ([]Transaction, error)
	ListByStatus(ctx context.Context, status TransactionStatus) ([]Transaction, error)
	// MoveFunds debits fromUpi and credits toUpi inside a single database
	// transaction. The debit leg is conditional on sufficient balance;
	// either both legs commit or neither does.
	MoveFunds(ctx context.Context, fromUpi, toUpi string, amount decimal.Decimal) error
}
