package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
	"github.com/pay-seva/sms-payment-processor/internal/logger"
	"github.com/shopspring/decimal"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `transaction_id, sender_upi, receiver_upi, amount, transaction_type, status,
	sms_reference, encryption_nonce, retry_count, initiated_at, completed_at`

func (r *TransactionRepository) Create(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	logger.Info("transaction repository create", logger.Fields{
		"senderUpi":    tx.SenderUpi,
		"receiverUpi":  tx.ReceiverUpi,
		"status":       tx.Status,
		"smsReference": tx.SmsReference,
	})

	const query = `
INSERT INTO transactions (
	sender_upi,
	receiver_upi,
	amount,
	transaction_type,
	status,
	sms_reference,
	encryption_nonce,
	retry_count
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING transaction_id, initiated_at`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		tx.SenderUpi,
		tx.ReceiverUpi,
		tx.Amount,
		tx.Type,
		tx.Status,
		tx.SmsReference,
		tx.EncryptionNonce,
		tx.RetryCount,
	).Scan(&tx.TransactionID, &tx.InitiatedAt); err != nil {
		logger.Error("transaction repository create failed", err, logger.Fields{
			"senderUpi": tx.SenderUpi,
		})
		return domain.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	return tx, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, transactionID int64) (domain.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1`
	return r.scanTransaction(r.db.QueryRowContext(ctx, query, transactionID))
}

func (r *TransactionRepository) GetBySmsReference(ctx context.Context, smsReference string) (domain.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions WHERE sms_reference = $1`
	return r.scanTransaction(r.db.QueryRowContext(ctx, query, smsReference))
}

// UpdateStatus refuses to leave a terminal state at the database level:
// the WHERE clause only matches PENDING rows when moving to a terminal
// status, and completed_at is stamped in the same statement.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, transactionID int64, status domain.TransactionStatus) (domain.Transaction, error) {
	logger.Info("transaction repository update status", logger.Fields{
		"transactionId": transactionID,
		"status":        status,
	})

	const query = `
UPDATE transactions
SET status = $2::varchar,
    completed_at = CASE
        WHEN $2 IN ('COMPLETED', 'FAILED') THEN NOW()
        ELSE completed_at
    END
WHERE transaction_id = $1
  AND status = 'PENDING'
RETURNING ` + transactionColumns

	tx, err := r.scanTransaction(r.db.QueryRowContext(ctx, query, transactionID, status))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			// Row exists but is no longer PENDING, or does not exist at all.
			if _, lookupErr := r.GetByID(ctx, transactionID); lookupErr == nil {
				return domain.Transaction{}, domain.ErrInvalidState
			}
			return domain.Transaction{}, domain.ErrRecordNotFound
		}
		return domain.Transaction{}, err
	}

	return tx, nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, upiID string) ([]domain.Transaction, error) {
	const query = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE sender_upi = $1 OR receiver_upi = $1
ORDER BY initiated_at DESC`

	return r.queryTransactions(ctx, query, upiID)
}

func (r *TransactionRepository) ListByUserPaginated(ctx context.Context, upiID string, limit, offset int) ([]domain.Transaction, error) {
	const query = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE sender_upi = $1 OR receiver_upi = $1
ORDER BY initiated_at DESC
LIMIT $2 OFFSET $3`

	return r.queryTransactions(ctx, query, upiID, limit, offset)
}

func (r *TransactionRepository) ListByStatus(ctx context.Context, status domain.TransactionStatus) ([]domain.Transaction, error) {
	const query = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE status = $1
ORDER BY initiated_at DESC`

	return r.queryTransactions(ctx, query, status)
}

// MoveFunds applies the debit and credit legs in one database
// transaction. The debit UPDATE is conditional on sufficient balance, so
// concurrent debits from the same sender serialize on the row and cannot
// overdraw it; if either leg touches no row the whole unit rolls back.
func (r *TransactionRepository) MoveFunds(ctx context.Context, fromUpi, toUpi string, amount decimal.Decimal) error {
	logger.Info("transaction repository move funds", logger.Fields{
		"fromUpi": fromUpi,
		"toUpi":   toUpi,
		"amount":  amount,
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("transaction repository begin tx failed", err, nil)
		return fmt.Errorf("begin funds transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const debitQuery = `
UPDATE users
SET balance = balance - $2::numeric,
    updated_at = NOW()
WHERE upi_id = $1
  AND balance >= $2::numeric`

	var affected int64
	if affected, err = execRows(ctx, tx, debitQuery, fromUpi, amount); err != nil {
		return err
	}
	if affected == 0 {
		err = domain.ErrInsufficientBalance
		return err
	}

	const creditQuery = `
UPDATE users
SET balance = balance + $2::numeric,
    updated_at = NOW()
WHERE upi_id = $1`

	if affected, err = execRows(ctx, tx, creditQuery, toUpi, amount); err != nil {
		return err
	}
	if affected == 0 {
		err = domain.ErrRecordNotFound
		return err
	}

	if err = tx.Commit(); err != nil {
		logger.Error("transaction repository commit tx failed", err, nil)
		return fmt.Errorf("commit funds transaction: %w", err)
	}

	return nil
}

func execRows(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec balance update: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("balance update rows affected: %w", err)
	}
	return affected, nil
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransactionRow(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	return transactions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TransactionRepository) scanTransaction(row *sql.Row) (domain.Transaction, error) {
	tx, err := scanTransactionRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, domain.ErrRecordNotFound
		}
		return domain.Transaction{}, err
	}
	return tx, nil
}

func scanTransactionRow(row rowScanner) (domain.Transaction, error) {
	var tx domain.Transaction
	var smsReference, encryptionNonce sql.NullString
	var completedAt sql.NullTime

	if err := row.Scan(
		&tx.TransactionID,
		&tx.SenderUpi,
		&tx.ReceiverUpi,
		&tx.Amount,
		&tx.Type,
		&tx.Status,
		&smsReference,
		&encryptionNonce,
		&tx.RetryCount,
		&tx.InitiatedAt,
		&completedAt,
	); err != nil {
		return domain.Transaction{}, err
	}

	if smsReference.Valid {
		value := smsReference.String
		tx.SmsReference = &value
	}
	if encryptionNonce.Valid {
		value := encryptionNonce.String
		tx.EncryptionNonce = &value
	}
	if completedAt.Valid {
		value := completedAt.Time
		tx.CompletedAt = &value
	}

	return tx, nil
}
