package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "DEBIT"
	TransactionTypeCredit TransactionType = "CREDIT"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transaction records one money movement between two UPI addresses.
// Status transitions are one-directional: PENDING -> COMPLETED or
// PENDING -> FAILED, both terminal. CompletedAt is stamped only on
// a terminal state.
type Transaction struct {
	TransactionID   int64
	SenderUpi       string
	ReceiverUpi     string
	Amount          decimal.Decimal
	Type            TransactionType
	Status          TransactionStatus
	SmsReference    *string
	EncryptionNonce *string
	RetryCount      int
	InitiatedAt     time.Time
	CompletedAt     *time.Time
}

func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}
