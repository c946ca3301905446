package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
	"github.com/shopspring/decimal"
)

type InitiateTransactionRequest struct {
	SenderUpi       string          `json:"senderUpi"`
	ReceiverUpi     string          `json:"receiverUpi"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType string          `json:"transactionType"`
	Pin             string          `json:"pin"`
}

func (r InitiateTransactionRequest) Validate() error {
	if strings.TrimSpace(r.SenderUpi) == "" {
		return fmt.Errorf("senderUpi is required")
	}
	if strings.TrimSpace(r.ReceiverUpi) == "" {
		return fmt.Errorf("receiverUpi is required")
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	if r.TransactionType != string(domain.TransactionTypeDebit) && r.TransactionType != string(domain.TransactionTypeCredit) {
		return fmt.Errorf("transactionType must be DEBIT or CREDIT")
	}
	if strings.TrimSpace(r.Pin) == "" {
		return fmt.Errorf("pin is required")
	}
	return nil
}

func (r InitiateTransactionRequest) ToDomain() domain.Transaction {
	return domain.Transaction{
		SenderUpi:   strings.TrimSpace(r.SenderUpi),
		ReceiverUpi: strings.TrimSpace(r.ReceiverUpi),
		Amount:      r.Amount,
		Type:        domain.TransactionType(r.TransactionType),
	}
}

// EncryptedMessageRequest carries a complete wire envelope in its single
// field, matching the {"e": "..."} body the offline client posts.
type EncryptedMessageRequest struct {
	E string `json:"e"`
}

type TransactionResponse struct {
	TransactionID int64  `json:"transactionId"`
	SenderUpi     string `json:"senderUpi"`
	ReceiverUpi   string `json:"receiverUpi"`
	Amount        string `json:"amount"`
	Type          string `json:"transactionType"`
	Status        string `json:"status"`
	SmsReference  string `json:"smsReference,omitempty"`
	InitiatedAt   string `json:"initiatedAt"`
	CompletedAt   string `json:"completedAt,omitempty"`
}

func MapTransaction(tx domain.Transaction) TransactionResponse {
	response := TransactionResponse{
		TransactionID: tx.TransactionID,
		SenderUpi:     tx.SenderUpi,
		ReceiverUpi:   tx.ReceiverUpi,
		Amount:        tx.Amount.StringFixed(2),
		Type:          string(tx.Type),
		Status:        string(tx.Status),
		InitiatedAt:   tx.InitiatedAt.Format(time.RFC3339),
	}
	if tx.SmsReference != nil {
		response.SmsReference = *tx.SmsReference
	}
	if tx.CompletedAt != nil {
		response.CompletedAt = tx.CompletedAt.Format(time.RFC3339)
	}
	return response
}

func MapTransactions(txs []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, MapTransaction(tx))
	}
	return out
}
