package notify

import (
	"context"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
	"github.com/pay-seva/sms-payment-processor/internal/logger"
)

// LogNotifier stands in when no SMS provider is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (LogNotifier) DebitConfirmation(_ context.Context, user domain.User, tx domain.Transaction) error {
	logger.Info("notification debit confirmation", logger.Fields{
		"upiId":         user.UpiID,
		"transactionId": tx.TransactionID,
		"amount":        tx.Amount,
	})
	return nil
}

func (LogNotifier) CreditAlert(_ context.Context, user domain.User, tx domain.Transaction) error {
	logger.Info("notification credit alert", logger.Fields{
		"upiId":         user.UpiID,
		"transactionId": tx.TransactionID,
		"amount":        tx.Amount,
	})
	return nil
}

func (LogNotifier) FailureAlert(_ context.Context, user domain.User, tx domain.Transaction) error {
	logger.Info("notification failure alert", logger.Fields{
		"upiId":         user.UpiID,
		"transactionId": tx.TransactionID,
		"amount":        tx.Amount,
	})
	return nil
}
