package domain

import "context"

// Notifier delivers best-effort alerts after the ledger has committed.
// Failures are logged by the caller and never affect transaction state.
type Notifier interface {
	DebitConfirmation(ctx context.Context, user User, tx Transaction) error
	CreditAlert(ctx context.Context, user User, tx Transaction) error
	FailureAlert(ctx context.Context, user User, tx Transaction) error
}
