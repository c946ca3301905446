package domain

import (
	"context"
	"time"
)

type FailedAttemptRepository interface {
	Create(ctx context.Context, attempt FailedAttempt) (FailedAttempt, error)
	ListByUpiID(ctx context.Context, upiID string) ([]FailedAttempt, error)
	CountSince(ctx context.Context, upiID string, since time.Time) (int64, error)
	DeleteBefore(ctx context.Context, threshold time.Time) (int64, error)
}
