package models

import (
	"time"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
)

type FailedAttemptResponse struct {
	ID          int64  `json:"id"`
	UpiID       string `json:"upiId"`
	Reason      string `json:"reason"`
	AttemptedAt string `json:"attemptedAt"`
}

type FailedAttemptCountResponse struct {
	UpiID         string `json:"upiId"`
	WindowMinutes int    `json:"windowMinutes"`
	Count         int64  `json:"count"`
}

func MapFailedAttempts(attempts []domain.FailedAttempt) []FailedAttemptResponse {
	out := make([]FailedAttemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		out = append(out, FailedAttemptResponse{
			ID:          attempt.ID,
			UpiID:       attempt.UpiID,
			Reason:      attempt.Reason,
			AttemptedAt: attempt.AttemptedAt.Format(time.RFC3339),
		})
	}
	return out
}
