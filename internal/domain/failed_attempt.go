package domain

import "time"

// FailedAttempt is an audit row recorded whenever a PIN or message
// authentication check fails for a known UPI address.
type FailedAttempt struct {
	ID          int64
	UpiID       string
	Reason      string
	AttemptedAt time.Time
}
