package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is identified by its UPI address. The address is the primary key,
// not a surrogate id.
type User struct {
	UpiID       string
	Name        string
	PhoneNumber string
	HashedPin   string
	Balance     decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
