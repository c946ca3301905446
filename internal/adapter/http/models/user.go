package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
)

type CreateUserRequest struct {
	UpiID       string `json:"upiId"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Pin         string `json:"pin"`
}

func (r CreateUserRequest) Validate() error {
	if strings.TrimSpace(r.UpiID) == "" {
		return fmt.Errorf("upiId is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(r.PhoneNumber) == "" {
		return fmt.Errorf("phoneNumber is required")
	}
	if strings.TrimSpace(r.Pin) == "" {
		return fmt.Errorf("pin is required")
	}
	return nil
}

type UpdateUserRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

func (r UpdateUserRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(r.PhoneNumber) == "" {
		return fmt.Errorf("phoneNumber is required")
	}
	return nil
}

type UserResponse struct {
	UpiID       string `json:"upiId"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Balance     string `json:"balance"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func MapUsers(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, MapUser(user))
	}
	return out
}

func MapUser(user domain.User) UserResponse {
	return UserResponse{
		UpiID:       user.UpiID,
		Name:        user.Name,
		PhoneNumber: user.PhoneNumber,
		Balance:     user.Balance.StringFixed(2),
		CreatedAt:   user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   user.UpdatedAt.Format(time.RFC3339),
	}
}

type BalanceRequest struct {
	UpiID string `json:"upiId"`
	Pin   string `json:"pin"`
}

type BalanceResponse struct {
	UpiID   string `json:"upiId"`
	Balance string `json:"balance"`
}

type HistoryRequest struct {
	UpiID string `json:"upiId"`
	Pin   string `json:"pin"`
}
