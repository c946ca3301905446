package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
	"github.com/pay-seva/sms-payment-processor/internal/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// New accounts open with a demo balance, matching the reference system.
var defaultOpeningBalance = decimal.NewFromInt(10_000)

type UserService struct {
	userRepo    domain.UserRepository
	txRepo      domain.TransactionRepository
	attemptRepo domain.FailedAttemptRepository
}

func NewUserService(
	userRepo domain.UserRepository,
	txRepo domain.TransactionRepository,
	attemptRepo domain.FailedAttemptRepository,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		txRepo:      txRepo,
		attemptRepo: attemptRepo,
	}
}

func (s *UserService) CreateUser(ctx context.Context, user domain.User, pin string) (domain.User, error) {
	logger.Info("user service create user request", logger.Fields{
		"upiId":       user.UpiID,
		"phoneNumber": user.PhoneNumber,
	})

	user.UpiID = strings.TrimSpace(user.UpiID)
	user.Name = strings.TrimSpace(user.Name)
	user.PhoneNumber = strings.TrimSpace(user.PhoneNumber)

	if user.UpiID == "" {
		return domain.User{}, fmt.Errorf("%w: upiId is required", domain.ErrValidation)
	}
	if user.PhoneNumber == "" {
		return domain.User{}, fmt.Errorf("%w: phoneNumber is required", domain.ErrValidation)
	}
	if strings.TrimSpace(pin) == "" {
		return domain.User{}, fmt.Errorf("%w: pin is required", domain.ErrValidation)
	}

	exists, err := s.userRepo.ExistsByUpiID(ctx, user.UpiID)
	if err != nil {
		return domain.User{}, fmt.Errorf("check upi id: %w", err)
	}
	if exists {
		return domain.User{}, fmt.Errorf("%w: user with UPI ID %s already exists", domain.ErrValidation, user.UpiID)
	}

	exists, err = s.userRepo.ExistsByPhoneNumber(ctx, user.PhoneNumber)
	if err != nil {
		return domain.User{}, fmt.Errorf("check phone number: %w", err)
	}
	if exists {
		return domain.User{}, fmt.Errorf("%w: phone number already registered", domain.ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(pin)), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash pin: %w", err)
	}
	user.HashedPin = string(hashed)

	if user.Balance.IsZero() {
		user.Balance = defaultOpeningBalance
	}

	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		logger.Error("user service create user repository failed", err, logger.Fields{
			"upiId": user.UpiID,
		})
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	logger.Info("user service create user success", logger.Fields{
		"upiId": created.UpiID,
	})
	return created, nil
}

func (s *UserService) GetUser(ctx context.Context, upiID string) (domain.User, error) {
	if strings.TrimSpace(upiID) == "" {
		return domain.User{}, fmt.Errorf("%w: upiId is required", domain.ErrValidation)
	}
	return s.userRepo.GetByUpiID(ctx, upiID)
}

func (s *UserService) GetUserByPhone(ctx context.Context, phoneNumber string) (domain.User, error) {
	if strings.TrimSpace(phoneNumber) == "" {
		return domain.User{}, fmt.Errorf("%w: phoneNumber is required", domain.ErrValidation)
	}
	return s.userRepo.GetByPhoneNumber(ctx, phoneNumber)
}

func (s *UserService) UpdateUser(ctx context.Context, user domain.User) (domain.User, error) {
	if strings.TrimSpace(user.UpiID) == "" {
		return domain.User{}, fmt.Errorf("%w: upiId is required", domain.ErrValidation)
	}

	// Profile updates never touch the PIN; carry the stored hash through.
	if user.HashedPin == "" {
		existing, err := s.userRepo.GetByUpiID(ctx, user.UpiID)
		if err != nil {
			return domain.User{}, err
		}
		user.HashedPin = existing.HashedPin
	}

	return s.userRepo.Update(ctx, user)
}

func (s *UserService) DeleteUser(ctx context.Context, upiID string) error {
	if strings.TrimSpace(upiID) == "" {
		return fmt.Errorf("%w: upiId is required", domain.ErrValidation)
	}
	return s.userRepo.Delete(ctx, upiID)
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.List(ctx)
}

// GetBalance is PIN-gated: a wrong PIN is recorded as a failed attempt.
func (s *UserService) GetBalance(ctx context.Context, upiID, pin string) (decimal.Decimal, error) {
	user, err := s.verifyPin(ctx, upiID, pin)
	if err != nil {
		return decimal.Zero, err
	}
	return user.Balance, nil
}

// GetHistory returns the user's sent and received transactions, newest
// first. PIN-gated like GetBalance.
func (s *UserService) GetHistory(ctx context.Context, upiID, pin string) ([]domain.Transaction, error) {
	if _, err := s.verifyPin(ctx, upiID, pin); err != nil {
		return nil, err
	}
	return s.txRepo.ListByUser(ctx, upiID)
}

func (s *UserService) verifyPin(ctx context.Context, upiID, pin string) (domain.User, error) {
	upiID = strings.TrimSpace(upiID)
	if upiID == "" {
		return domain.User{}, fmt.Errorf("%w: upiId is required", domain.ErrValidation)
	}
	if strings.TrimSpace(pin) == "" {
		return domain.User{}, fmt.Errorf("%w: pin is required", domain.ErrValidation)
	}

	user, err := s.userRepo.GetByUpiID(ctx, upiID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.User{}, domain.ErrRecordNotFound
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPin), []byte(strings.TrimSpace(pin))); err != nil {
		if _, auditErr := s.attemptRepo.Create(ctx, domain.FailedAttempt{UpiID: upiID, Reason: "invalid pin"}); auditErr != nil {
			logger.Error("user service record failed attempt", auditErr, logger.Fields{
				"upiId": upiID,
			})
		}
		return domain.User{}, domain.ErrInvalidPin
	}

	return user, nil
}
