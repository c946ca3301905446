package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
	"github.com/pay-seva/sms-payment-processor/internal/logger"
)

// SecurityService exposes the failed-attempt audit trail: listing,
// recent-count lookups for throttling decisions, and cleanup of old rows.
type SecurityService struct {
	attemptRepo domain.FailedAttemptRepository
}

func NewSecurityService(attemptRepo domain.FailedAttemptRepository) *SecurityService {
	return &SecurityService{attemptRepo: attemptRepo}
}

func (s *SecurityService) RecordFailedAttempt(ctx context.Context, upiID, reason string) error {
	if strings.TrimSpace(upiID) == "" {
		return fmt.Errorf("%w: upiId is required", domain.ErrValidation)
	}
	_, err := s.attemptRepo.Create(ctx, domain.FailedAttempt{UpiID: upiID, Reason: reason})
	return err
}

func (s *SecurityService) GetFailedAttempts(ctx context.Context, upiID string) ([]domain.FailedAttempt, error) {
	if strings.TrimSpace(upiID) == "" {
		return nil, fmt.Errorf("%w: upiId is required", domain.ErrValidation)
	}
	return s.attemptRepo.ListByUpiID(ctx, upiID)
}

func (s *SecurityService) CountRecentFailedAttempts(ctx context.Context, upiID string, window time.Duration) (int64, error) {
	if strings.TrimSpace(upiID) == "" {
		return 0, fmt.Errorf("%w: upiId is required", domain.ErrValidation)
	}
	return s.attemptRepo.CountSince(ctx, upiID, time.Now().UTC().Add(-window))
}

func (s *SecurityService) CleanupOldFailedAttempts(ctx context.Context, threshold time.Time) error {
	deleted, err := s.attemptRepo.DeleteBefore(ctx, threshold)
	if err != nil {
		return fmt.Errorf("cleanup failed attempts: %w", err)
	}

	logger.Info("security service cleanup", logger.Fields{
		"deleted": deleted,
	})
	return nil
}
