package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pay-seva/sms-payment-processor/internal/domain"
	"github.com/pay-seva/sms-payment-processor/internal/logger"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

const maxReferenceAttempts = 5

// TransactionService owns the ledger: it is the only component that moves
// money between accounts, and it does so one atomic debit/credit pair at a
// time.
type TransactionService struct {
	txRepo      domain.TransactionRepository
	userRepo    domain.UserRepository
	attemptRepo domain.FailedAttemptRepository
	notifier    domain.Notifier
}

func NewTransactionService(
	txRepo domain.TransactionRepository,
	userRepo domain.UserRepository,
	attemptRepo domain.FailedAttemptRepository,
	notifier domain.Notifier,
) *TransactionService {
	return &TransactionService{
		txRepo:      txRepo,
		userRepo:    userRepo,
		attemptRepo: attemptRepo,
		notifier:    notifier,
	}
}

// Initiate applies a transaction against sender and receiver balances.
// DEBIT transactions move both legs atomically and finish COMPLETED;
// CREDIT transactions are recorded PENDING and move money in Complete.
// Notifications go out only after the final state write and never affect
// the outcome: the money has already moved.
func (s *TransactionService) Initiate(ctx context.Context, request domain.Transaction, pin string) (domain.Transaction, error) {
	logger.Info("transaction service initiate request", logger.Fields{
		"senderUpi":   request.SenderUpi,
		"receiverUpi": request.ReceiverUpi,
		"amount":      request.Amount,
		"type":        request.Type,
	})

	if err := validateTransactionRequest(request); err != nil {
		return domain.Transaction{}, err
	}

	sender, err := s.userRepo.GetByUpiID(ctx, request.SenderUpi)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Transaction{}, fmt.Errorf("sender: %w", domain.ErrRecordNotFound)
		}
		return domain.Transaction{}, fmt.Errorf("resolve sender: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(sender.HashedPin), []byte(pin)); err != nil {
		s.recordFailedAttempt(ctx, sender.UpiID, "invalid pin on initiate")
		return domain.Transaction{}, domain.ErrInvalidPin
	}

	receiver, err := s.userRepo.GetByUpiID(ctx, request.ReceiverUpi)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Transaction{}, fmt.Errorf("receiver: %w", domain.ErrRecordNotFound)
		}
		return domain.Transaction{}, fmt.Errorf("resolve receiver: %w", err)
	}

	if request.Type == domain.TransactionTypeDebit {
		if sender.Balance.LessThan(request.Amount) {
			return domain.Transaction{}, domain.ErrInsufficientBalance
		}
		if err := s.txRepo.MoveFunds(ctx, sender.UpiID, receiver.UpiID, request.Amount); err != nil {
			return domain.Transaction{}, fmt.Errorf("move funds: %w", err)
		}
	}

	record := request
	record.Status = domain.TransactionStatusPending
	created, err := s.createWithUniqueReference(ctx, record)
	if err != nil {
		logger.Error("transaction service persist failed after funds moved", err, logger.Fields{
			"senderUpi":   sender.UpiID,
			"receiverUpi": receiver.UpiID,
		})
		return domain.Transaction{}, fmt.Errorf("persist transaction: %w", err)
	}

	if request.Type == domain.TransactionTypeCredit {
		s.notify(ctx, created, sender, receiver)
		return created, nil
	}

	completed, err := s.txRepo.UpdateStatus(ctx, created.TransactionID, domain.TransactionStatusCompleted)
	if err != nil {
		logger.Error("transaction service mark completed failed", err, logger.Fields{
			"transactionId": created.TransactionID,
		})
		return created, fmt.Errorf("mark completed: %w", err)
	}

	s.notify(ctx, completed, sender, receiver)

	logger.Info("transaction service initiate success", logger.Fields{
		"transactionId": completed.TransactionID,
		"status":        completed.Status,
	})
	return completed, nil
}

// Complete is only valid from PENDING. For CREDIT transactions the money
// moves now rather than at initiation.
func (s *TransactionService) Complete(ctx context.Context, transactionID int64) (domain.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if tx.Status != domain.TransactionStatusPending {
		return domain.Transaction{}, fmt.Errorf("%w: status is %s", domain.ErrInvalidState, tx.Status)
	}

	if tx.Type == domain.TransactionTypeCredit {
		if err := s.txRepo.MoveFunds(ctx, tx.SenderUpi, tx.ReceiverUpi, tx.Amount); err != nil {
			return domain.Transaction{}, fmt.Errorf("move funds: %w", err)
		}
	}

	completed, err := s.txRepo.UpdateStatus(ctx, transactionID, domain.TransactionStatusCompleted)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("mark completed: %w", err)
	}

	s.notifyByUpi(ctx, completed)
	return completed, nil
}

// Fail is only valid from PENDING. For DEBIT transactions the amount is
// refunded to the sender before the terminal state is written.
func (s *TransactionService) Fail(ctx context.Context, transactionID int64) (domain.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if tx.Status != domain.TransactionStatusPending {
		return domain.Transaction{}, fmt.Errorf("%w: status is %s", domain.ErrInvalidState, tx.Status)
	}

	if tx.Type == domain.TransactionTypeDebit {
		if err := s.txRepo.MoveFunds(ctx, tx.ReceiverUpi, tx.SenderUpi, tx.Amount); err != nil {
			return domain.Transaction{}, fmt.Errorf("refund funds: %w", err)
		}
	}

	failed, err := s.txRepo.UpdateStatus(ctx, transactionID, domain.TransactionStatusFailed)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("mark failed: %w", err)
	}

	if sender, lookupErr := s.userRepo.GetByUpiID(ctx, failed.SenderUpi); lookupErr == nil {
		if notifyErr := s.notifier.FailureAlert(ctx, sender, failed); notifyErr != nil {
			logger.Error("transaction service failure alert not delivered", notifyErr, logger.Fields{
				"transactionId": failed.TransactionID,
			})
		}
	}

	return failed, nil
}

func (s *TransactionService) GetByID(ctx context.Context, transactionID int64) (domain.Transaction, error) {
	return s.txRepo.GetByID(ctx, transactionID)
}

func (s *TransactionService) GetBySmsReference(ctx context.Context, reference string) (domain.Transaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return domain.Transaction{}, fmt.Errorf("%w: smsReference is required", domain.ErrValidation)
	}
	return s.txRepo.GetBySmsReference(ctx, reference)
}

func (s *TransactionService) ListByUser(ctx context.Context, upiID string) ([]domain.Transaction, error) {
	if strings.TrimSpace(upiID) == "" {
		return nil, fmt.Errorf("%w: upiId is required", domain.ErrValidation)
	}
	return s.txRepo.ListByUser(ctx, upiID)
}

func (s *TransactionService) ListByUserPaginated(ctx context.Context, upiID string, limit, offset int) ([]domain.Transaction, error) {
	if strings.TrimSpace(upiID) == "" {
		return nil, fmt.Errorf("%w: upiId is required", domain.ErrValidation)
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.txRepo.ListByUserPaginated(ctx, upiID, limit, offset)
}

func (s *TransactionService) ListByStatus(ctx context.Context, status domain.TransactionStatus) ([]domain.Transaction, error) {
	switch status {
	case domain.TransactionStatusPending, domain.TransactionStatusCompleted, domain.TransactionStatusFailed:
		return s.txRepo.ListByStatus(ctx, status)
	default:
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
}

func (s *TransactionService) createWithUniqueReference(ctx context.Context, record domain.Transaction) (domain.Transaction, error) {
	var created domain.Transaction
	var err error

	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		reference := generateSmsReference()
		record.SmsReference = &reference

		created, err = s.txRepo.Create(ctx, record)
		if err == nil {
			return created, nil
		}
		if !isUniqueViolation(err) {
			return domain.Transaction{}, err
		}
	}

	return domain.Transaction{}, err
}

// notify fans the post-commit alerts out concurrently. Delivery failure
// is logged and swallowed; the ledger state is already final.
func (s *TransactionService) notify(ctx context.Context, tx domain.Transaction, sender, receiver domain.User) {
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))

	g.Go(func() error {
		return s.notifier.DebitConfirmation(gctx, sender, tx)
	})
	g.Go(func() error {
		return s.notifier.CreditAlert(gctx, receiver, tx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("transaction service notification not delivered", err, logger.Fields{
			"transactionId": tx.TransactionID,
		})
	}
}

func (s *TransactionService) notifyByUpi(ctx context.Context, tx domain.Transaction) {
	sender, senderErr := s.userRepo.GetByUpiID(ctx, tx.SenderUpi)
	receiver, receiverErr := s.userRepo.GetByUpiID(ctx, tx.ReceiverUpi)
	if senderErr != nil || receiverErr != nil {
		return
	}
	s.notify(ctx, tx, sender, receiver)
}

func (s *TransactionService) recordFailedAttempt(ctx context.Context, upiID, reason string) {
	if _, err := s.attemptRepo.Create(ctx, domain.FailedAttempt{UpiID: upiID, Reason: reason}); err != nil {
		logger.Error("transaction service record failed attempt", err, logger.Fields{
			"upiId": upiID,
		})
	}
}

func validateTransactionRequest(request domain.Transaction) error {
	if strings.TrimSpace(request.SenderUpi) == "" {
		return fmt.Errorf("%w: sender upiId is required", domain.ErrValidation)
	}
	if strings.TrimSpace(request.ReceiverUpi) == "" {
		return fmt.Errorf("%w: receiverUpi is required", domain.ErrValidation)
	}
	if request.SenderUpi == request.ReceiverUpi {
		return fmt.Errorf("%w: sender and receiver cannot be the same", domain.ErrValidation)
	}
	if !request.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	if request.Type != domain.TransactionTypeDebit && request.Type != domain.TransactionTypeCredit {
		return fmt.Errorf("%w: transactionType must be DEBIT or CREDIT", domain.ErrValidation)
	}
	return nil
}

func generateSmsReference() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23505"
	}
	return false
}
