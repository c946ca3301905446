package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
)

// In-memory fakes backing the service tests. They reproduce the contract
// of the postgres repositories, including the atomic conditional debit in
// MoveFunds and the PENDING-only guard in UpdateStatus.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	r.users[user.UpiID] = user
	return user, nil
}

func (r *memUserRepo) GetByUpiID(_ context.Context, upiID string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[upiID]
	if !ok {
		return domain.User{}, domain.ErrRecordNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByPhoneNumber(_ context.Context, phoneNumber string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.PhoneNumber == phoneNumber {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrRecordNotFound
}

func (r *memUserRepo) Update(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.UpiID]
	if !ok {
		return domain.User{}, domain.ErrRecordNotFound
	}
	stored.Name = user.Name
	stored.PhoneNumber = user.PhoneNumber
	stored.HashedPin = user.HashedPin
	stored.UpdatedAt = time.Now().UTC()
	r.users[user.UpiID] = stored
	return stored, nil
}

func (r *memUserRepo) Delete(_ context.Context, upiID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[upiID]; !ok {
		return domain.ErrRecordNotFound
	}
	delete(r.users, upiID)
	return nil
}

func (r *memUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, nil
}

func (r *memUserRepo) ExistsByUpiID(_ context.Context, upiID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[upiID]
	return ok, nil
}

func (r *memUserRepo) ExistsByPhoneNumber(_ context.Context, phoneNumber string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.PhoneNumber == phoneNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) balance(upiID string) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[upiID].Balance
}

type memTxRepo struct {
	mu          sync.Mutex
	users       *memUserRepo
	nextID      int64
	byID        map[int64]domain.Transaction
	createCalls int
	createErrs  []error
}

func newMemTxRepo(users *memUserRepo) *memTxRepo {
	return &memTxRepo{users: users, byID: make(map[int64]domain.Transaction)}
}

func (r *memTxRepo) Create(_ context.Context, tx domain.Transaction) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		if err != nil {
			return domain.Transaction{}, err
		}
	}
	r.nextID++
	tx.TransactionID = r.nextID
	tx.InitiatedAt = time.Now().UTC()
	r.byID[tx.TransactionID] = tx
	return tx, nil
}

func (r *memTxRepo) GetByID(_ context.Context, transactionID int64) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.byID[transactionID]
	if !ok {
		return domain.Transaction{}, domain.ErrRecordNotFound
	}
	return tx, nil
}

func (r *memTxRepo) GetBySmsReference(_ context.Context, smsReference string) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.byID {
		if tx.SmsReference != nil && *tx.SmsReference == smsReference {
			return tx, nil
		}
	}
	return domain.Transaction{}, domain.ErrRecordNotFound
}

func (r *memTxRepo) UpdateStatus(_ context.Context, transactionID int64, status domain.TransactionStatus) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.byID[transactionID]
	if !ok {
		return domain.Transaction{}, domain.ErrRecordNotFound
	}
	if tx.Status != domain.TransactionStatusPending {
		return domain.Transaction{}, domain.ErrInvalidState
	}
	tx.Status = status
	if status.Terminal() {
		now := time.Now().UTC()
		tx.CompletedAt = &now
	}
	r.byID[transactionID] = tx
	return tx, nil
}

func (r *memTxRepo) ListByUser(_ context.Context, upiID string) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range r.byID {
		if tx.SenderUpi == upiID || tx.ReceiverUpi == upiID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *memTxRepo) ListByUserPaginated(ctx context.Context, upiID string, limit, offset int) ([]domain.Transaction, error) {
	all, err := r.ListByUser(ctx, upiID)
	if err != nil {
		return nil, err
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memTxRepo) ListByStatus(_ context.Context, status domain.TransactionStatus) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range r.byID {
		if tx.Status == status {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *memTxRepo) MoveFunds(_ context.Context, fromUpi, toUpi string, amount decimal.Decimal) error {
	r.users.mu.Lock()
	defer r.users.mu.Unlock()

	from, ok := r.users.users[fromUpi]
	if !ok {
		return domain.ErrRecordNotFound
	}
	to, ok := r.users.users[toUpi]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if from.Balance.LessThan(amount) {
		return domain.ErrInsufficientBalance
	}

	from.Balance = from.Balance.Sub(amount)
	to.Balance = to.Balance.Add(amount)
	r.users.users[fromUpi] = from
	r.users.users[toUpi] = to
	return nil
}

// seed inserts a transaction directly, bypassing the service. Used to set
// up PENDING rows for transition tests.
func (r *memTxRepo) seed(tx domain.Transaction) domain.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	tx.TransactionID = r.nextID
	tx.InitiatedAt = time.Now().UTC()
	r.byID[tx.TransactionID] = tx
	return tx
}

type memAttemptRepo struct {
	mu       sync.Mutex
	nextID   int64
	attempts []domain.FailedAttempt
}

func newMemAttemptRepo() *memAttemptRepo {
	return &memAttemptRepo{}
}

func (r *memAttemptRepo) Create(_ context.Context, attempt domain.FailedAttempt) (domain.FailedAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	attempt.ID = r.nextID
	attempt.AttemptedAt = time.Now().UTC()
	r.attempts = append(r.attempts, attempt)
	return attempt, nil
}

func (r *memAttemptRepo) ListByUpiID(_ context.Context, upiID string) ([]domain.FailedAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.FailedAttempt
	for _, attempt := range r.attempts {
		if attempt.UpiID == upiID {
			out = append(out, attempt)
		}
	}
	return out, nil
}

func (r *memAttemptRepo) CountSince(_ context.Context, upiID string, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, attempt := range r.attempts {
		if attempt.UpiID == upiID && !attempt.AttemptedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *memAttemptRepo) DeleteBefore(_ context.Context, threshold time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []domain.FailedAttempt
	var removed int64
	for _, attempt := range r.attempts {
		if attempt.AttemptedAt.Before(threshold) {
			removed++
			continue
		}
		kept = append(kept, attempt)
	}
	r.attempts = kept
	return removed, nil
}

func (r *memAttemptRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}

// memNotifier counts deliveries; the service fans alerts out from
// goroutines, so access is locked.
type memNotifier struct {
	mu       sync.Mutex
	debits   int
	credits  int
	failures int
}

func (n *memNotifier) DebitConfirmation(_ context.Context, _ domain.User, _ domain.Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.debits++
	return nil
}

func (n *memNotifier) CreditAlert(_ context.Context, _ domain.User, _ domain.Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.credits++
	return nil
}

func (n *memNotifier) FailureAlert(_ context.Context, _ domain.User, _ domain.Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures++
	return nil
}

func (n *memNotifier) counts() (debits, credits, failures int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.debits, n.credits, n.failures
}

const testPin = "1234"

func seedUser(users *memUserRepo, upiID, phone string, balance int64) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPin), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	users.users[upiID] = domain.User{
		UpiID:       upiID,
		Name:        upiID,
		PhoneNumber: phone,
		HashedPin:   string(hashed),
		Balance:     decimal.NewFromInt(balance),
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
}
