package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
)

type FailedAttemptRepository struct {
	db *sql.DB
}

func NewFailedAttemptRepository(db *sql.DB) *FailedAttemptRepository {
	return &FailedAttemptRepository{db: db}
}

func (r *FailedAttemptRepository) Create(ctx context.Context, attempt domain.FailedAttempt) (domain.FailedAttempt, error) {
	const query = `
INSERT INTO failed_attempts (upi_id, reason)
VALUES ($1, $2)
RETURNING id, attempted_at`

	if err := r.db.QueryRowContext(ctx, query, attempt.UpiID, attempt.Reason).
		Scan(&attempt.ID, &attempt.AttemptedAt); err != nil {
		return domain.FailedAttempt{}, fmt.Errorf("create failed attempt: %w", err)
	}

	return attempt, nil
}

func (r *FailedAttemptRepository) ListByUpiID(ctx context.Context, upiID string) ([]domain.FailedAttempt, error) {
	const query = `
SELECT id, upi_id, reason, attempted_at
FROM failed_attempts
WHERE upi_id = $1
ORDER BY attempted_at DESC`

	rows, err := r.db.QueryContext(ctx, query, upiID)
	if err != nil {
		return nil, fmt.Errorf("list failed attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]domain.FailedAttempt, 0)
	for rows.Next() {
		var attempt domain.FailedAttempt
		if err := rows.Scan(&attempt.ID, &attempt.UpiID, &attempt.Reason, &attempt.AttemptedAt); err != nil {
			return nil, fmt.Errorf("scan failed attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}

	return attempts, rows.Err()
}

func (r *FailedAttemptRepository) CountSince(ctx context.Context, upiID string, since time.Time) (int64, error) {
	const query = `SELECT COUNT(1) FROM failed_attempts WHERE upi_id = $1 AND attempted_at >= $2`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, upiID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count failed attempts: %w", err)
	}
	return count, nil
}

func (r *FailedAttemptRepository) DeleteBefore(ctx context.Context, threshold time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM failed_attempts WHERE attempted_at < $1`, threshold)
	if err != nil {
		return 0, fmt.Errorf("delete failed attempts: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete failed attempts rows affected: %w", err)
	}
	return deleted, nil
}
