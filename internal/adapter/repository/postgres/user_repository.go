package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
	"github.com/pay-seva/sms-payment-processor/internal/logger"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `upi_id, name, phone_number, hashed_pin, balance, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	logger.Info("user repository create", logger.Fields{
		"upiId":       user.UpiID,
		"phoneNumber": user.PhoneNumber,
	})

	const query = `
INSERT INTO users (upi_id, name, phone_number, hashed_pin, balance)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at, updated_at`

	var createdAt, updatedAt time.Time
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.UpiID,
		user.Name,
		user.PhoneNumber,
		user.HashedPin,
		user.Balance,
	).Scan(&createdAt, &updatedAt); err != nil {
		logger.Error("user repository create failed", err, logger.Fields{
			"upiId": user.UpiID,
		})
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt
	return user, nil
}

func (r *UserRepository) GetByUpiID(ctx context.Context, upiID string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE upi_id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, upiID))
}

func (r *UserRepository) GetByPhoneNumber(ctx context.Context, phoneNumber string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE phone_number = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, phoneNumber))
}

func (r *UserRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	const query = `
UPDATE users
SET name = $2,
    phone_number = $3,
    hashed_pin = $4,
    updated_at = NOW()
WHERE upi_id = $1
RETURNING ` + userColumns

	return r.scanUser(r.db.QueryRowContext(
		ctx,
		query,
		user.UpiID,
		user.Name,
		user.PhoneNumber,
		user.HashedPin,
	))
}

func (r *UserRepository) Delete(ctx context.Context, upiID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE upi_id = $1`, upiID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.UpiID,
			&user.Name,
			&user.PhoneNumber,
			&user.HashedPin,
			&user.Balance,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *UserRepository) ExistsByUpiID(ctx context.Context, upiID string) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE upi_id = $1`, upiID).Scan(&count); err != nil {
		return false, fmt.Errorf("check upi id: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) ExistsByPhoneNumber(ctx context.Context, phoneNumber string) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE phone_number = $1`, phoneNumber).Scan(&count); err != nil {
		return false, fmt.Errorf("check phone number: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) scanUser(row *sql.Row) (domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.UpiID,
		&user.Name,
		&user.PhoneNumber,
		&user.HashedPin,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrRecordNotFound
		}
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}
