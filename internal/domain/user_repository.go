package domain

import "context"

type UserRepository interface {
	Create(ctx context.Context, user User) (User, error)
	GetByUpiID(ctx context.Context, upiID string) (User, error)
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (User, error)
	Update(ctx context.Context, user User) (User, error)
	Delete(ctx context.Context, upiID string) error
	List(ctx context.Context) ([]User, error)
	ExistsByUpiID(ctx context.Context, upiID string) (bool, error)
	ExistsByPhoneNumber(ctx context.Context, phoneNumber string) (bool, error)
}
