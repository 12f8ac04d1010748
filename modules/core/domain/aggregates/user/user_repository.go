package user

import "context"

type FindParams struct {
	Role   Role
	Limit  int
	Offset int
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]User, int64, error)
	GetByID(ctx context.Context, id uint) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) (User, error)
	Delete(ctx context.Context, id uint) error
}
