package services

import (
	"context"

	"github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/modules/core/permissions"
)

type UserService struct {
	repo user.Repository
}

func NewUserService(repo user.Repository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetPaginated(ctx context.Context, actor user.User, params *user.FindParams) ([]user.User, int64, error) {
	if err := permissions.Policy.Enforce(string(actor.Role()), permissions.ViewUsers); err != nil {
		return nil, 0, err
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *UserService) GetByID(ctx context.Context, id uint) (user.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, actor user.User, id uint) error {
	if err := permissions.Policy.Enforce(string(actor.Role()), permissions.ManageUsers); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
