package seed

import (
	"context"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/modules/core/infrastructure/persistence"
	"github.com/iota-uz/pims/pkg/application"
	"github.com/iota-uz/pims/pkg/configuration"
)

// MasterAdmin seeds the bootstrap master admin account. Safe to run
// repeatedly; an existing account with the same email is left alone.
func MasterAdmin(name, email, password string) application.SeedFunc {
	return func(ctx context.Context, app application.Application) error {
		repo := persistence.NewUserRepository()

		if _, err := repo.GetByEmail(ctx, email); err == nil {
			configuration.Use().Logger().Infof("master admin %s already exists, skipping", email)
			return nil
		} else if !errors.Is(err, persistence.ErrUserNotFound) {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), configuration.Use().Auth.BcryptCost)
		if err != nil {
			return errors.Wrap(err, "failed to hash master admin password")
		}
		entity := user.New(name, email, user.RoleMasterAdmin, "").WithPasswordHash(string(hash))
		_, err = repo.Create(ctx, entity)
		return err
	}
}
