package persistence

import (
	"database/sql"

	"github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/modules/core/infrastructure/persistence/models"
)

func toDomainUser(dbUser *models.User) user.User {
	return user.Hydrate(
		dbUser.ID,
		dbUser.Name,
		dbUser.Email,
		dbUser.Password,
		user.Role(dbUser.Role),
		dbUser.Department.String,
		dbUser.CreatedAt,
	)
}

func toDBUser(entity user.User) *models.User {
	department := sql.NullString{String: entity.Department(), Valid: entity.Department() != ""}
	return &models.User{
		ID:         entity.ID(),
		Name:       entity.Name(),
		Email:      entity.Email(),
		Password:   entity.PasswordHash(),
		Role:       string(entity.Role()),
		Department: department,
		CreatedAt:  entity.CreatedAt(),
	}
}
