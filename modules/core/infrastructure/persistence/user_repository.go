package persistence

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/modules/core/infrastructure/persistence/models"
	"github.com/iota-uz/pims/pkg/composables"
	"github.com/iota-uz/pims/pkg/repo"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrDepartmentHeld = errors.New("department already has a custodian")
)

const (
	userFindQuery = `
        SELECT
            u.id,
            u.name,
            u.email,
            u.password,
            u.role,
            u.department,
            u.created_at
        FROM users u`

	userCountQuery = `SELECT COUNT(u.id) FROM users u`

	userDeleteQuery = `DELETE FROM users WHERE id = $1`
)

type PgUserRepository struct{}

func NewUserRepository() user.Repository {
	return &PgUserRepository{}
}

func (g *PgUserRepository) GetPaginated(ctx context.Context, params *user.FindParams) ([]user.User, int64, error) {
	if params == nil {
		params = &user.FindParams{}
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}

	var conditions []string
	var args []interface{}
	if params.Role != "" {
		conditions = append(conditions, "u.role = $1")
		args = append(args, string(params.Role))
	}

	query := repo.Join(
		userFindQuery,
		repo.JoinWhere(conditions...),
		"ORDER BY u.id",
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to query users")
	}
	defer rows.Close()

	out, err := scanUsers(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	countQuery := repo.Join(userCountQuery, repo.JoinWhere(conditions...))
	if err := tx.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count users")
	}
	return out, total, nil
}

func (g *PgUserRepository) GetByID(ctx context.Context, id uint) (user.User, error) {
	return g.getOne(ctx, repo.Join(userFindQuery, "WHERE u.id = $1"), id)
}

func (g *PgUserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return g.getOne(ctx, repo.Join(userFindQuery, "WHERE u.email = $1"), strings.ToLower(strings.TrimSpace(email)))
}

func (g *PgUserRepository) Create(ctx context.Context, entity user.User) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	dbUser := toDBUser(entity)
	fields := []string{"name", "email", "password", "role", "department"}
	row := tx.QueryRow(
		ctx,
		repo.Insert("users", fields, "id", "created_at"),
		dbUser.Name,
		dbUser.Email,
		dbUser.Password,
		dbUser.Role,
		dbUser.Department,
	)
	if err := row.Scan(&dbUser.ID, &dbUser.CreatedAt); err != nil {
		if repo.IsUniqueViolation(err, "users_email_key") {
			return nil, ErrEmailTaken
		}
		if repo.IsUniqueViolation(err, "users_custodian_department_key") {
			return nil, ErrDepartmentHeld
		}
		return nil, errors.Wrap(err, "failed to create user")
	}
	return toDomainUser(dbUser), nil
}

func (g *PgUserRepository) Update(ctx context.Context, entity user.User) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	dbUser := toDBUser(entity)
	fields := []string{"name", "email", "password", "role", "department"}
	query := repo.Update("users", fields, "id = $6")
	if _, err := tx.Exec(
		ctx,
		query,
		dbUser.Name,
		dbUser.Email,
		dbUser.Password,
		dbUser.Role,
		dbUser.Department,
		dbUser.ID,
	); err != nil {
		if repo.IsUniqueViolation(err, "users_email_key") {
			return nil, ErrEmailTaken
		}
		if repo.IsUniqueViolation(err, "users_custodian_department_key") {
			return nil, ErrDepartmentHeld
		}
		return nil, errors.Wrap(err, "failed to update user")
	}
	return g.GetByID(ctx, dbUser.ID)
}

func (g *PgUserRepository) Delete(ctx context.Context, id uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, userDeleteQuery, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete user")
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (g *PgUserRepository) getOne(ctx context.Context, query string, args ...interface{}) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var dbUser models.User
	row := tx.QueryRow(ctx, query, args...)
	if err := row.Scan(
		&dbUser.ID,
		&dbUser.Name,
		&dbUser.Email,
		&dbUser.Password,
		&dbUser.Role,
		&dbUser.Department,
		&dbUser.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "failed to query user")
	}
	return toDomainUser(&dbUser), nil
}

func scanUsers(rows pgx.Rows) ([]user.User, error) {
	out := make([]user.User, 0)
	for rows.Next() {
		var dbUser models.User
		if err := rows.Scan(
			&dbUser.ID,
			&dbUser.Name,
			&dbUser.Email,
			&dbUser.Password,
			&dbUser.Role,
			&dbUser.Department,
			&dbUser.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan user")
		}
		out = append(out, toDomainUser(&dbUser))
	}
	return out, rows.Err()
}
