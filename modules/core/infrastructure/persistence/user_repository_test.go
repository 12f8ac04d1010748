package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/pkg/constants"
)

func TestUserRepository_CreateMapsEmailConstraint(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			require.Contains(t, query, "INSERT INTO users")
			require.Equal(t, "jane@corp.local", args[1])
			return stubRow{scan: func(dest ...any) error {
				return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
			}}
		},
	}
	ctx := context.WithValue(context.Background(), constants.TxKey, tx)

	_, err := NewUserRepository().Create(ctx, user.New("Jane", "jane@corp.local", user.RoleStaff, ""))
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserRepository_CreateMapsDepartmentConstraint(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			return stubRow{scan: func(dest ...any) error {
				return &pgconn.PgError{Code: "23505", ConstraintName: "users_custodian_department_key"}
			}}
		},
	}
	ctx := context.WithValue(context.Background(), constants.TxKey, tx)

	_, err := NewUserRepository().Create(ctx, user.New("Jane", "jane@corp.local", user.RoleCustodian, "IT"))
	require.ErrorIs(t, err, ErrDepartmentHeld)
}

func TestUserRepository_GetByEmailNormalizesAndMapsNotFound(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			require.Contains(t, query, "WHERE u.email = $1")
			require.Equal(t, "jane@corp.local", args[0])
			return stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}
	ctx := context.WithValue(context.Background(), constants.TxKey, tx)

	_, err := NewUserRepository().GetByEmail(ctx, "  Jane@Corp.Local ")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_GetByIDScansRow(t *testing.T) {
	now := time.Now()
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			require.Contains(t, query, "WHERE u.id = $1")
			require.Equal(t, uint(4), args[0])
			return stubRow{scan: func(dest ...any) error {
				*dest[0].(*uint) = 4
				*dest[1].(*string) = "Jane"
				*dest[2].(*string) = "jane@corp.local"
				*dest[3].(*string) = "hash"
				*dest[4].(*string) = "property_custodian"
				*dest[5].(*sql.NullString) = sql.NullString{String: "IT", Valid: true}
				*dest[6].(*time.Time) = now
				return nil
			}}
		},
	}
	ctx := context.WithValue(context.Background(), constants.TxKey, tx)

	got, err := NewUserRepository().GetByID(ctx, 4)
	require.NoError(t, err)
	require.Equal(t, uint(4), got.ID())
	require.Equal(t, user.RoleCustodian, got.Role())
	require.Equal(t, "IT", got.Department())
}

type stubTx struct {
	queryFunc    func(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	queryRowFunc func(ctx context.Context, query string, args ...any) pgx.Row
}

func (s *stubTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("copy not implemented")
}

func (s *stubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	var results pgx.BatchResults
	return results
}

func (s *stubTx) Exec(ctx context.Context, query string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (s *stubTx) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	if s.queryFunc == nil {
		return nil, errors.New("query not implemented")
	}
	return s.queryFunc(ctx, query, args...)
}

func (s *stubTx) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if s.queryRowFunc == nil {
		return stubRow{scan: func(dest ...any) error { return errors.New("query row not implemented") }}
	}
	return s.queryRowFunc(ctx, query, args...)
}

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return errors.New("scan not implemented")
	}
	return r.scan(dest...)
}
