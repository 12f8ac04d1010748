package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/pims/modules/inventory/domain/entities/assignment"
	"github.com/iota-uz/pims/pkg/constants"
)

func TestAssignmentRepository_CreateStaffAssignmentMapsUniqueKey(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			require.Contains(t, query, "INSERT INTO staff_assignments")
			return stubRow{scan: func(dest ...any) error {
				return &pgconn.PgError{Code: "23505", ConstraintName: "staff_assignments_property_id_key"}
			}}
		},
	}
	ctx := context.WithValue(context.Background(), constants.TxKey, tx)

	_, err := NewAssignmentRepository().CreateStaffAssignment(ctx, assignment.StaffAssignment{
		PropertyID:  1,
		StaffID:     3,
		CustodianID: 2,
	})
	require.ErrorIs(t, err, assignment.ErrAlreadyDelegated)
}

func TestAssignmentRepository_CreateRequestMapsPendingKey(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			require.Contains(t, query, "INSERT INTO reassignment_requests")
			return stubRow{scan: func(dest ...any) error {
				return &pgconn.PgError{Code: "23505", ConstraintName: "reassignment_requests_pending_key"}
			}}
		},
	}
	ctx := context.WithValue(context.Background(), constants.TxKey, tx)

	_, err := NewAssignmentRepository().CreateRequest(ctx, assignment.ReassignmentRequest{
		PropertyID:  1,
		FromStaffID: 3,
		ToStaffID:   4,
		RequestedBy: 2,
	})
	require.ErrorIs(t, err, assignment.ErrDuplicatePendingRequest)
}

func TestAssignmentRepository_GetRequestForUpdateLocksRow(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			require.Contains(t, query, "FOR UPDATE")
			require.Equal(t, uint(7), args[0])
			return stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}
	ctx := context.WithValue(context.Background(), constants.TxKey, tx)

	_, err := NewAssignmentRepository().GetRequestForUpdate(ctx, 7)
	require.ErrorIs(t, err, assignment.ErrRequestNotFound)
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
