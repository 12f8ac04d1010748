package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/pims/modules/devicehub/domain/entities/job"
	"github.com/iota-uz/pims/pkg/constants"
)

func TestJobRepository_EnqueueMapsPendingConstraint(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			require.Contains(t, query, "INSERT INTO print_jobs")
			require.Equal(t, uint(10), args[0])
			return stubRow{scan: func(dest ...any) error {
				return &pgconn.PgError{Code: "23505", ConstraintName: "print_jobs_pending_key"}
			}}
		},
	}
	ctx := context.WithValue(context.Background(), constants.TxKey, tx)

	_, err := NewJobRepository().Enqueue(ctx, job.KindPrint, job.Job{PropertyID: 10, RequestedBy: 3})
	require.ErrorIs(t, err, job.ErrDuplicatePending)
}

func TestJobRepository_ClaimNextLocksAndMarksClaimed(t *testing.T) {
	now := time.Now()
	claimed := now.Add(time.Second)

	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			switch {
			case strings.Contains(query, "FOR UPDATE SKIP LOCKED"):
				require.Contains(t, query, "FROM display_jobs")
				require.Contains(t, query, "ORDER BY created_at, id")
				return stubRow{scan: func(dest ...any) error {
					*dest[0].(*uint) = 7
					*dest[1].(*uint) = 10
					*dest[2].(*uint) = 3
					*dest[3].(*string) = "pending"
					*dest[4].(*time.Time) = now
					*dest[5].(*sql.NullTime) = sql.NullTime{}
					return nil
				}}
			case strings.Contains(query, "SET status = 'claimed'"):
				require.Contains(t, query, "UPDATE display_jobs")
				require.Equal(t, uint(7), args[0])
				return stubRow{scan: func(dest ...any) error {
					*dest[0].(*uint) = 7
					*dest[1].(*uint) = 10
					*dest[2].(*uint) = 3
					*dest[3].(*string) = "claimed"
					*dest[4].(*time.Time) = now
					*dest[5].(*sql.NullTime) = sql.NullTime{Time: claimed, Valid: true}
					return nil
				}}
			default:
				t.Fatalf("unexpected query: %s", query)
				return nil
			}
		},
	}
	ctx := context.WithValue(context.Background(), constants.TxKey, tx)

	got, err := NewJobRepository().ClaimNext(ctx, job.KindDisplay)
	require.NoError(t, err)
	require.Equal(t, uint(7), got.ID)
	require.Equal(t, job.StatusClaimed, got.Status)
	require.NotNil(t, got.ClaimedAt)
	require.Equal(t, claimed, *got.ClaimedAt)
}

func TestJobRepository_ClaimNextEmptyQueue(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			return stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}
	ctx := context.WithValue(context.Background(), constants.TxKey, tx)

	got, err := NewJobRepository().ClaimNext(ctx, job.KindPrint)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestJobRepository_GetDisplayTargetGone(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			require.Contains(t, query, "COALESCE(staff_u.name, cust_u.name, '')")
			return stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}
	ctx := context.WithValue(context.Background(), constants.TxKey, tx)

	_, err := NewJobRepository().GetDisplayTarget(ctx, 999)
	require.ErrorIs(t, err, job.ErrPropertyGone)
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
