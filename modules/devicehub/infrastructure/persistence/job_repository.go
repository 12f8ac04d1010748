package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/pims/modules/devicehub/domain/entities/job"
	"github.com/iota-uz/pims/modules/devicehub/infrastructure/persistence/models"
	"github.com/iota-uz/pims/pkg/composables"
	"github.com/iota-uz/pims/pkg/repo"
)

// The table name comes from the fixed job.Kind set, never from user
// input, so interpolating it into the SQL below is safe.
const (
	jobColumns = `id, property_id, requested_by, status, created_at, claimed_at`

	jobInsertQuery = `
        INSERT INTO %s (property_id, requested_by, status)
        VALUES ($1, $2, 'pending')
        RETURNING ` + jobColumns

	jobPendingExistsQuery = `SELECT 1 FROM %s WHERE property_id = $1 AND status = 'pending'`

	// The oldest pending row is locked for the rest of the transaction;
	// competing claimers skip it instead of waiting.
	jobClaimQuery = `
        SELECT ` + jobColumns + `
        FROM %s
        WHERE status = 'pending'
        ORDER BY created_at, id
        LIMIT 1
        FOR UPDATE SKIP LOCKED`

	jobMarkClaimedQuery = `
        UPDATE %s SET status = 'claimed', claimed_at = now()
        WHERE id = $1
        RETURNING ` + jobColumns

	jobMarkFailedQuery = `UPDATE %s SET status = 'failed' WHERE id = $1`

	jobListQuery = `
        SELECT
            j.id,
            j.status,
            p.property_no,
            p.description,
            u.name,
            j.created_at,
            j.claimed_at
        FROM %s j
        INNER JOIN properties p ON p.id = j.property_id
        INNER JOIN users u ON u.id = j.requested_by
        ORDER BY j.created_at DESC`

	displayTargetQuery = `
        SELECT
            p.property_no,
            p.description,
            COALESCE(staff_u.name, cust_u.name, '')
        FROM properties p
        LEFT JOIN custodian_assignments ca ON ca.property_id = p.id
        LEFT JOIN users cust_u ON cust_u.id = ca.custodian_id
        LEFT JOIN staff_assignments sa ON sa.property_id = p.id
        LEFT JOIN users staff_u ON staff_u.id = sa.staff_id
        WHERE p.id = $1`
)

type PgJobRepository struct{}

func NewJobRepository() job.Repository {
	return &PgJobRepository{}
}

func (g *PgJobRepository) Enqueue(ctx context.Context, kind job.Kind, j job.Job) (*job.Job, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.Job
	if err := tx.QueryRow(
		ctx,
		fmt.Sprintf(jobInsertQuery, kind.Table),
		j.PropertyID,
		j.RequestedBy,
	).Scan(
		&row.ID,
		&row.PropertyID,
		&row.RequestedBy,
		&row.Status,
		&row.CreatedAt,
		&row.ClaimedAt,
	); err != nil {
		if repo.IsUniqueViolation(err, kind.Table+"_pending_key") {
			return nil, job.ErrDuplicatePending
		}
		return nil, errors.Wrap(err, "failed to enqueue job")
	}
	return toDomainJob(&row), nil
}

func (g *PgJobRepository) HasPending(ctx context.Context, kind job.Kind, propertyID uint) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var one int
	err = tx.QueryRow(ctx, fmt.Sprintf(jobPendingExistsQuery, kind.Table), propertyID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to check pending job")
	}
	return true, nil
}

func (g *PgJobRepository) ClaimNext(ctx context.Context, kind job.Kind) (*job.Job, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.Job
	if err := tx.QueryRow(ctx, fmt.Sprintf(jobClaimQuery, kind.Table)).Scan(
		&row.ID,
		&row.PropertyID,
		&row.RequestedBy,
		&row.Status,
		&row.CreatedAt,
		&row.ClaimedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to select next pending job")
	}
	if err := tx.QueryRow(ctx, fmt.Sprintf(jobMarkClaimedQuery, kind.Table), row.ID).Scan(
		&row.ID,
		&row.PropertyID,
		&row.RequestedBy,
		&row.Status,
		&row.CreatedAt,
		&row.ClaimedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to mark job claimed")
	}
	return toDomainJob(&row), nil
}

func (g *PgJobRepository) MarkFailed(ctx context.Context, kind job.Kind, jobID uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf(jobMarkFailedQuery, kind.Table), jobID); err != nil {
		return errors.Wrap(err, "failed to mark job failed")
	}
	return nil
}

func (g *PgJobRepository) GetDisplayTarget(ctx context.Context, propertyID uint) (*job.DisplayTarget, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var target job.DisplayTarget
	if err := tx.QueryRow(ctx, displayTargetQuery, propertyID).Scan(
		&target.PropertyNo,
		&target.Description,
		&target.AccountablePerson,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, job.ErrPropertyGone
		}
		return nil, errors.Wrap(err, "failed to resolve display target")
	}
	return &target, nil
}

func (g *PgJobRepository) ListAll(ctx context.Context, kind job.Kind) ([]job.ListItem, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, fmt.Sprintf(jobListQuery, kind.Table))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list jobs")
	}
	defer rows.Close()

	items := make([]job.ListItem, 0)
	for rows.Next() {
		var row models.JobListItem
		if err := rows.Scan(
			&row.JobID,
			&row.Status,
			&row.PropertyNo,
			&row.PropertyDescription,
			&row.RequestedByName,
			&row.CreatedAt,
			&row.ClaimedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan job row")
		}
		items = append(items, toDomainListItem(&row))
	}
	return items, rows.Err()
}
