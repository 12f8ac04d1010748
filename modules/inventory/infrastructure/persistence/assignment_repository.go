package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/pims/modules/inventory/domain/entities/assignment"
	"github.com/iota-uz/pims/modules/inventory/infrastructure/persistence/models"
	"github.com/iota-uz/pims/pkg/composables"
	"github.com/iota-uz/pims/pkg/repo"
)

const (
	custodianAssignmentQuery = `
        SELECT id, property_id, custodian_id, assigned_by, assigned_department, assigned_at
        FROM custodian_assignments
        WHERE property_id = $1`

	custodianUpsertQuery = `
        INSERT INTO custodian_assignments (property_id, custodian_id, assigned_by, assigned_department)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (property_id) DO UPDATE SET
            custodian_id = EXCLUDED.custodian_id,
            assigned_by = EXCLUDED.assigned_by,
            assigned_department = EXCLUDED.assigned_department,
            assigned_at = now()
        RETURNING id, property_id, custodian_id, assigned_by, assigned_department, assigned_at`

	staffAssignmentQuery = `
        SELECT id, property_id, staff_id, assigned_by_custodian_id, assigned_at
        FROM staff_assignments
        WHERE property_id = $1`

	staffAssignmentInsertQuery = `
        INSERT INTO staff_assignments (property_id, staff_id, assigned_by_custodian_id)
        VALUES ($1, $2, $3)
        RETURNING id, property_id, staff_id, assigned_by_custodian_id, assigned_at`

	staffAssignmentUpdateQuery = `UPDATE staff_assignments SET staff_id = $2 WHERE property_id = $1`

	staffAssignmentDeleteQuery = `DELETE FROM staff_assignments WHERE property_id = $1`

	pendingRequestExistsQuery = `SELECT 1 FROM reassignment_requests WHERE property_id = $1 AND status = 'pending'`

	requestInsertQuery = `
        INSERT INTO reassignment_requests (property_id, from_staff_id, to_staff_id, requested_by_custodian_id, status)
        VALUES ($1, $2, $3, $4, 'pending')
        RETURNING id, property_id, from_staff_id, to_staff_id, requested_by_custodian_id, status, reviewed_by, reviewed_at, created_at`

	requestColumns = `id, property_id, from_staff_id, to_staff_id, requested_by_custodian_id, status, reviewed_by, reviewed_at, created_at`

	requestForUpdateQuery = `
        SELECT ` + requestColumns + `
        FROM reassignment_requests
        WHERE id = $1
        FOR UPDATE`

	requestReviewQuery = `
        UPDATE reassignment_requests
        SET status = $2, reviewed_by = $3, reviewed_at = now()
        WHERE id = $1
        RETURNING ` + requestColumns

	pendingListQuery = `
        SELECT
            rr.id,
            p.property_no,
            p.description,
            from_u.name,
            to_u.name,
            cust_u.name,
            rr.status,
            rr.created_at
        FROM reassignment_requests rr
        INNER JOIN properties p ON p.id = rr.property_id
        INNER JOIN users from_u ON from_u.id = rr.from_staff_id
        INNER JOIN users to_u ON to_u.id = rr.to_staff_id
        INNER JOIN users cust_u ON cust_u.id = rr.requested_by_custodian_id
        WHERE rr.status = 'pending'
        ORDER BY rr.created_at`
)

type PgAssignmentRepository struct{}

func NewAssignmentRepository() assignment.Repository {
	return &PgAssignmentRepository{}
}

func (g *PgAssignmentRepository) GetCustodianAssignment(ctx context.Context, propertyID uint) (*assignment.CustodianAssignment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.CustodianAssignment
	if err := tx.QueryRow(ctx, custodianAssignmentQuery, propertyID).Scan(
		&row.ID,
		&row.PropertyID,
		&row.Custodian,
		&row.AssignedBy,
		&row.Department,
		&row.AssignedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to query custodian assignment")
	}
	return toDomainCustodianAssignment(&row), nil
}

func (g *PgAssignmentRepository) GetStaffAssignment(ctx context.Context, propertyID uint) (*assignment.StaffAssignment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.StaffAssignment
	if err := tx.QueryRow(ctx, staffAssignmentQuery, propertyID).Scan(
		&row.ID,
		&row.PropertyID,
		&row.StaffID,
		&row.CustodianID,
		&row.AssignedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to query staff assignment")
	}
	return toDomainStaffAssignment(&row), nil
}

func (g *PgAssignmentRepository) UpsertCustodian(ctx context.Context, a assignment.CustodianAssignment) (*assignment.CustodianAssignment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.CustodianAssignment
	if err := tx.QueryRow(ctx, custodianUpsertQuery, a.PropertyID, a.Custodian, a.AssignedBy, a.Department).Scan(
		&row.ID,
		&row.PropertyID,
		&row.Custodian,
		&row.AssignedBy,
		&row.Department,
		&row.AssignedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert custodian assignment")
	}
	// A new custodian invalidates the prior delegation chain.
	if _, err := tx.Exec(ctx, staffAssignmentDeleteQuery, a.PropertyID); err != nil {
		return nil, errors.Wrap(err, "failed to clear staff assignment")
	}
	return toDomainCustodianAssignment(&row), nil
}

func (g *PgAssignmentRepository) CreateStaffAssignment(ctx context.Context, a assignment.StaffAssignment) (*assignment.StaffAssignment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.StaffAssignment
	if err := tx.QueryRow(ctx, staffAssignmentInsertQuery, a.PropertyID, a.StaffID, a.CustodianID).Scan(
		&row.ID,
		&row.PropertyID,
		&row.StaffID,
		&row.CustodianID,
		&row.AssignedAt,
	); err != nil {
		// Two first delegations can race past the existence check; the
		// unique key on property_id decides the loser.
		if repo.IsUniqueViolation(err, "staff_assignments_property_id_key") {
			return nil, assignment.ErrAlreadyDelegated
		}
		return nil, errors.Wrap(err, "failed to create staff assignment")
	}
	return toDomainStaffAssignment(&row), nil
}

func (g *PgAssignmentRepository) UpdateStaffAssignment(ctx context.Context, propertyID, staffID uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, staffAssignmentUpdateQuery, propertyID, staffID); err != nil {
		return errors.Wrap(err, "failed to update staff assignment")
	}
	return nil
}

func (g *PgAssignmentRepository) DeleteStaffAssignment(ctx context.Context, propertyID uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, staffAssignmentDeleteQuery, propertyID); err != nil {
		return errors.Wrap(err, "failed to delete staff assignment")
	}
	return nil
}

func (g *PgAssignmentRepository) HasPendingRequest(ctx context.Context, propertyID uint) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := tx.QueryRow(ctx, repo.Exists(pendingRequestExistsQuery), propertyID).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check pending request")
	}
	return exists, nil
}

func (g *PgAssignmentRepository) CreateRequest(ctx context.Context, r assignment.ReassignmentRequest) (*assignment.ReassignmentRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.ReassignmentRequest
	if err := tx.QueryRow(ctx, requestInsertQuery, r.PropertyID, r.FromStaffID, r.ToStaffID, r.RequestedBy).Scan(
		&row.ID,
		&row.PropertyID,
		&row.FromStaffID,
		&row.ToStaffID,
		&row.RequestedBy,
		&row.Status,
		&row.ReviewedBy,
		&row.ReviewedAt,
		&row.CreatedAt,
	); err != nil {
		// The partial unique index turns a losing check-then-insert
		// race into a conflict instead of a second pending row.
		if repo.IsUniqueViolation(err, "reassignment_requests_pending_key") {
			return nil, assignment.ErrDuplicatePendingRequest
		}
		return nil, errors.Wrap(err, "failed to create reassignment request")
	}
	return toDomainRequest(&row), nil
}

func (g *PgAssignmentRepository) GetRequestForUpdate(ctx context.Context, requestID uint) (*assignment.ReassignmentRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.ReassignmentRequest
	if err := tx.QueryRow(ctx, requestForUpdateQuery, requestID).Scan(
		&row.ID,
		&row.PropertyID,
		&row.FromStaffID,
		&row.ToStaffID,
		&row.RequestedBy,
		&row.Status,
		&row.ReviewedBy,
		&row.ReviewedAt,
		&row.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, assignment.ErrRequestNotFound
		}
		return nil, errors.Wrap(err, "failed to lock reassignment request")
	}
	return toDomainRequest(&row), nil
}

func (g *PgAssignmentRepository) MarkReviewed(ctx context.Context, requestID uint, status assignment.Status, reviewedBy uint) (*assignment.ReassignmentRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.ReassignmentRequest
	if err := tx.QueryRow(ctx, requestReviewQuery, requestID, string(status), reviewedBy).Scan(
		&row.ID,
		&row.PropertyID,
		&row.FromStaffID,
		&row.ToStaffID,
		&row.RequestedBy,
		&row.Status,
		&row.ReviewedBy,
		&row.ReviewedAt,
		&row.CreatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to mark request reviewed")
	}
	return toDomainRequest(&row), nil
}

func (g *PgAssignmentRepository) ListPending(ctx context.Context) ([]assignment.PendingRequestItem, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, pendingListQuery)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending requests")
	}
	defer rows.Close()

	out := make([]assignment.PendingRequestItem, 0)
	for rows.Next() {
		var item assignment.PendingRequestItem
		if err := rows.Scan(
			&item.RequestID,
			&item.PropertyNo,
			&item.Description,
			&item.FromStaffName,
			&item.ToStaffName,
			&item.RequestedName,
			&item.Status,
			&item.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan pending request")
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
