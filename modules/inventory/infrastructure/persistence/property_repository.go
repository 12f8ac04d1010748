package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/pims/modules/inventory/domain/entities/property"
	"github.com/iota-uz/pims/modules/inventory/infrastructure/persistence/models"
	"github.com/iota-uz/pims/pkg/composables"
	"github.com/iota-uz/pims/pkg/repo"
)

const (
	propertyColumns = `
            p.id,
            p.property_no,
            p.description,
            p.quantity,
            p.value::text,
            p.serial_no,
            p.location_detail,
            p.category,
            p.created_at,
            p.updated_at`

	propertyFindQuery = `SELECT` + propertyColumns + `
        FROM properties p`

	propertyListQuery = `SELECT` + propertyColumns + `,
            COALESCE(staff_u.name, cust_u.name) AS assigned_to,
            COALESCE(ca.assigned_department, '') AS assigned_department,
            COALESCE(rr.status::text, '') AS reassignment_status
        FROM properties p
        LEFT JOIN custodian_assignments ca ON ca.property_id = p.id
        LEFT JOIN users cust_u ON cust_u.id = ca.custodian_id
        LEFT JOIN staff_assignments sa ON sa.property_id = p.id
        LEFT JOIN users staff_u ON staff_u.id = sa.staff_id
        LEFT JOIN reassignment_requests rr ON rr.property_id = p.id AND rr.status = 'pending'`

	propertyDetailsQuery = `
        SELECT
            d.property_id,
            d.article,
            d.old_property_no,
            d.unit_of_measure,
            d.acquisition_date,
            d.condition,
            d.remarks,
            d.branch,
            d.asset_type,
            d.fund_cluster,
            d.po_no,
            d.invoice_date,
            d.invoice_no,
            d.created_at,
            d.updated_at
        FROM property_details d
        WHERE d.property_id = $1`

	propertyDeleteQuery = `DELETE FROM properties WHERE id = $1`
)

type PgPropertyRepository struct{}

func NewPropertyRepository() property.Repository {
	return &PgPropertyRepository{}
}

func (g *PgPropertyRepository) GetPaginated(ctx context.Context, params *property.FindParams) ([]property.ListItem, int64, error) {
	if params == nil {
		params = &property.FindParams{}
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}

	var conditions []string
	var args []interface{}
	if params.CustodianID != 0 {
		args = append(args, params.CustodianID)
		conditions = append(conditions, fmt.Sprintf("ca.custodian_id = $%d", len(args)))
	}
	if params.StaffID != 0 {
		args = append(args, params.StaffID)
		conditions = append(conditions, fmt.Sprintf("sa.staff_id = $%d", len(args)))
	}

	query := repo.Join(
		propertyListQuery,
		repo.JoinWhere(conditions...),
		"ORDER BY p.id",
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to query properties")
	}
	defer rows.Close()

	out := make([]property.ListItem, 0)
	for rows.Next() {
		var row models.Property
		var assignedTo *string
		var assignedDepartment, reassignmentStatus string
		if err := rows.Scan(
			&row.ID,
			&row.PropertyNo,
			&row.Description,
			&row.Quantity,
			&row.Value,
			&row.SerialNo,
			&row.LocationDetail,
			&row.Category,
			&row.CreatedAt,
			&row.UpdatedAt,
			&assignedTo,
			&assignedDepartment,
			&reassignmentStatus,
		); err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan property")
		}
		entity, err := toDomainProperty(&row)
		if err != nil {
			return nil, 0, err
		}
		item := property.ListItem{
			Property:           entity,
			AssignedDepartment: assignedDepartment,
			ReassignmentStatus: reassignmentStatus,
		}
		if assignedTo != nil {
			item.AssignedTo = *assignedTo
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery := repo.Join(
		`SELECT COUNT(DISTINCT p.id) FROM properties p
        LEFT JOIN custodian_assignments ca ON ca.property_id = p.id
        LEFT JOIN staff_assignments sa ON sa.property_id = p.id`,
		repo.JoinWhere(conditions...),
	)
	var total int64
	if err := tx.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count properties")
	}
	return out, total, nil
}

func (g *PgPropertyRepository) GetByID(ctx context.Context, id uint) (property.Property, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return property.Property{}, err
	}
	var row models.Property
	if err := tx.QueryRow(ctx, repo.Join(propertyFindQuery, "WHERE p.id = $1"), id).Scan(
		&row.ID,
		&row.PropertyNo,
		&row.Description,
		&row.Quantity,
		&row.Value,
		&row.SerialNo,
		&row.LocationDetail,
		&row.Category,
		&row.CreatedAt,
		&row.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return property.Property{}, property.ErrNotFound
		}
		return property.Property{}, errors.Wrap(err, "failed to query property")
	}
	return toDomainProperty(&row)
}

func (g *PgPropertyRepository) GetWithDetails(ctx context.Context, id uint) (property.Property, *property.Details, error) {
	entity, err := g.GetByID(ctx, id)
	if err != nil {
		return property.Property{}, nil, err
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return property.Property{}, nil, err
	}
	var row models.PropertyDetails
	if err := tx.QueryRow(ctx, propertyDetailsQuery, id).Scan(
		&row.PropertyID,
		&row.Article,
		&row.OldPropertyNo,
		&row.UnitOfMeasure,
		&row.AcquisitionDate,
		&row.Condition,
		&row.Remarks,
		&row.Branch,
		&row.AssetType,
		&row.FundCluster,
		&row.PONo,
		&row.InvoiceDate,
		&row.InvoiceNo,
		&row.CreatedAt,
		&row.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity, nil, nil
		}
		return property.Property{}, nil, errors.Wrap(err, "failed to query property details")
	}
	return entity, toDomainDetails(&row), nil
}

// Create inserts the property and its empty details record. Callers
// wrap this in a transaction so the two inserts commit together.
func (g *PgPropertyRepository) Create(ctx context.Context, entity property.Property) (property.Property, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return property.Property{}, err
	}
	dbRow := toDBProperty(entity)
	fields := []string{"property_no", "description", "quantity", "value", "serial_no", "location_detail", "category"}
	if err := tx.QueryRow(
		ctx,
		repo.Insert("properties", fields, "id", "created_at", "updated_at"),
		dbRow.PropertyNo,
		dbRow.Description,
		dbRow.Quantity,
		dbRow.Value,
		dbRow.SerialNo,
		dbRow.LocationDetail,
		dbRow.Category,
	).Scan(&dbRow.ID, &dbRow.CreatedAt, &dbRow.UpdatedAt); err != nil {
		return property.Property{}, mapPropertyConstraint(err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO property_details (property_id) VALUES ($1)`, dbRow.ID); err != nil {
		return property.Property{}, errors.Wrap(err, "failed to create property details")
	}
	return toDomainProperty(dbRow)
}

func (g *PgPropertyRepository) Update(ctx context.Context, entity property.Property) (property.Property, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return property.Property{}, err
	}
	dbRow := toDBProperty(entity)
	query := `
        UPDATE properties SET
            property_no = $1,
            description = $2,
            quantity = $3,
            value = $4,
            serial_no = $5,
            location_detail = $6,
            category = $7,
            updated_at = now()
        WHERE id = $8`
	tag, err := tx.Exec(
		ctx,
		query,
		dbRow.PropertyNo,
		dbRow.Description,
		dbRow.Quantity,
		dbRow.Value,
		dbRow.SerialNo,
		dbRow.LocationDetail,
		dbRow.Category,
		dbRow.ID,
	)
	if err != nil {
		return property.Property{}, mapPropertyConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return property.Property{}, property.ErrNotFound
	}
	return g.GetByID(ctx, dbRow.ID)
}

func (g *PgPropertyRepository) UpdateDetails(ctx context.Context, d property.Details) (*property.Details, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	query := `
        UPDATE property_details SET
            article = $1,
            old_property_no = $2,
            unit_of_measure = $3,
            acquisition_date = $4,
            condition = $5,
            remarks = $6,
            branch = $7,
            asset_type = $8,
            fund_cluster = $9,
            po_no = $10,
            invoice_date = $11,
            invoice_no = $12,
            updated_at = now()
        WHERE property_id = $13`
	tag, err := tx.Exec(
		ctx,
		query,
		nullString(d.Article),
		nullString(d.OldPropertyNo),
		nullString(d.UnitOfMeasure),
		d.AcquisitionDate,
		nullString(d.Condition),
		nullString(d.Remarks),
		nullString(d.Branch),
		nullString(d.AssetType),
		nullString(d.FundCluster),
		nullString(d.PONo),
		d.InvoiceDate,
		nullString(d.InvoiceNo),
		d.PropertyID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update property details")
	}
	if tag.RowsAffected() == 0 {
		return nil, property.ErrDetailsNotFound
	}
	_, details, err := g.GetWithDetails(ctx, d.PropertyID)
	if err != nil {
		return nil, err
	}
	return details, nil
}

func (g *PgPropertyRepository) UpdateLocationDetail(ctx context.Context, id uint, detail string) (property.Property, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return property.Property{}, err
	}
	tag, err := tx.Exec(
		ctx,
		`UPDATE properties SET location_detail = $2, updated_at = now() WHERE id = $1`,
		id,
		detail,
	)
	if err != nil {
		return property.Property{}, errors.Wrap(err, "failed to update location detail")
	}
	if tag.RowsAffected() == 0 {
		return property.Property{}, property.ErrNotFound
	}
	return g.GetByID(ctx, id)
}

// Delete removes the property; assignments, requests, jobs and details
// go with it through foreign key cascades.
func (g *PgPropertyRepository) Delete(ctx context.Context, id uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, propertyDeleteQuery, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete property")
	}
	if tag.RowsAffected() == 0 {
		return property.ErrNotFound
	}
	return nil
}

func mapPropertyConstraint(err error) error {
	if repo.IsUniqueViolation(err, "properties_property_no_key") {
		return property.ErrPropertyNoTaken
	}
	if repo.IsUniqueViolation(err, "properties_serial_no_key") {
		return property.ErrSerialNoTaken
	}
	return errors.Wrap(err, "failed to write property")
}
