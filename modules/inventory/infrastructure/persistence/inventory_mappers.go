package persistence

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iota-uz/pims/modules/inventory/domain/entities/assignment"
	"github.com/iota-uz/pims/modules/inventory/domain/entities/property"
	"github.com/iota-uz/pims/modules/inventory/infrastructure/persistence/models"
)

func toDomainProperty(row *models.Property) (property.Property, error) {
	value, err := decimal.NewFromString(row.Value)
	if err != nil {
		return property.Property{}, err
	}
	return property.Property{
		ID:             row.ID,
		PropertyNo:     row.PropertyNo,
		Description:    row.Description,
		Quantity:       row.Quantity,
		Value:          value,
		SerialNo:       row.SerialNo.String,
		LocationDetail: row.LocationDetail.String,
		Category:       property.Category(row.Category),
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}

func toDBProperty(entity property.Property) *models.Property {
	return &models.Property{
		ID:             entity.ID,
		PropertyNo:     entity.PropertyNo,
		Description:    entity.Description,
		Quantity:       entity.Quantity,
		Value:          entity.Value.String(),
		SerialNo:       nullString(entity.SerialNo),
		LocationDetail: nullString(entity.LocationDetail),
		Category:       string(entity.Category),
	}
}

func toDomainDetails(row *models.PropertyDetails) *property.Details {
	return &property.Details{
		PropertyID:      row.PropertyID,
		Article:         row.Article.String,
		OldPropertyNo:   row.OldPropertyNo.String,
		UnitOfMeasure:   row.UnitOfMeasure.String,
		AcquisitionDate: nullableTime(row.AcquisitionDate),
		Condition:       row.Condition.String,
		Remarks:         row.Remarks.String,
		Branch:          row.Branch.String,
		AssetType:       row.AssetType.String,
		FundCluster:     row.FundCluster.String,
		PONo:            row.PONo.String,
		InvoiceDate:     nullableTime(row.InvoiceDate),
		InvoiceNo:       row.InvoiceNo.String,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func toDomainCustodianAssignment(row *models.CustodianAssignment) *assignment.CustodianAssignment {
	return &assignment.CustodianAssignment{
		ID:         row.ID,
		PropertyID: row.PropertyID,
		Custodian:  row.Custodian,
		AssignedBy: row.AssignedBy,
		Department: row.Department,
		AssignedAt: row.AssignedAt,
	}
}

func toDomainStaffAssignment(row *models.StaffAssignment) *assignment.StaffAssignment {
	return &assignment.StaffAssignment{
		ID:          row.ID,
		PropertyID:  row.PropertyID,
		StaffID:     row.StaffID,
		CustodianID: row.CustodianID,
		AssignedAt:  row.AssignedAt,
	}
}

func toDomainRequest(row *models.ReassignmentRequest) *assignment.ReassignmentRequest {
	var reviewedBy *uint
	if row.ReviewedBy.Valid {
		v := uint(row.ReviewedBy.Int64)
		reviewedBy = &v
	}
	var reviewedAt *time.Time
	if row.ReviewedAt.Valid {
		t := row.ReviewedAt.Time
		reviewedAt = &t
	}
	return &assignment.ReassignmentRequest{
		ID:          row.ID,
		PropertyID:  row.PropertyID,
		FromStaffID: row.FromStaffID,
		ToStaffID:   row.ToStaffID,
		RequestedBy: row.RequestedBy,
		Status:      assignment.Status(row.Status),
		ReviewedBy:  reviewedBy,
		ReviewedAt:  reviewedAt,
		CreatedAt:   row.CreatedAt,
	}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullableTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
