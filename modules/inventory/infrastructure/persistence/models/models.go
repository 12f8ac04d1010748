package models

import (
	"database/sql"
	"time"
)

type Property struct {
	ID             uint
	PropertyNo     string
	Description    string
	Quantity       int
	Value          string
	SerialNo       sql.NullString
	LocationDetail sql.NullString
	Category       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type PropertyDetails struct {
	PropertyID      uint
	Article         sql.NullString
	OldPropertyNo   sql.NullString
	UnitOfMeasure   sql.NullString
	AcquisitionDate sql.NullTime
	Condition       sql.NullString
	Remarks         sql.NullString
	Branch          sql.NullString
	AssetType       sql.NullString
	FundCluster     sql.NullString
	PONo            sql.NullString
	InvoiceDate     sql.NullTime
	InvoiceNo       sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CustodianAssignment struct {
	ID         uint
	PropertyID uint
	Custodian  uint
	AssignedBy uint
	Department string
	AssignedAt time.Time
}

type StaffAssignment struct {
	ID          uint
	PropertyID  uint
	StaffID     uint
	CustodianID uint
	AssignedAt  time.Time
}

type ReassignmentRequest struct {
	ID          uint
	PropertyID  uint
	FromStaffID uint
	ToStaffID   uint
	RequestedBy uint
	Status      string
	ReviewedBy  sql.NullInt64
	ReviewedAt  sql.NullTime
	CreatedAt   time.Time
}
