package dtos

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iota-uz/pims/modules/inventory/domain/entities/assignment"
	"github.com/iota-uz/pims/modules/inventory/domain/entities/property"
	"github.com/iota-uz/pims/pkg/constants"
)

type PropertyDTO struct {
	PropertyNo     string `json:"propertyNo" validate:"required"`
	Description    string `json:"description" validate:"required"`
	Quantity       int    `json:"quantity" validate:"required,min=1"`
	Value          string `json:"value" validate:"required"`
	SerialNo       string `json:"serialNo" validate:"required"`
	LocationDetail string `json:"locationDetail"`
	Category       string `json:"category"`
}

func (d *PropertyDTO) Ok() error {
	d.PropertyNo = strings.TrimSpace(d.PropertyNo)
	d.Description = strings.TrimSpace(d.Description)
	d.SerialNo = strings.TrimSpace(d.SerialNo)
	return constants.Validate.Struct(d)
}

// ToEntity converts the payload, defaulting the category like the rest
// of the catalog does.
func (d *PropertyDTO) ToEntity() (property.Property, error) {
	value, err := decimal.NewFromString(d.Value)
	if err != nil {
		return property.Property{}, err
	}
	category := property.Category(d.Category)
	if d.Category == "" {
		category = property.CategoryAnnexA
	}
	if !category.IsValid() {
		return property.Property{}, property.ErrInvalidCategory
	}
	return property.Property{
		PropertyNo:     d.PropertyNo,
		Description:    d.Description,
		Quantity:       d.Quantity,
		Value:          value,
		SerialNo:       d.SerialNo,
		LocationDetail: d.LocationDetail,
		Category:       category,
	}, nil
}

type DetailsDTO struct {
	Article         string     `json:"article"`
	OldPropertyNo   string     `json:"oldPropertyNo"`
	UnitOfMeasure   string     `json:"unitOfMeasure"`
	AcquisitionDate *time.Time `json:"acquisitionDate"`
	Condition       string     `json:"condition"`
	Remarks         string     `json:"remarks"`
	Branch          string     `json:"branch"`
	AssetType       string     `json:"assetType"`
	FundCluster     string     `json:"fundCluster"`
	PONo            string     `json:"poNo"`
	InvoiceDate     *time.Time `json:"invoiceDate"`
	InvoiceNo       string     `json:"invoiceNo"`
}

func (d *DetailsDTO) ToEntity(propertyID uint) property.Details {
	return property.Details{
		PropertyID:      propertyID,
		Article:         d.Article,
		OldPropertyNo:   d.OldPropertyNo,
		UnitOfMeasure:   d.UnitOfMeasure,
		AcquisitionDate: d.AcquisitionDate,
		Condition:       d.Condition,
		Remarks:         d.Remarks,
		Branch:          d.Branch,
		AssetType:       d.AssetType,
		FundCluster:     d.FundCluster,
		PONo:            d.PONo,
		InvoiceDate:     d.InvoiceDate,
		InvoiceNo:       d.InvoiceNo,
	}
}

type AssignDTO struct {
	PropertyID uint `json:"propertyId" validate:"required"`
	UserID     uint `json:"userId" validate:"required"`
}

func (d *AssignDTO) Ok() error {
	return constants.Validate.Struct(d)
}

type ReviewDTO struct {
	RequestID uint   `json:"requestId" validate:"required"`
	NewStatus string `json:"newStatus" validate:"required,oneof=approved denied"`
}

func (d *ReviewDTO) Ok() error {
	return constants.Validate.Struct(d)
}

type LocationDetailDTO struct {
	LocationDetail string `json:"locationDetail" validate:"required"`
}

func (d *LocationDetailDTO) Ok() error {
	return constants.Validate.Struct(d)
}

type DeleteDTO struct {
	Confirmed bool `json:"confirmed"`
}

type PropertyResponse struct {
	ID             uint      `json:"id"`
	PropertyNo     string    `json:"propertyNo"`
	Description    string    `json:"description"`
	Quantity       int       `json:"quantity"`
	Value          string    `json:"value"`
	TotalValue     string    `json:"totalValue"`
	SerialNo       string    `json:"serialNo,omitempty"`
	LocationDetail string    `json:"locationDetail,omitempty"`
	Category       string    `json:"category"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func NewPropertyResponse(p property.Property) PropertyResponse {
	return PropertyResponse{
		ID:             p.ID,
		PropertyNo:     p.PropertyNo,
		Description:    p.Description,
		Quantity:       p.Quantity,
		Value:          p.Value.String(),
		TotalValue:     p.TotalValue().String(),
		SerialNo:       p.SerialNo,
		LocationDetail: p.LocationDetail,
		Category:       string(p.Category),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

type ListItemResponse struct {
	PropertyResponse
	AssignedTo         string `json:"assignedTo,omitempty"`
	AssignedDepartment string `json:"assignedDepartment,omitempty"`
	ReassignmentStatus string `json:"reassignmentStatus,omitempty"`
}

func NewListItemResponse(item property.ListItem) ListItemResponse {
	return ListItemResponse{
		PropertyResponse:   NewPropertyResponse(item.Property),
		AssignedTo:         item.AssignedTo,
		AssignedDepartment: item.AssignedDepartment,
		ReassignmentStatus: item.ReassignmentStatus,
	}
}

type DetailsResponse struct {
	Article         string     `json:"article,omitempty"`
	OldPropertyNo   string     `json:"oldPropertyNo,omitempty"`
	UnitOfMeasure   string     `json:"unitOfMeasure,omitempty"`
	AcquisitionDate *time.Time `json:"acquisitionDate,omitempty"`
	Condition       string     `json:"condition,omitempty"`
	Remarks         string     `json:"remarks,omitempty"`
	Branch          string     `json:"branch,omitempty"`
	AssetType       string     `json:"assetType,omitempty"`
	FundCluster     string     `json:"fundCluster,omitempty"`
	PONo            string     `json:"poNo,omitempty"`
	InvoiceDate     *time.Time `json:"invoiceDate,omitempty"`
	InvoiceNo       string     `json:"invoiceNo,omitempty"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func NewDetailsResponse(d *property.Details) *DetailsResponse {
	if d == nil {
		return nil
	}
	return &DetailsResponse{
		Article:         d.Article,
		OldPropertyNo:   d.OldPropertyNo,
		UnitOfMeasure:   d.UnitOfMeasure,
		AcquisitionDate: d.AcquisitionDate,
		Condition:       d.Condition,
		Remarks:         d.Remarks,
		Branch:          d.Branch,
		AssetType:       d.AssetType,
		FundCluster:     d.FundCluster,
		PONo:            d.PONo,
		InvoiceDate:     d.InvoiceDate,
		InvoiceNo:       d.InvoiceNo,
		UpdatedAt:       d.UpdatedAt,
	}
}

type PendingRequestResponse struct {
	RequestID     uint      `json:"requestId"`
	PropertyNo    string    `json:"propertyNo"`
	Description   string    `json:"description"`
	FromStaffName string    `json:"fromStaffName"`
	ToStaffName   string    `json:"toStaffName"`
	RequestedName string    `json:"requestedByName"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewPendingRequestResponse(item assignment.PendingRequestItem) PendingRequestResponse {
	return PendingRequestResponse{
		RequestID:     item.RequestID,
		PropertyNo:    item.PropertyNo,
		Description:   item.Description,
		FromStaffName: item.FromStaffName,
		ToStaffName:   item.ToStaffName,
		RequestedName: item.RequestedName,
		Status:        string(item.Status),
		CreatedAt:     item.CreatedAt,
	}
}

type RequestResponse struct {
	ID          uint       `json:"id"`
	PropertyID  uint       `json:"propertyId"`
	FromStaffID uint       `json:"fromStaffId"`
	ToStaffID   uint       `json:"toStaffId"`
	RequestedBy uint       `json:"requestedBy"`
	Status      string     `json:"status"`
	ReviewedBy  *uint      `json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func NewRequestResponse(r *assignment.ReassignmentRequest) RequestResponse {
	return RequestResponse{
		ID:          r.ID,
		PropertyID:  r.PropertyID,
		FromStaffID: r.FromStaffID,
		ToStaffID:   r.ToStaffID,
		RequestedBy: r.RequestedBy,
		Status:      string(r.Status),
		ReviewedBy:  r.ReviewedBy,
		ReviewedAt:  r.ReviewedAt,
		CreatedAt:   r.CreatedAt,
	}
}
