package property

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iota-uz/pims/pkg/serrors"
)

var (
	ErrNotFound          = serrors.NewError("PROPERTY_NOT_FOUND", "property not found")
	ErrPropertyNoTaken   = serrors.NewError("PROPERTY_NO_TAKEN", "a property with this property number already exists")
	ErrSerialNoTaken     = serrors.NewError("PROPERTY_SERIAL_TAKEN", "a property with this serial number already exists")
	ErrDetailsNotFound   = serrors.NewError("PROPERTY_DETAILS_NOT_FOUND", "property details not found")
	ErrInvalidCategory   = serrors.NewError("PROPERTY_INVALID_CATEGORY", "unknown property category")
)

type Category string

const (
	CategoryAnnexA Category = "Annex A"
	CategoryAnnexB Category = "Annex B"
	CategoryAnnexC Category = "Annex C"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryAnnexA, CategoryAnnexB, CategoryAnnexC:
		return true
	}
	return false
}

type Property struct {
	ID             uint
	PropertyNo     string
	Description    string
	Quantity       int
	Value          decimal.Decimal
	SerialNo       string
	LocationDetail string
	Category       Category
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TotalValue is quantity times unit value.
func (p Property) TotalValue() decimal.Decimal {
	return p.Value.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// Details is the one-to-one accounting record attached to a property.
type Details struct {
	PropertyID      uint
	Article         string
	OldPropertyNo   string
	UnitOfMeasure   string
	AcquisitionDate *time.Time
	Condition       string
	Remarks         string
	Branch          string
	AssetType       string
	FundCluster     string
	PONo            string
	InvoiceDate     *time.Time
	InvoiceNo       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ListItem is the audit/admin projection of a property together with
// who currently holds it.
type ListItem struct {
	Property
	AssignedTo         string
	AssignedDepartment string
	ReassignmentStatus string
}

type FindParams struct {
	// Scope the listing to a custodian's or staff member's holdings.
	CustodianID uint
	StaffID     uint
	Limit       int
	Offset      int
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]ListItem, int64, error)
	GetByID(ctx context.Context, id uint) (Property, error)
	GetWithDetails(ctx context.Context, id uint) (Property, *Details, error)
	Create(ctx context.Context, p Property) (Property, error)
	Update(ctx context.Context, p Property) (Property, error)
	UpdateDetails(ctx context.Context, d Details) (*Details, error)
	UpdateLocationDetail(ctx context.Context, id uint, detail string) (Property, error)
	Delete(ctx context.Context, id uint) error
}
