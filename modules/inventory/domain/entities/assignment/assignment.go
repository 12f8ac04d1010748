package assignment

import (
	"context"
	"time"

	"github.com/iota-uz/pims/pkg/serrors"
)

var (
	ErrNotOwner = serrors.NewError("ASSIGN_NOT_OWNER", "you are not the primary custodian for this property")

	ErrInvalidAssignee = serrors.NewError("ASSIGN_INVALID_ASSIGNEE", "assignee does not satisfy the role requirements for this assignment")

	ErrDuplicatePendingRequest = serrors.NewError("ASSIGN_DUPLICATE_PENDING", "this property already has a pending reassignment request")

	ErrAlreadyDelegated = serrors.NewError("ASSIGN_ALREADY_DELEGATED", "this property is already delegated to a staff member")

	ErrRequestNotFound = serrors.NewError("ASSIGN_REQUEST_NOT_FOUND", "reassignment request not found")

	ErrAlreadyReviewed = serrors.NewError("ASSIGN_ALREADY_REVIEWED", "this request has already been reviewed")

	ErrInvalidDecision = serrors.NewError("ASSIGN_INVALID_DECISION", "decision must be approved or denied")
)

// CustodianAssignment is the primary accountability record: at most one
// per property, enforced by a unique key on property_id.
type CustodianAssignment struct {
	ID         uint
	PropertyID uint
	Custodian  uint
	AssignedBy uint
	Department string
	AssignedAt time.Time
}

// StaffAssignment is the delegation record: at most one per property.
// Once set, it changes only through an approved reassignment request.
type StaffAssignment struct {
	ID          uint
	PropertyID  uint
	StaffID     uint
	CustodianID uint
	AssignedAt  time.Time
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

func NewStatus(s string) (Status, bool) {
	status := Status(s)
	switch status {
	case StatusApproved, StatusDenied:
		return status, true
	}
	return "", false
}

type ReassignmentRequest struct {
	ID          uint
	PropertyID  uint
	FromStaffID uint
	ToStaffID   uint
	RequestedBy uint
	Status      Status
	ReviewedBy  *uint
	ReviewedAt  *time.Time
	CreatedAt   time.Time
}

// PendingRequestItem is the review-queue projection joining the request
// with the people involved.
type PendingRequestItem struct {
	RequestID     uint
	PropertyNo    string
	Description   string
	FromStaffName string
	ToStaffName   string
	RequestedName string
	Status        Status
	CreatedAt     time.Time
}

type Repository interface {
	GetCustodianAssignment(ctx context.Context, propertyID uint) (*CustodianAssignment, error)
	GetStaffAssignment(ctx context.Context, propertyID uint) (*StaffAssignment, error)

	// UpsertCustodian inserts or overwrites the custodian assignment for
	// a property and removes any staff delegation in the same call.
	UpsertCustodian(ctx context.Context, a CustodianAssignment) (*CustodianAssignment, error)

	CreateStaffAssignment(ctx context.Context, a StaffAssignment) (*StaffAssignment, error)
	UpdateStaffAssignment(ctx context.Context, propertyID, staffID uint) error
	DeleteStaffAssignment(ctx context.Context, propertyID uint) error

	HasPendingRequest(ctx context.Context, propertyID uint) (bool, error)
	CreateRequest(ctx context.Context, r ReassignmentRequest) (*ReassignmentRequest, error)

	// GetRequestForUpdate locks the request row for the rest of the
	// surrounding transaction.
	GetRequestForUpdate(ctx context.Context, requestID uint) (*ReassignmentRequest, error)
	MarkReviewed(ctx context.Context, requestID uint, status Status, reviewedBy uint) (*ReassignmentRequest, error)

	ListPending(ctx context.Context) ([]PendingRequestItem, error)
}
