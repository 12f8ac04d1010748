package services

import (
	"context"

	coreuser "github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/modules/inventory/domain/entities/assignment"
	"github.com/iota-uz/pims/modules/inventory/permissions"
	"github.com/iota-uz/pims/pkg/authz"
	"github.com/iota-uz/pims/pkg/composables"
	"github.com/iota-uz/pims/pkg/eventbus"
)

type AssignOutcome string

const (
	// An admin set or replaced the property's custodian.
	OutcomeCustodianAssigned AssignOutcome = "custodian_assigned"
	// A custodian delegated the property to staff for the first time.
	OutcomeStaffDelegated AssignOutcome = "staff_delegated"
	// The delegation change was recorded as a request awaiting review.
	OutcomeReassignmentRequested AssignOutcome = "reassignment_requested"
)

type AssignResult struct {
	Outcome    AssignOutcome
	Custodian  *assignment.CustodianAssignment
	Delegation *assignment.StaffAssignment
	Request    *assignment.ReassignmentRequest
}

type AssignmentService struct {
	repo      assignment.Repository
	users     coreuser.Repository
	publisher eventbus.EventBus
}

func NewAssignmentService(
	repo assignment.Repository,
	users coreuser.Repository,
	publisher eventbus.EventBus,
) *AssignmentService {
	return &AssignmentService{
		repo:      repo,
		users:     users,
		publisher: publisher,
	}
}

// Assign routes the single "assign" action by the actor's role: admins
// set the custodian, custodians delegate to staff. Callers distinguish
// an immediate assignment from a deferred approval by the Outcome.
func (s *AssignmentService) Assign(ctx context.Context, actor coreuser.User, propertyID, assigneeID uint) (*AssignResult, error) {
	role := string(actor.Role())
	switch {
	case permissions.Policy.Allow(role, permissions.AssignCustodian):
		return s.assignCustodian(ctx, actor, propertyID, assigneeID)
	case permissions.Policy.Allow(role, permissions.DelegateStaff):
		return s.delegateStaff(ctx, actor, propertyID, assigneeID)
	default:
		return nil, authz.ErrForbidden.WithMessage("role %q cannot assign properties", role)
	}
}

func (s *AssignmentService) assignCustodian(ctx context.Context, actor coreuser.User, propertyID, assigneeID uint) (*AssignResult, error) {
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	if assignee.Role() != coreuser.RoleCustodian {
		return nil, assignment.ErrInvalidAssignee.WithMessage("admins can only assign properties to property custodians")
	}
	if assignee.Department() == "" {
		return nil, assignment.ErrInvalidAssignee.WithMessage("custodian %q has no department assigned", assignee.Name())
	}

	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (*assignment.CustodianAssignment, error) {
		return s.repo.UpsertCustodian(txCtx, assignment.CustodianAssignment{
			PropertyID: propertyID,
			Custodian:  assigneeID,
			AssignedBy: actor.ID(),
			Department: assignee.Department(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(assignment.CustodianAssignedEvent{
		PropertyID:  propertyID,
		CustodianID: assigneeID,
		AssignedBy:  actor.ID(),
	})
	return &AssignResult{Outcome: OutcomeCustodianAssigned, Custodian: created}, nil
}

func (s *AssignmentService) delegateStaff(ctx context.Context, actor coreuser.User, propertyID, assigneeID uint) (*AssignResult, error) {
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	if assignee.Role() != coreuser.RoleStaff {
		return nil, assignment.ErrInvalidAssignee.WithMessage("custodians can only delegate properties to staff")
	}

	owner, err := s.repo.GetCustodianAssignment(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if owner == nil || owner.Custodian != actor.ID() {
		return nil, assignment.ErrNotOwner
	}

	result, err := composables.InTxResult(ctx, func(txCtx context.Context) (*AssignResult, error) {
		existing, err := s.repo.GetStaffAssignment(txCtx, propertyID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			created, err := s.repo.CreateStaffAssignment(txCtx, assignment.StaffAssignment{
				PropertyID:  propertyID,
				StaffID:     assigneeID,
				CustodianID: actor.ID(),
			})
			if err != nil {
				return nil, err
			}
			return &AssignResult{Outcome: OutcomeStaffDelegated, Delegation: created}, nil
		}

		pending, err := s.repo.HasPendingRequest(txCtx, propertyID)
		if err != nil {
			return nil, err
		}
		if pending {
			return nil, assignment.ErrDuplicatePendingRequest
		}
		request, err := s.repo.CreateRequest(txCtx, assignment.ReassignmentRequest{
			PropertyID:  propertyID,
			FromStaffID: existing.StaffID,
			ToStaffID:   assigneeID,
			RequestedBy: actor.ID(),
		})
		if err != nil {
			return nil, err
		}
		return &AssignResult{Outcome: OutcomeReassignmentRequested, Request: request}, nil
	})
	if err != nil {
		return nil, err
	}

	switch result.Outcome {
	case OutcomeStaffDelegated:
		s.publisher.Publish(assignment.StaffDelegatedEvent{
			PropertyID:  propertyID,
			StaffID:     assigneeID,
			CustodianID: actor.ID(),
		})
	case OutcomeReassignmentRequested:
		s.publisher.Publish(assignment.ReassignmentRequestedEvent{
			RequestID:   result.Request.ID,
			PropertyID:  propertyID,
			FromStaffID: result.Request.FromStaffID,
			ToStaffID:   result.Request.ToStaffID,
			RequestedBy: actor.ID(),
		})
	}
	return result, nil
}

// ReviewReassignment resolves a pending request. The request row stays
// locked for the whole transaction, so concurrent reviews serialize and
// the loser sees a non-pending status.
func (s *AssignmentService) ReviewReassignment(ctx context.Context, actor coreuser.User, requestID uint, decision string) (*assignment.ReassignmentRequest, error) {
	if err := permissions.Policy.Enforce(string(actor.Role()), permissions.ReviewReassignment); err != nil {
		return nil, err
	}
	status, ok := assignment.NewStatus(decision)
	if !ok {
		return nil, assignment.ErrInvalidDecision
	}

	reviewed, err := composables.InTxResult(ctx, func(txCtx context.Context) (*assignment.ReassignmentRequest, error) {
		request, err := s.repo.GetRequestForUpdate(txCtx, requestID)
		if err != nil {
			return nil, err
		}
		if request.Status != assignment.StatusPending {
			return nil, assignment.ErrAlreadyReviewed
		}
		if status == assignment.StatusApproved {
			if err := s.repo.UpdateStaffAssignment(txCtx, request.PropertyID, request.ToStaffID); err != nil {
				return nil, err
			}
		}
		return s.repo.MarkReviewed(txCtx, requestID, status, actor.ID())
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(assignment.ReassignmentReviewedEvent{
		RequestID:  reviewed.ID,
		PropertyID: reviewed.PropertyID,
		ReviewedBy: actor.ID(),
		Status:     reviewed.Status,
	})
	return reviewed, nil
}

func (s *AssignmentService) ListPending(ctx context.Context, actor coreuser.User) ([]assignment.PendingRequestItem, error) {
	if err := permissions.Policy.Enforce(string(actor.Role()), permissions.ViewPending); err != nil {
		return nil, err
	}
	return s.repo.ListPending(ctx)
}
