package services

import (
	"context"

	coreuser "github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/modules/inventory/domain/entities/assignment"
	"github.com/iota-uz/pims/modules/inventory/domain/entities/property"
	"github.com/iota-uz/pims/modules/inventory/permissions"
	"github.com/iota-uz/pims/pkg/authz"
	"github.com/iota-uz/pims/pkg/composables"
	"github.com/iota-uz/pims/pkg/eventbus"
)

type DeleteResult struct {
	RequiresConfirmation bool
	Deleted              bool
}

type PropertyService struct {
	repo        property.Repository
	assignments assignment.Repository
	publisher   eventbus.EventBus
}

func NewPropertyService(
	repo property.Repository,
	assignments assignment.Repository,
	publisher eventbus.EventBus,
) *PropertyService {
	return &PropertyService{
		repo:        repo,
		assignments: assignments,
		publisher:   publisher,
	}
}

// GetPaginated lists properties scoped by the actor's role: admins see
// everything, custodians their holdings, staff their delegations.
func (s *PropertyService) GetPaginated(ctx context.Context, actor coreuser.User, limit, offset int) ([]property.ListItem, int64, error) {
	params := &property.FindParams{Limit: limit, Offset: offset}
	switch actor.Role() {
	case coreuser.RoleMasterAdmin, coreuser.RoleAdmin:
	case coreuser.RoleCustodian:
		params.CustodianID = actor.ID()
	case coreuser.RoleStaff:
		params.StaffID = actor.ID()
	default:
		return nil, 0, authz.ErrForbidden
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *PropertyService) GetWithDetails(ctx context.Context, id uint) (property.Property, *property.Details, error) {
	return s.repo.GetWithDetails(ctx, id)
}

func (s *PropertyService) Create(ctx context.Context, actor coreuser.User, entity property.Property) (property.Property, error) {
	if err := permissions.Policy.Enforce(string(actor.Role()), permissions.ManageProperties); err != nil {
		return property.Property{}, err
	}
	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (property.Property, error) {
		return s.repo.Create(txCtx, entity)
	})
	if err != nil {
		return property.Property{}, err
	}
	s.publisher.Publish(property.CreatedEvent{PropertyID: created.ID, ActorID: actor.ID()})
	return created, nil
}

func (s *PropertyService) Update(ctx context.Context, actor coreuser.User, entity property.Property) (property.Property, error) {
	if err := permissions.Policy.Enforce(string(actor.Role()), permissions.ManageProperties); err != nil {
		return property.Property{}, err
	}
	updated, err := s.repo.Update(ctx, entity)
	if err != nil {
		return property.Property{}, err
	}
	s.publisher.Publish(property.UpdatedEvent{PropertyID: updated.ID, ActorID: actor.ID()})
	return updated, nil
}

func (s *PropertyService) UpdateDetails(ctx context.Context, actor coreuser.User, d property.Details) (*property.Details, error) {
	if err := permissions.Policy.Enforce(string(actor.Role()), permissions.ManageProperties); err != nil {
		return nil, err
	}
	return s.repo.UpdateDetails(ctx, d)
}

// UpdateLocationDetail lets the assigned custodian record where the
// property physically sits. Anyone else, custodian of another property
// included, gets a 403 through ErrNotOwner.
func (s *PropertyService) UpdateLocationDetail(ctx context.Context, actor coreuser.User, propertyID uint, detail string) (property.Property, error) {
	if err := permissions.Policy.Enforce(string(actor.Role()), permissions.UpdateLocation); err != nil {
		return property.Property{}, err
	}
	updated, err := composables.InTxResult(ctx, func(txCtx context.Context) (property.Property, error) {
		holder, err := s.assignments.GetCustodianAssignment(txCtx, propertyID)
		if err != nil {
			return property.Property{}, err
		}
		if holder == nil || holder.Custodian != actor.ID() {
			return property.Property{}, assignment.ErrNotOwner
		}
		return s.repo.UpdateLocationDetail(txCtx, propertyID, detail)
	})
	if err != nil {
		return property.Property{}, err
	}
	s.publisher.Publish(property.UpdatedEvent{PropertyID: updated.ID, ActorID: actor.ID()})
	return updated, nil
}

// Delete removes a property after an explicit confirmation when a
// custodian assignment exists. The unconfirmed case is a UX gate,
// not a failure.
func (s *PropertyService) Delete(ctx context.Context, actor coreuser.User, id uint, confirmed bool) (*DeleteResult, error) {
	if err := permissions.Policy.Enforce(string(actor.Role()), permissions.ManageProperties); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	existing, err := s.assignments.GetCustodianAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing != nil && !confirmed {
		return &DeleteResult{RequiresConfirmation: true}, nil
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.publisher.Publish(property.DeletedEvent{PropertyID: id, ActorID: actor.ID()})
	return &DeleteResult{Deleted: true}, nil
}
