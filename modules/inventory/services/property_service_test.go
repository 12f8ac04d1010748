package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreuser "github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/modules/inventory/domain/entities/assignment"
	"github.com/iota-uz/pims/modules/inventory/domain/entities/property"
	"github.com/iota-uz/pims/modules/inventory/services"
	"github.com/iota-uz/pims/pkg/authz"
	"github.com/iota-uz/pims/pkg/eventbus"
)

type memPropertyRepository struct {
	properties map[uint]property.Property
	details    map[uint]property.Details
	lastParams *property.FindParams
	nextID     uint
}

func newMemPropertyRepository() *memPropertyRepository {
	return &memPropertyRepository{
		properties: map[uint]property.Property{},
		details:    map[uint]property.Details{},
		nextID:     1,
	}
}

func (r *memPropertyRepository) GetPaginated(ctx context.Context, params *property.FindParams) ([]property.ListItem, int64, error) {
	r.lastParams = params
	out := make([]property.ListItem, 0, len(r.properties))
	for _, p := range r.properties {
		out = append(out, property.ListItem{Property: p})
	}
	return out, int64(len(out)), nil
}

func (r *memPropertyRepository) GetByID(ctx context.Context, id uint) (property.Property, error) {
	p, ok := r.properties[id]
	if !ok {
		return property.Property{}, property.ErrNotFound
	}
	return p, nil
}

func (r *memPropertyRepository) GetWithDetails(ctx context.Context, id uint) (property.Property, *property.Details, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return property.Property{}, nil, err
	}
	if d, ok := r.details[id]; ok {
		return p, &d, nil
	}
	return p, nil, nil
}

func (r *memPropertyRepository) Create(ctx context.Context, p property.Property) (property.Property, error) {
	for _, existing := range r.properties {
		if existing.PropertyNo == p.PropertyNo {
			return property.Property{}, property.ErrPropertyNoTaken
		}
		if existing.SerialNo == p.SerialNo {
			return property.Property{}, property.ErrSerialNoTaken
		}
	}
	p.ID = r.nextID
	r.nextID++
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.properties[p.ID] = p
	return p, nil
}

func (r *memPropertyRepository) Update(ctx context.Context, p property.Property) (property.Property, error) {
	if _, ok := r.properties[p.ID]; !ok {
		return property.Property{}, property.ErrNotFound
	}
	p.UpdatedAt = time.Now()
	r.properties[p.ID] = p
	return p, nil
}

func (r *memPropertyRepository) UpdateDetails(ctx context.Context, d property.Details) (*property.Details, error) {
	if _, ok := r.properties[d.PropertyID]; !ok {
		return nil, property.ErrDetailsNotFound
	}
	d.UpdatedAt = time.Now()
	r.details[d.PropertyID] = d
	return &d, nil
}

func (r *memPropertyRepository) UpdateLocationDetail(ctx context.Context, id uint, detail string) (property.Property, error) {
	p, ok := r.properties[id]
	if !ok {
		return property.Property{}, property.ErrNotFound
	}
	p.LocationDetail = detail
	p.UpdatedAt = time.Now()
	r.properties[id] = p
	return p, nil
}

func (r *memPropertyRepository) Delete(ctx context.Context, id uint) error {
	if _, ok := r.properties[id]; !ok {
		return property.ErrNotFound
	}
	delete(r.properties, id)
	delete(r.details, id)
	return nil
}

func testProperty(no string) property.Property {
	return property.Property{
		PropertyNo:  no,
		Description: "Laptop",
		Quantity:    2,
		Value:       decimal.NewFromInt(1500),
		SerialNo:    "SN-" + no,
		Category:    property.CategoryAnnexA,
	}
}

func assignmentFor(propertyID, custodianID uint) assignment.CustodianAssignment {
	return assignment.CustodianAssignment{
		PropertyID: propertyID,
		Custodian:  custodianID,
		AssignedBy: 1,
		Department: "Finance",
	}
}

func newPropertyFixture() (*memPropertyRepository, *memAssignmentRepository, *services.PropertyService) {
	propertyRepo := newMemPropertyRepository()
	assignmentRepo := newMemAssignmentRepository()
	svc := services.NewPropertyService(propertyRepo, assignmentRepo, eventbus.NewEventPublisher(logrus.New()))
	return propertyRepo, assignmentRepo, svc
}

func TestPropertyService_ListScopesByRole(t *testing.T) {
	repo, _, svc := newPropertyFixture()
	ctx := testContext()

	admin := testUser(1, coreuser.RoleAdmin, "")
	_, _, err := svc.GetPaginated(ctx, admin, 25, 0)
	require.NoError(t, err)
	assert.Zero(t, repo.lastParams.CustodianID)
	assert.Zero(t, repo.lastParams.StaffID)

	custodian := testUser(2, coreuser.RoleCustodian, "Finance")
	_, _, err = svc.GetPaginated(ctx, custodian, 25, 0)
	require.NoError(t, err)
	assert.Equal(t, uint(2), repo.lastParams.CustodianID)

	staff := testUser(3, coreuser.RoleStaff, "")
	_, _, err = svc.GetPaginated(ctx, staff, 25, 0)
	require.NoError(t, err)
	assert.Equal(t, uint(3), repo.lastParams.StaffID)
}

func TestPropertyService_CreateRequiresAdminRole(t *testing.T) {
	_, _, svc := newPropertyFixture()
	ctx := testContext()

	custodian := testUser(2, coreuser.RoleCustodian, "Finance")
	_, err := svc.Create(ctx, custodian, testProperty("P-001"))
	require.ErrorIs(t, err, authz.ErrForbidden)

	admin := testUser(1, coreuser.RoleAdmin, "")
	created, err := svc.Create(ctx, admin, testProperty("P-001"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "3000", created.TotalValue().String())
}

func TestPropertyService_CreateRejectsDuplicatePropertyNo(t *testing.T) {
	_, _, svc := newPropertyFixture()
	ctx := testContext()
	admin := testUser(1, coreuser.RoleAdmin, "")

	_, err := svc.Create(ctx, admin, testProperty("P-001"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, admin, testProperty("P-001"))
	require.ErrorIs(t, err, property.ErrPropertyNoTaken)
}

func TestPropertyService_DeleteUnassignedProperty(t *testing.T) {
	repo, _, svc := newPropertyFixture()
	ctx := testContext()
	admin := testUser(1, coreuser.RoleAdmin, "")

	created, err := svc.Create(ctx, admin, testProperty("P-001"))
	require.NoError(t, err)

	result, err := svc.Delete(ctx, admin, created.ID, false)
	require.NoError(t, err)
	assert.True(t, result.Deleted)
	assert.False(t, result.RequiresConfirmation)
	assert.Empty(t, repo.properties)
}

func TestPropertyService_DeleteAssignedPropertyNeedsConfirmation(t *testing.T) {
	repo, assignments, svc := newPropertyFixture()
	ctx := testContext()
	admin := testUser(1, coreuser.RoleAdmin, "")

	created, err := svc.Create(ctx, admin, testProperty("P-001"))
	require.NoError(t, err)
	_, err = assignments.UpsertCustodian(ctx, assignmentFor(created.ID, 2))
	require.NoError(t, err)

	result, err := svc.Delete(ctx, admin, created.ID, false)
	require.NoError(t, err)
	assert.True(t, result.RequiresConfirmation)
	assert.False(t, result.Deleted)
	assert.Len(t, repo.properties, 1, "an unconfirmed delete must not remove anything")

	result, err = svc.Delete(ctx, admin, created.ID, true)
	require.NoError(t, err)
	assert.True(t, result.Deleted)
	assert.Empty(t, repo.properties)
}

func TestPropertyService_DeleteMissingProperty(t *testing.T) {
	_, _, svc := newPropertyFixture()
	admin := testUser(1, coreuser.RoleAdmin, "")

	_, err := svc.Delete(testContext(), admin, 999, false)
	require.ErrorIs(t, err, property.ErrNotFound)
}

func TestPropertyService_LocationDetailUpdatedByOwningCustodian(t *testing.T) {
	_, assignments, svc := newPropertyFixture()
	ctx := testContext()
	admin := testUser(1, coreuser.RoleAdmin, "")
	custodian := testUser(2, coreuser.RoleCustodian, "Finance")

	created, err := svc.Create(ctx, admin, testProperty("P-001"))
	require.NoError(t, err)
	_, err = assignments.UpsertCustodian(ctx, assignmentFor(created.ID, custodian.ID()))
	require.NoError(t, err)

	updated, err := svc.UpdateLocationDetail(ctx, custodian, created.ID, "Room 204, Annex Building")
	require.NoError(t, err)
	assert.Equal(t, "Room 204, Annex Building", updated.LocationDetail)
}

func TestPropertyService_LocationDetailRejectsOtherCustodian(t *testing.T) {
	_, assignments, svc := newPropertyFixture()
	ctx := testContext()
	admin := testUser(1, coreuser.RoleAdmin, "")
	owner := testUser(2, coreuser.RoleCustodian, "Finance")
	other := testUser(5, coreuser.RoleCustodian, "Logistics")

	created, err := svc.Create(ctx, admin, testProperty("P-001"))
	require.NoError(t, err)
	_, err = assignments.UpsertCustodian(ctx, assignmentFor(created.ID, owner.ID()))
	require.NoError(t, err)

	_, err = svc.UpdateLocationDetail(ctx, other, created.ID, "Storage")
	require.ErrorIs(t, err, assignment.ErrNotOwner)

	// Unassigned property: nobody owns it, so nobody may relocate it.
	unassigned, err := svc.Create(ctx, admin, testProperty("P-002"))
	require.NoError(t, err)
	_, err = svc.UpdateLocationDetail(ctx, owner, unassigned.ID, "Storage")
	require.ErrorIs(t, err, assignment.ErrNotOwner)
}

func TestPropertyService_LocationDetailIsCustodianOnly(t *testing.T) {
	_, _, svc := newPropertyFixture()
	ctx := testContext()
	admin := testUser(1, coreuser.RoleAdmin, "")

	created, err := svc.Create(ctx, admin, testProperty("P-001"))
	require.NoError(t, err)

	_, err = svc.UpdateLocationDetail(ctx, admin, created.ID, "Vault")
	require.ErrorIs(t, err, authz.ErrForbidden)

	staff := testUser(3, coreuser.RoleStaff, "")
	_, err = svc.UpdateLocationDetail(ctx, staff, created.ID, "Vault")
	require.ErrorIs(t, err, authz.ErrForbidden)
}

func TestPropertyService_UpdateDetails(t *testing.T) {
	_, _, svc := newPropertyFixture()
	ctx := testContext()
	admin := testUser(1, coreuser.RoleAdmin, "")

	created, err := svc.Create(ctx, admin, testProperty("P-001"))
	require.NoError(t, err)

	updated, err := svc.UpdateDetails(ctx, admin, property.Details{
		PropertyID: created.ID,
		Condition:  "serviceable",
		Branch:     "Main",
	})
	require.NoError(t, err)
	assert.Equal(t, "serviceable", updated.Condition)

	_, _, err = svc.GetWithDetails(ctx, created.ID)
	require.NoError(t, err)
}
