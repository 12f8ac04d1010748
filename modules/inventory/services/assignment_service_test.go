package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreuser "github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/modules/inventory/domain/entities/assignment"
	"github.com/iota-uz/pims/modules/inventory/services"
	"github.com/iota-uz/pims/pkg/authz"
	"github.com/iota-uz/pims/pkg/constants"
	"github.com/iota-uz/pims/pkg/eventbus"
)

// stubTx satisfies the transaction the service opens without touching a
// database. The in-memory repositories never issue SQL through it.
type stubTx struct{}

func (stubTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (stubTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (stubTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (stubTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults  { return nil }
func (stubTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func testContext() context.Context {
	return context.WithValue(context.Background(), constants.TxKey, stubTx{})
}

type memUserRepository struct {
	users map[uint]coreuser.User
}

func (r *memUserRepository) GetPaginated(ctx context.Context, params *coreuser.FindParams) ([]coreuser.User, int64, error) {
	out := make([]coreuser.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (r *memUserRepository) GetByID(ctx context.Context, id uint) (coreuser.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (r *memUserRepository) GetByEmail(ctx context.Context, email string) (coreuser.User, error) {
	for _, u := range r.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepository) Create(ctx context.Context, u coreuser.User) (coreuser.User, error) {
	r.users[u.ID()] = u
	return u, nil
}

func (r *memUserRepository) Update(ctx context.Context, u coreuser.User) (coreuser.User, error) {
	r.users[u.ID()] = u
	return u, nil
}

func (r *memUserRepository) Delete(ctx context.Context, id uint) error {
	delete(r.users, id)
	return nil
}

type memAssignmentRepository struct {
	custodians map[uint]*assignment.CustodianAssignment
	staff      map[uint]*assignment.StaffAssignment
	requests   map[uint]*assignment.ReassignmentRequest
	nextID     uint
}

func newMemAssignmentRepository() *memAssignmentRepository {
	return &memAssignmentRepository{
		custodians: map[uint]*assignment.CustodianAssignment{},
		staff:      map[uint]*assignment.StaffAssignment{},
		requests:   map[uint]*assignment.ReassignmentRequest{},
		nextID:     1,
	}
}

func (r *memAssignmentRepository) id() uint {
	id := r.nextID
	r.nextID++
	return id
}

func (r *memAssignmentRepository) GetCustodianAssignment(ctx context.Context, propertyID uint) (*assignment.CustodianAssignment, error) {
	return r.custodians[propertyID], nil
}

func (r *memAssignmentRepository) GetStaffAssignment(ctx context.Context, propertyID uint) (*assignment.StaffAssignment, error) {
	return r.staff[propertyID], nil
}

func (r *memAssignmentRepository) UpsertCustodian(ctx context.Context, a assignment.CustodianAssignment) (*assignment.CustodianAssignment, error) {
	a.ID = r.id()
	a.AssignedAt = time.Now()
	r.custodians[a.PropertyID] = &a
	delete(r.staff, a.PropertyID)
	return &a, nil
}

func (r *memAssignmentRepository) CreateStaffAssignment(ctx context.Context, a assignment.StaffAssignment) (*assignment.StaffAssignment, error) {
	a.ID = r.id()
	a.AssignedAt = time.Now()
	r.staff[a.PropertyID] = &a
	return &a, nil
}

func (r *memAssignmentRepository) UpdateStaffAssignment(ctx context.Context, propertyID, staffID uint) error {
	existing, ok := r.staff[propertyID]
	if !ok {
		return assignment.ErrRequestNotFound
	}
	existing.StaffID = staffID
	return nil
}

func (r *memAssignmentRepository) DeleteStaffAssignment(ctx context.Context, propertyID uint) error {
	delete(r.staff, propertyID)
	return nil
}

func (r *memAssignmentRepository) HasPendingRequest(ctx context.Context, propertyID uint) (bool, error) {
	for _, req := range r.requests {
		if req.PropertyID == propertyID && req.Status == assignment.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *memAssignmentRepository) CreateRequest(ctx context.Context, req assignment.ReassignmentRequest) (*assignment.ReassignmentRequest, error) {
	req.ID = r.id()
	req.Status = assignment.StatusPending
	req.CreatedAt = time.Now()
	r.requests[req.ID] = &req
	return &req, nil
}

func (r *memAssignmentRepository) GetRequestForUpdate(ctx context.Context, requestID uint) (*assignment.ReassignmentRequest, error) {
	req, ok := r.requests[requestID]
	if !ok {
		return nil, assignment.ErrRequestNotFound
	}
	return req, nil
}

func (r *memAssignmentRepository) MarkReviewed(ctx context.Context, requestID uint, status assignment.Status, reviewedBy uint) (*assignment.ReassignmentRequest, error) {
	req, ok := r.requests[requestID]
	if !ok {
		return nil, assignment.ErrRequestNotFound
	}
	now := time.Now()
	req.Status = status
	req.ReviewedBy = &reviewedBy
	req.ReviewedAt = &now
	return req, nil
}

func (r *memAssignmentRepository) ListPending(ctx context.Context) ([]assignment.PendingRequestItem, error) {
	out := make([]assignment.PendingRequestItem, 0)
	for _, req := range r.requests {
		if req.Status == assignment.StatusPending {
			out = append(out, assignment.PendingRequestItem{
				RequestID: req.ID,
				Status:    req.Status,
				CreatedAt: req.CreatedAt,
			})
		}
	}
	return out, nil
}

func testUser(id uint, role coreuser.Role, department string) coreuser.User {
	return coreuser.Hydrate(id, "User", "user@example.com", "", role, department, time.Now())
}

func newTestService(repo *memAssignmentRepository, users map[uint]coreuser.User) *services.AssignmentService {
	publisher := eventbus.NewEventPublisher(logrus.New())
	return services.NewAssignmentService(repo, &memUserRepository{users: users}, publisher)
}

func TestAssignmentService_AdminAssignsCustodian(t *testing.T) {
	repo := newMemAssignmentRepository()
	admin := testUser(1, coreuser.RoleAdmin, "")
	custodian := testUser(2, coreuser.RoleCustodian, "Finance")
	svc := newTestService(repo, map[uint]coreuser.User{2: custodian})

	result, err := svc.Assign(testContext(), admin, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeCustodianAssigned, result.Outcome)
	assert.Equal(t, uint(2), result.Custodian.Custodian)
	assert.Equal(t, "Finance", result.Custodian.Department)
}

func TestAssignmentService_AdminCannotAssignToStaff(t *testing.T) {
	repo := newMemAssignmentRepository()
	admin := testUser(1, coreuser.RoleAdmin, "")
	staff := testUser(3, coreuser.RoleStaff, "")
	svc := newTestService(repo, map[uint]coreuser.User{3: staff})

	_, err := svc.Assign(testContext(), admin, 10, 3)
	require.ErrorIs(t, err, assignment.ErrInvalidAssignee)
}

func TestAssignmentService_ReassigningCustodianClearsDelegation(t *testing.T) {
	repo := newMemAssignmentRepository()
	admin := testUser(1, coreuser.RoleAdmin, "")
	custodian := testUser(2, coreuser.RoleCustodian, "Finance")
	replacement := testUser(4, coreuser.RoleCustodian, "Registrar")
	staff := testUser(3, coreuser.RoleStaff, "")
	svc := newTestService(repo, map[uint]coreuser.User{2: custodian, 3: staff, 4: replacement})

	ctx := testContext()
	_, err := svc.Assign(ctx, admin, 10, 2)
	require.NoError(t, err)
	_, err = svc.Assign(ctx, custodian, 10, 3)
	require.NoError(t, err)
	require.NotNil(t, repo.staff[10])

	_, err = svc.Assign(ctx, admin, 10, 4)
	require.NoError(t, err)
	assert.Nil(t, repo.staff[10], "replacing the custodian must clear the staff delegation")
}

func TestAssignmentService_FirstDelegationCreatesStaffAssignment(t *testing.T) {
	repo := newMemAssignmentRepository()
	admin := testUser(1, coreuser.RoleAdmin, "")
	custodian := testUser(2, coreuser.RoleCustodian, "Finance")
	staff := testUser(3, coreuser.RoleStaff, "")
	svc := newTestService(repo, map[uint]coreuser.User{2: custodian, 3: staff})

	ctx := testContext()
	_, err := svc.Assign(ctx, admin, 10, 2)
	require.NoError(t, err)

	result, err := svc.Assign(ctx, custodian, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeStaffDelegated, result.Outcome)
	assert.Equal(t, uint(3), result.Delegation.StaffID)
	assert.Equal(t, uint(2), result.Delegation.CustodianID)
}

func TestAssignmentService_SecondDelegationBecomesRequest(t *testing.T) {
	repo := newMemAssignmentRepository()
	admin := testUser(1, coreuser.RoleAdmin, "")
	custodian := testUser(2, coreuser.RoleCustodian, "Finance")
	first := testUser(3, coreuser.RoleStaff, "")
	second := testUser(5, coreuser.RoleStaff, "")
	svc := newTestService(repo, map[uint]coreuser.User{2: custodian, 3: first, 5: second})

	ctx := testContext()
	_, err := svc.Assign(ctx, admin, 10, 2)
	require.NoError(t, err)
	_, err = svc.Assign(ctx, custodian, 10, 3)
	require.NoError(t, err)

	result, err := svc.Assign(ctx, custodian, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeReassignmentRequested, result.Outcome)
	assert.Equal(t, uint(3), result.Request.FromStaffID)
	assert.Equal(t, uint(5), result.Request.ToStaffID)
	assert.Equal(t, assignment.StatusPending, result.Request.Status)

	// The live delegation is untouched until someone approves.
	assert.Equal(t, uint(3), repo.staff[10].StaffID)

	_, err = svc.Assign(ctx, custodian, 10, 5)
	require.ErrorIs(t, err, assignment.ErrDuplicatePendingRequest)
}

func TestAssignmentService_DelegationRequiresOwnership(t *testing.T) {
	repo := newMemAssignmentRepository()
	admin := testUser(1, coreuser.RoleAdmin, "")
	owner := testUser(2, coreuser.RoleCustodian, "Finance")
	other := testUser(6, coreuser.RoleCustodian, "Registrar")
	staff := testUser(3, coreuser.RoleStaff, "")
	svc := newTestService(repo, map[uint]coreuser.User{2: owner, 3: staff, 6: other})

	ctx := testContext()
	_, err := svc.Assign(ctx, admin, 10, 2)
	require.NoError(t, err)

	_, err = svc.Assign(ctx, other, 10, 3)
	require.ErrorIs(t, err, assignment.ErrNotOwner)
}

func TestAssignmentService_StaffCannotAssign(t *testing.T) {
	repo := newMemAssignmentRepository()
	staff := testUser(3, coreuser.RoleStaff, "")
	svc := newTestService(repo, map[uint]coreuser.User{3: staff})

	_, err := svc.Assign(testContext(), staff, 10, 3)
	require.ErrorIs(t, err, authz.ErrForbidden)
}

func reviewFixture(t *testing.T) (*memAssignmentRepository, *services.AssignmentService, uint) {
	t.Helper()
	repo := newMemAssignmentRepository()
	admin := testUser(1, coreuser.RoleAdmin, "")
	custodian := testUser(2, coreuser.RoleCustodian, "Finance")
	first := testUser(3, coreuser.RoleStaff, "")
	second := testUser(5, coreuser.RoleStaff, "")
	svc := newTestService(repo, map[uint]coreuser.User{2: custodian, 3: first, 5: second})

	ctx := testContext()
	_, err := svc.Assign(ctx, admin, 10, 2)
	require.NoError(t, err)
	_, err = svc.Assign(ctx, custodian, 10, 3)
	require.NoError(t, err)
	result, err := svc.Assign(ctx, custodian, 10, 5)
	require.NoError(t, err)
	return repo, svc, result.Request.ID
}

func TestAssignmentService_ApproveMovesDelegation(t *testing.T) {
	repo, svc, requestID := reviewFixture(t)
	master := testUser(9, coreuser.RoleMasterAdmin, "")

	reviewed, err := svc.ReviewReassignment(testContext(), master, requestID, "approved")
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, uint(9), *reviewed.ReviewedBy)
	assert.Equal(t, uint(5), repo.staff[10].StaffID)
}

func TestAssignmentService_DenyKeepsDelegation(t *testing.T) {
	repo, svc, requestID := reviewFixture(t)
	master := testUser(9, coreuser.RoleMasterAdmin, "")

	reviewed, err := svc.ReviewReassignment(testContext(), master, requestID, "denied")
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusDenied, reviewed.Status)
	assert.Equal(t, uint(3), repo.staff[10].StaffID)
}

func TestAssignmentService_ReviewIsFinal(t *testing.T) {
	_, svc, requestID := reviewFixture(t)
	master := testUser(9, coreuser.RoleMasterAdmin, "")

	ctx := testContext()
	_, err := svc.ReviewReassignment(ctx, master, requestID, "denied")
	require.NoError(t, err)

	_, err = svc.ReviewReassignment(ctx, master, requestID, "approved")
	require.ErrorIs(t, err, assignment.ErrAlreadyReviewed)
}

func TestAssignmentService_ReviewRejectsBadDecision(t *testing.T) {
	_, svc, requestID := reviewFixture(t)
	master := testUser(9, coreuser.RoleMasterAdmin, "")

	_, err := svc.ReviewReassignment(testContext(), master, requestID, "pending")
	require.ErrorIs(t, err, assignment.ErrInvalidDecision)
}

func TestAssignmentService_OnlyMasterAdminReviews(t *testing.T) {
	_, svc, requestID := reviewFixture(t)
	admin := testUser(1, coreuser.RoleAdmin, "")

	_, err := svc.ReviewReassignment(testContext(), admin, requestID, "approved")
	require.ErrorIs(t, err, authz.ErrForbidden)
}

func TestAssignmentService_DenyAllowsNewRequest(t *testing.T) {
	_, svc, requestID := reviewFixture(t)
	master := testUser(9, coreuser.RoleMasterAdmin, "")
	custodian := testUser(2, coreuser.RoleCustodian, "Finance")

	ctx := testContext()
	_, err := svc.ReviewReassignment(ctx, master, requestID, "denied")
	require.NoError(t, err)

	result, err := svc.Assign(ctx, custodian, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeReassignmentRequested, result.Outcome)
	assert.NotEqual(t, requestID, result.Request.ID)
}

func TestAssignmentService_ListPendingRequiresPermission(t *testing.T) {
	_, svc, _ := reviewFixture(t)
	custodian := testUser(2, coreuser.RoleCustodian, "Finance")

	_, err := svc.ListPending(testContext(), custodian)
	require.ErrorIs(t, err, authz.ErrForbidden)

	master := testUser(9, coreuser.RoleMasterAdmin, "")
	items, err := svc.ListPending(testContext(), master)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
