package services_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/modules/core/infrastructure/persistence"
	"github.com/iota-uz/pims/modules/core/services"
)

func TestMain(m *testing.M) {
	// The configuration singleton refuses to load without a secret.
	if os.Getenv("JWT_SECRET") == "" {
		_ = os.Setenv("JWT_SECRET", "test-secret")
	}
	_ = os.Setenv("LOG_PATH", os.TempDir()+"/pims-test.log")
	os.Exit(m.Run())
}

type memUserRepository struct {
	users  map[uint]user.User
	nextID uint
}

func newMemUserRepository() *memUserRepository {
	return &memUserRepository{users: map[uint]user.User{}, nextID: 1}
}

func (r *memUserRepository) GetPaginated(ctx context.Context, params *user.FindParams) ([]user.User, int64, error) {
	out := make([]user.User, 0, len(r.users))
	for _, u := range r.users {
		if params != nil && params.Role != "" && u.Role() != params.Role {
			continue
		}
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (r *memUserRepository) GetByID(ctx context.Context, id uint) (user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, persistence.ErrUserNotFound
	}
	return u, nil
}

func (r *memUserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	for _, u := range r.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, persistence.ErrUserNotFound
}

func (r *memUserRepository) Create(ctx context.Context, u user.User) (user.User, error) {
	for _, existing := range r.users {
		if existing.Email() == u.Email() {
			return nil, persistence.ErrEmailTaken
		}
		if u.Role() == user.RoleCustodian &&
			existing.Role() == user.RoleCustodian &&
			existing.Department() == u.Department() {
			return nil, persistence.ErrDepartmentHeld
		}
	}
	hydrated := user.Hydrate(r.nextID, u.Name(), u.Email(), u.PasswordHash(), u.Role(), u.Department(), time.Now())
	r.users[r.nextID] = hydrated
	r.nextID++
	return hydrated, nil
}

func (r *memUserRepository) Update(ctx context.Context, u user.User) (user.User, error) {
	r.users[u.ID()] = u
	return u, nil
}

func (r *memUserRepository) Delete(ctx context.Context, id uint) error {
	if _, ok := r.users[id]; !ok {
		return persistence.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func seedUser(t *testing.T, repo *memUserRepository, name, email, password string, role user.Role, department string) user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	created, err := repo.Create(context.Background(), user.New(name, email, role, department).WithPasswordHash(string(hash)))
	require.NoError(t, err)
	return created
}

func TestAuthService_SelfRegistrationIsStaffOnly(t *testing.T) {
	repo := newMemUserRepository()
	svc := services.NewAuthService(repo)
	ctx := context.Background()

	created, err := svc.SignUp(ctx, nil, "Ana Reyes", "ana@example.com", "secret123", "", "")
	require.NoError(t, err)
	assert.Equal(t, user.RoleStaff, created.Role())

	_, err = svc.SignUp(ctx, nil, "Eve", "eve@example.com", "secret123", user.RoleAdmin, "")
	require.ErrorIs(t, err, services.ErrRoleGrantForbidden)
}

func TestAuthService_MasterAdminGrantsElevatedRoles(t *testing.T) {
	repo := newMemUserRepository()
	svc := services.NewAuthService(repo)
	ctx := context.Background()

	master := seedUser(t, repo, "Root", "root@example.com", "secret123", user.RoleMasterAdmin, "")
	admin := seedUser(t, repo, "Admin", "admin@example.com", "secret123", user.RoleAdmin, "")

	created, err := svc.SignUp(ctx, master, "Cora", "cora@example.com", "secret123", user.RoleCustodian, "Finance")
	require.NoError(t, err)
	assert.Equal(t, user.RoleCustodian, created.Role())
	assert.Equal(t, "Finance", created.Department())

	// A plain admin cannot mint another admin, but staff is open.
	_, err = svc.SignUp(ctx, admin, "Eve", "eve@example.com", "secret123", user.RoleAdmin, "")
	require.ErrorIs(t, err, services.ErrRoleGrantForbidden)
	_, err = svc.SignUp(ctx, admin, "Stan", "stan@example.com", "secret123", user.RoleStaff, "")
	require.NoError(t, err)
}

func TestAuthService_CustodianDepartmentIsExclusive(t *testing.T) {
	repo := newMemUserRepository()
	svc := services.NewAuthService(repo)
	ctx := context.Background()
	master := seedUser(t, repo, "Root", "root@example.com", "secret123", user.RoleMasterAdmin, "")

	_, err := svc.SignUp(ctx, master, "Cora", "cora@example.com", "secret123", user.RoleCustodian, "Finance")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, master, "Carl", "carl@example.com", "secret123", user.RoleCustodian, "Finance")
	require.ErrorIs(t, err, persistence.ErrDepartmentHeld)
}

func TestAuthService_SignUpRejectsTakenEmail(t *testing.T) {
	repo := newMemUserRepository()
	svc := services.NewAuthService(repo)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, nil, "Ana", "ana@example.com", "secret123", "", "")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, nil, "Ana Again", "ana@example.com", "secret123", "", "")
	require.ErrorIs(t, err, persistence.ErrEmailTaken)
}

func TestAuthService_SignInRoundTrip(t *testing.T) {
	repo := newMemUserRepository()
	svc := services.NewAuthService(repo)
	ctx := context.Background()

	created, err := svc.SignUp(ctx, nil, "Ana", "ana@example.com", "secret123", "", "")
	require.NoError(t, err)

	u, token, err := svc.SignIn(ctx, "ana@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, created.ID(), u.ID())
	require.NotEmpty(t, token)

	resolved, err := svc.UserFromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, created.ID(), resolved.ID())
}

func TestAuthService_SignInFailures(t *testing.T) {
	repo := newMemUserRepository()
	svc := services.NewAuthService(repo)
	ctx := context.Background()
	seedUser(t, repo, "Ana", "ana@example.com", "secret123", user.RoleStaff, "")

	_, _, err := svc.SignIn(ctx, "ghost@example.com", "secret123")
	require.ErrorIs(t, err, persistence.ErrUserNotFound)

	_, _, err = svc.SignIn(ctx, "ana@example.com", "wrong-password")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestAuthService_UserFromTokenRejectsGarbage(t *testing.T) {
	repo := newMemUserRepository()
	svc := services.NewAuthService(repo)

	_, err := svc.UserFromToken(context.Background(), "not-a-token")
	require.ErrorIs(t, err, services.ErrInvalidToken)
}
