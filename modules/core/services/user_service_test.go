package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/modules/core/services"
	"github.com/iota-uz/pims/pkg/authz"
)

func TestUserService_ListIsAdminOnly(t *testing.T) {
	repo := newMemUserRepository()
	svc := services.NewUserService(repo)
	admin := seedUser(t, repo, "Admin", "admin@corp.local", "secret123", user.RoleAdmin, "")
	staff := seedUser(t, repo, "Staff", "staff@corp.local", "secret123", user.RoleStaff, "")

	_, _, err := svc.GetPaginated(context.Background(), staff, &user.FindParams{})
	require.ErrorIs(t, err, authz.ErrForbidden)

	items, total, err := svc.GetPaginated(context.Background(), admin, &user.FindParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)
}

func TestUserService_DeleteIsAdminOnly(t *testing.T) {
	repo := newMemUserRepository()
	svc := services.NewUserService(repo)
	admin := seedUser(t, repo, "Admin", "admin@corp.local", "secret123", user.RoleAdmin, "")
	staff := seedUser(t, repo, "Staff", "staff@corp.local", "secret123", user.RoleStaff, "")

	err := svc.Delete(context.Background(), staff, admin.ID())
	require.ErrorIs(t, err, authz.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), admin, staff.ID()))
	_, err = svc.GetByID(context.Background(), staff.ID())
	require.Error(t, err)
}
