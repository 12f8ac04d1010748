package permissions

import (
	"github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/pkg/authz"
)

const (
	ViewUsers   authz.Action = "view_users"
	ManageUsers authz.Action = "manage_users"
)

// The user directory is administrative surface; ordinary roles only see
// themselves through /auth/me.
var Policy = authz.New().
	Grant(string(user.RoleMasterAdmin), ViewUsers, ManageUsers).
	Grant(string(user.RoleAdmin), ViewUsers, ManageUsers)
