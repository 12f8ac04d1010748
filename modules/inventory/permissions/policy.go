package permissions

import (
	"github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/pkg/authz"
)

const (
	AssignCustodian    authz.Action = "assign_custodian"
	DelegateStaff      authz.Action = "delegate_staff"
	ReviewReassignment authz.Action = "review_reassignment"
	ManageProperties   authz.Action = "manage_properties"
	UpdateLocation     authz.Action = "update_location_detail"
	ViewPending        authz.Action = "view_pending_reassignments"
)

// Policy is the assignment authorization table. Ownership of a property
// by a custodian is checked separately by the service.
var Policy = authz.New().
	Grant(string(user.RoleMasterAdmin),
		AssignCustodian, ReviewReassignment, ManageProperties, ViewPending).
	Grant(string(user.RoleAdmin),
		AssignCustodian, ManageProperties, ViewPending).
	Grant(string(user.RoleCustodian),
		DelegateStaff, UpdateLocation)
