package permissions

import (
	"github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/pkg/authz"
)

const ViewAuditLog authz.Action = "view_audit_log"

var Policy = authz.New().
	Grant(string(user.RoleMasterAdmin), ViewAuditLog).
	Grant(string(user.RoleAdmin), ViewAuditLog)
