package permissions

import (
	"github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/pkg/authz"
)

const (
	EnqueuePrintJob   authz.Action = "enqueue_print_job"
	EnqueueDisplayJob authz.Action = "enqueue_display_job"
	ViewQueue         authz.Action = "view_queue"
)

// Printing sticker labels is reserved for the roles accountable for
// property; any signed-in role may queue a display refresh. Only the
// administrative roles see the full queues. Claiming is done by
// devices, not people, and never consults the policy.
var Policy = authz.New().
	Grant(string(user.RoleMasterAdmin), EnqueuePrintJob, EnqueueDisplayJob, ViewQueue).
	Grant(string(user.RoleAdmin), EnqueuePrintJob, EnqueueDisplayJob, ViewQueue).
	Grant(string(user.RoleCustodian), EnqueuePrintJob, EnqueueDisplayJob).
	Grant(string(user.RoleStaff), EnqueueDisplayJob)
