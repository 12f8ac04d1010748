package assignment

// Events published after a committed state change. The audit trail
// subscribes to these; nothing in this module depends on them.

type CustodianAssignedEvent struct {
	PropertyID  uint
	CustodianID uint
	AssignedBy  uint
}

type StaffDelegatedEvent struct {
	PropertyID  uint
	StaffID     uint
	CustodianID uint
}

type ReassignmentRequestedEvent struct {
	RequestID   uint
	PropertyID  uint
	FromStaffID uint
	ToStaffID   uint
	RequestedBy uint
}

type ReassignmentReviewedEvent struct {
	RequestID  uint
	PropertyID uint
	ReviewedBy uint
	Status     Status
}
