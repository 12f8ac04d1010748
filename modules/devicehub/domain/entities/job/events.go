package job

type EnqueuedEvent struct {
	Kind        string
	JobID       uint
	PropertyID  uint
	RequestedBy uint
}

type ClaimedEvent struct {
	Kind       string
	JobID      uint
	PropertyID uint
}

type FailedEvent struct {
	Kind       string
	JobID      uint
	PropertyID uint
}
