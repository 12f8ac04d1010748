package job

import (
	"context"
	"time"

	"github.com/iota-uz/pims/pkg/serrors"
)

var (
	ErrDuplicatePending = serrors.NewError("JOB_DUPLICATE_PENDING", "this property already has a pending job of this kind")

	ErrPropertyGone = serrors.NewError("JOB_PROPERTY_GONE", "the property behind this job no longer exists")

	ErrUnknownKind = serrors.NewError("JOB_UNKNOWN_KIND", "unknown job kind")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusClaimed   Status = "claimed"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Kind describes one of the device queues. Each kind is backed by its
// own table, so the queues never contend with each other.
type Kind struct {
	Name  string
	Table string
}

var (
	KindPrint   = Kind{Name: "print", Table: "print_jobs"}
	KindDisplay = Kind{Name: "display", Table: "display_jobs"}
)

func NewKind(name string) (Kind, bool) {
	switch name {
	case KindPrint.Name:
		return KindPrint, true
	case KindDisplay.Name:
		return KindDisplay, true
	}
	return Kind{}, false
}

type Job struct {
	ID          uint
	PropertyID  uint
	RequestedBy uint
	Status      Status
	CreatedAt   time.Time
	ClaimedAt   *time.Time
}

// ListItem is the queue overview projection joining each job with the
// property it targets and who asked for it.
type ListItem struct {
	JobID               uint
	Status              Status
	PropertyNo          string
	PropertyDescription string
	RequestedByName     string
	CreatedAt           time.Time
	ClaimedAt           *time.Time
}

// DisplayTarget is what an e-ink tag renders: the property identity and
// the person currently answerable for it.
type DisplayTarget struct {
	PropertyNo        string
	Description       string
	AccountablePerson string
}

type Repository interface {
	// Enqueue inserts a pending job. At most one pending job per
	// property per kind.
	Enqueue(ctx context.Context, kind Kind, j Job) (*Job, error)

	HasPending(ctx context.Context, kind Kind, propertyID uint) (bool, error)

	// ClaimNext locks and claims the oldest pending job. Returns
	// (nil, nil) when the queue is empty. Concurrent claimers skip
	// each other's locked rows, so a job is handed out exactly once.
	ClaimNext(ctx context.Context, kind Kind) (*Job, error)

	MarkFailed(ctx context.Context, kind Kind, jobID uint) error

	// GetDisplayTarget resolves the display payload for a property,
	// preferring the delegated staff member over the custodian.
	GetDisplayTarget(ctx context.Context, propertyID uint) (*DisplayTarget, error)

	ListAll(ctx context.Context, kind Kind) ([]ListItem, error)
}
