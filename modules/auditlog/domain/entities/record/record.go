package record

import (
	"context"
	"time"
)

// Record is one line of the custody trail. ActorID is empty for device
// activity, PropertyID survives as a bare number after the property row
// is gone.
type Record struct {
	ID         uint
	ActorID    *uint
	Action     string
	PropertyID *uint
	Details    string
	CreatedAt  time.Time
}

type ListItem struct {
	Record
	ActorName string
}

type FindParams struct {
	Action string
	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, r Record) (*Record, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]ListItem, int64, error)
}
