package models

import (
	"database/sql"
	"time"
)

type Job struct {
	ID          uint
	PropertyID  uint
	RequestedBy uint
	Status      string
	CreatedAt   time.Time
	ClaimedAt   sql.NullTime
}

type JobListItem struct {
	JobID               uint
	Status              string
	PropertyNo          string
	PropertyDescription string
	RequestedByName     string
	CreatedAt           time.Time
	ClaimedAt           sql.NullTime
}
