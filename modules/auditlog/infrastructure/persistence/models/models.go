package models

import (
	"database/sql"
	"time"
)

type AuditRecord struct {
	ID         uint
	ActorID    sql.NullInt64
	Action     string
	PropertyID sql.NullInt64
	Details    string
	CreatedAt  time.Time
}

type AuditListItem struct {
	AuditRecord
	ActorName sql.NullString
}
