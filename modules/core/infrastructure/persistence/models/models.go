package models

import (
	"database/sql"
	"time"
)

type User struct {
	ID         uint
	Name       string
	Email      string
	Password   string
	Role       string
	Department sql.NullString
	CreatedAt  time.Time
}
