package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleMasterAdmin Role = "master_admin"
	RoleAdmin       Role = "admin"
	RoleCustodian   Role = "property_custodian"
	RoleStaff       Role = "staff"
)

func NewRole(r string) (Role, bool) {
	role := Role(r)
	return role, role.IsValid()
}

func (r Role) IsValid() bool {
	switch r {
	case RoleMasterAdmin, RoleAdmin, RoleCustodian, RoleStaff:
		return true
	}
	return false
}

// CanGrant reports whether a user with this role may create an account
// with the target role. Only master admins hand out elevated roles.
func (r Role) CanGrant(target Role) bool {
	if target == RoleStaff {
		return true
	}
	return r == RoleMasterAdmin
}

type User interface {
	ID() uint
	Name() string
	Email() string
	PasswordHash() string
	Role() Role
	Department() string
	CreatedAt() time.Time

	CheckPassword(password string) bool
	WithPasswordHash(hash string) User
}

func New(name, email string, role Role, department string) User {
	return &user{
		name:       strings.TrimSpace(name),
		email:      strings.ToLower(strings.TrimSpace(email)),
		role:       role,
		department: strings.TrimSpace(department),
	}
}

func Hydrate(
	id uint,
	name, email, passwordHash string,
	role Role,
	department string,
	createdAt time.Time,
) User {
	return &user{
		id:           id,
		name:         name,
		email:        email,
		passwordHash: passwordHash,
		role:         role,
		department:   department,
		createdAt:    createdAt,
	}
}

type user struct {
	id           uint
	name         string
	email        string
	passwordHash string
	role         Role
	department   string
	createdAt    time.Time
}

func (u *user) ID() uint             { return u.id }
func (u *user) Name() string         { return u.name }
func (u *user) Email() string        { return u.email }
func (u *user) PasswordHash() string { return u.passwordHash }
func (u *user) Role() Role           { return u.role }
func (u *user) Department() string   { return u.department }
func (u *user) CreatedAt() time.Time { return u.createdAt }

func (u *user) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)) == nil
}

func (u *user) WithPasswordHash(hash string) User {
	clone := *u
	clone.passwordHash = hash
	return &clone
}
