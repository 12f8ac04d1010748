package dtos

import (
	"strings"
	"time"

	"github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/pkg/constants"
)

type SignUpDTO struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Role       string `json:"role" validate:"omitempty,oneof=master_admin admin property_custodian staff"`
	Department string `json:"department"`
}

func (d *SignUpDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Department = strings.TrimSpace(d.Department)
	d.Role = strings.TrimSpace(d.Role)
}

func (d *SignUpDTO) Ok() error {
	d.Normalize()
	return constants.Validate.Struct(d)
}

type SignInDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (d *SignInDTO) Ok() error {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	return constants.Validate.Struct(d)
}

type UserResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Department string    `json:"department,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewUserResponse(u user.User) UserResponse {
	return UserResponse{
		ID:         u.ID(),
		Name:       u.Name(),
		Email:      u.Email(),
		Role:       string(u.Role()),
		Department: u.Department(),
		CreatedAt:  u.CreatedAt(),
	}
}
