package staff

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinic/internal/platform/auth"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusOnLeave  = "on_leave"
)

var validStatuses = map[string]bool{
	StatusActive: true, StatusInactive: true, StatusOnLeave: true,
}

// Staff maps to the staff table. Only active staff may log in.
type Staff struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Username       string     `db:"username" json:"username"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Email          string     `db:"email" json:"email"`
	Role           string     `db:"role" json:"role"`
	Specialization *string    `db:"specialization" json:"specialization,omitempty"`
	Phone          string     `db:"phone" json:"phone"`
	Status         string     `db:"status" json:"status"`
	CreatedBy      *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

func (s *Staff) FullName() string {
	switch {
	case s.FirstName == "":
		return s.LastName
	case s.LastName == "":
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// Filter narrows List results. Zero values are ignored.
type Filter struct {
	Role   string
	Status string
	Search string
}

// CreateInput carries a new account and its plaintext password.
type CreateInput struct {
	Username       string  `json:"username" validate:"required,max=150"`
	Password       string  `json:"password" validate:"required,min=8,max=72"`
	FirstName      string  `json:"first_name" validate:"max=150"`
	LastName       string  `json:"last_name" validate:"max=150"`
	Email          string  `json:"email" validate:"omitempty,email"`
	Role           string  `json:"role" validate:"required"`
	Specialization *string `json:"specialization"`
	Phone          string  `json:"phone" validate:"max=20"`
	Status         string  `json:"status"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	FirstName      *string `json:"first_name" validate:"omitempty,max=150"`
	LastName       *string `json:"last_name" validate:"omitempty,max=150"`
	Email          *string `json:"email" validate:"omitempty,email"`
	Role           *string `json:"role"`
	Specialization *string `json:"specialization"`
	Phone          *string `json:"phone" validate:"omitempty,max=20"`
	Status         *string `json:"status"`
	Password       *string `json:"password" validate:"omitempty,min=8,max=72"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Staff       *Staff    `json:"staff"`
}

func validRole(role string) bool {
	return auth.StaffRoles[role]
}
