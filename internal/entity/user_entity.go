package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleVIP   UserRole = "VIP"
	UserRoleAdmin UserRole = "ADMIN"
)

type User struct {
	Id           uuid.UUID
	Email        *string
	PasswordHash *string
	FullName     string
	Role         UserRole
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthenticatedPrincipal is the only identity shape services receive.
type AuthenticatedPrincipal struct {
	UserID uuid.UUID
}
