package contract

import (
	"context"

	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role entity.UserRole) error
	// SwapRole sets role to `to` only while it is currently `from`.
	SwapRole(ctx context.Context, id uuid.UUID, from, to entity.UserRole) (bool, error)
}
