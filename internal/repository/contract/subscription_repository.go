package contract

import (
	"context"

	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SubscriptionRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.VipSubscription, error)
	// Upsert creates the user's subscription or overwrites its state, keyed
	// by user id. The persisted row is copied back into sub.
	Upsert(ctx context.Context, sub *entity.VipSubscription) error
	Deactivate(ctx context.Context, userId uuid.UUID) error
	SetAutoRenew(ctx context.Context, userId uuid.UUID, autoRenew bool) error
}
