package contract

import (
	"context"
	"time"

	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/repository/specification"
)

type PayPalOrderRepository interface {
	Create(ctx context.Context, order *entity.PayPalOrder) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PayPalOrder, error)
	// FindForUpdate locks the order row for the rest of the transaction.
	FindForUpdate(ctx context.Context, orderId string) (*entity.PayPalOrder, error)
	MarkApproved(ctx context.Context, orderId string, payerEmail, payerId, payerName *string) error
	MarkCompleted(ctx context.Context, orderId string, rawWebhook []byte, at time.Time) error
	MarkFailed(ctx context.Context, orderId string) error
}
