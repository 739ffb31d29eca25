package contract

import (
	"context"

	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletRepository is the only writer of wallet balances.
type WalletRepository interface {
	Create(ctx context.Context, wallet *entity.Wallet) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Wallet, error)
	// EnsureExists inserts a zero-balance wallet when the user has none.
	EnsureExists(ctx context.Context, userId uuid.UUID) error
	Increment(ctx context.Context, userId uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	// DecrementIfSufficient applies the decrement only when the balance
	// covers it; ok is false otherwise and nothing changes.
	DecrementIfSufficient(ctx context.Context, userId uuid.UUID, amount decimal.Decimal) (newBalance decimal.Decimal, ok bool, err error)
}
