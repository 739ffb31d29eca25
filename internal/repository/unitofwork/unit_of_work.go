package unitofwork

import (
	"context"

	"jeezy-monetization-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	WalletRepository() contract.WalletRepository
	SubscriptionRepository() contract.SubscriptionRepository
	TransactionRepository() contract.TransactionRepository
	PayPalOrderRepository() contract.PayPalOrderRepository
}
