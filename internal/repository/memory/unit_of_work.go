package memory

import (
	"context"
	"fmt"

	"jeezy-monetization-be/internal/repository/contract"
)

type unitOfWork struct {
	store    *Store
	inTx     bool
	snapshot *state
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.inTx {
		return fmt.Errorf("transaction already started")
	}
	if err := u.store.acquire(ctx); err != nil {
		return err
	}
	u.snapshot = u.store.data.clone()
	u.inTx = true
	return nil
}

func (u *unitOfWork) Commit() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to commit")
	}
	u.inTx = false
	u.snapshot = nil
	u.store.release()
	return nil
}

func (u *unitOfWork) Rollback() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to rollback")
	}
	u.store.data = u.snapshot
	u.inTx = false
	u.snapshot = nil
	u.store.release()
	return nil
}

// run executes fn against the live state, taking the store lock unless
// this unit of work already holds it.
func (u *unitOfWork) run(ctx context.Context, fn func(d *state) error) error {
	if !u.inTx {
		if err := u.store.acquire(ctx); err != nil {
			return err
		}
		defer u.store.release()
	}
	return fn(u.store.data)
}

func (u *unitOfWork) UserRepository() contract.UserRepository {
	return &userRepository{uow: u}
}

func (u *unitOfWork) WalletRepository() contract.WalletRepository {
	return &walletRepository{uow: u}
}

func (u *unitOfWork) SubscriptionRepository() contract.SubscriptionRepository {
	return &subscriptionRepository{uow: u}
}

func (u *unitOfWork) TransactionRepository() contract.TransactionRepository {
	return &transactionRepository{uow: u}
}

func (u *unitOfWork) PayPalOrderRepository() contract.PayPalOrderRepository {
	return &payPalOrderRepository{uow: u}
}
