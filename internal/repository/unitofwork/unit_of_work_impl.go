package unitofwork

import (
	"context"
	"fmt"

	"jeezy-monetization-be/internal/repository/contract"
	"jeezy-monetization-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db       *gorm.DB
	tx       *gorm.DB
	timeouts TxTimeouts
}

func NewUnitOfWork(db *gorm.DB, timeouts TxTimeouts) UnitOfWork {
	return &UnitOfWorkImpl{
		db:       db,
		timeouts: timeouts,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if u.db.Dialector.Name() == "postgres" {
		if err := applyLocalTimeouts(tx, u.timeouts); err != nil {
			tx.Rollback()
			return err
		}
	}

	u.tx = tx
	return nil
}

// SET LOCAL scopes the setting to the current transaction only.
func applyLocalTimeouts(tx *gorm.DB, t TxTimeouts) error {
	if t.LockTimeout > 0 {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = %d", t.LockTimeout.Milliseconds())).Error; err != nil {
			return err
		}
	}
	if t.StatementTimeout > 0 {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL statement_timeout = %d", t.StatementTimeout.Milliseconds())).Error; err != nil {
			return err
		}
	}
	return nil
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) UserRepository() contract.UserRepository {
	return implementation.NewUserRepository(u.getDB())
}

func (u *UnitOfWorkImpl) WalletRepository() contract.WalletRepository {
	return implementation.NewWalletRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SubscriptionRepository() contract.SubscriptionRepository {
	return implementation.NewSubscriptionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) TransactionRepository() contract.TransactionRepository {
	return implementation.NewTransactionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) PayPalOrderRepository() contract.PayPalOrderRepository {
	return implementation.NewPayPalOrderRepository(u.getDB())
}
