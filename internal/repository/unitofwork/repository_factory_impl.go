package unitofwork

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// TxTimeouts bound how long a transaction may wait on a row lock and how
// long any single statement inside it may run. Zero disables the bound.
type TxTimeouts struct {
	LockTimeout      time.Duration
	StatementTimeout time.Duration
}

type RepositoryFactoryImpl struct {
	db       *gorm.DB
	timeouts TxTimeouts
}

func NewRepositoryFactory(db *gorm.DB, timeouts TxTimeouts) RepositoryFactory {
	return &RepositoryFactoryImpl{
		db:       db,
		timeouts: timeouts,
	}
}

func (f *RepositoryFactoryImpl) NewUnitOfWork(ctx context.Context) UnitOfWork {
	return NewUnitOfWork(f.db, f.timeouts)
}

func (f *RepositoryFactoryImpl) Ping(ctx context.Context) error {
	return f.db.WithContext(ctx).Exec("SELECT 1").Error
}
