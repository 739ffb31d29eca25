package unitofwork

import "context"

type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
