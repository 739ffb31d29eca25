package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"jeezy-monetization-be/internal/pkg/apperror"
	"jeezy-monetization-be/internal/repository/unitofwork"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// DefaultTxTimeout bounds a whole atomic unit, lock waits included.
const DefaultTxTimeout = 10 * time.Second

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// newToken builds <prefix>_<unix millis>_<16 hex chars>.
func newToken(prefix string) string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(b[:]))
}

// SQLSTATEs for lock_timeout, statement_timeout, serialization failure
// and deadlock. All are safe to retry.
var retryableSQLStates = map[string]bool{
	"55P03": true,
	"57014": true,
	"40001": true,
	"40P01": true,
}

// storageError maps a repository failure into the error taxonomy.
func storageError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.Transient(apperror.CodeStorageTimeout, "storage operation timed out", err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && retryableSQLStates[pgErr.Code] {
		return apperror.Transient(apperror.CodeStorageTimeout, "storage is busy, retry later", err)
	}
	return apperror.Database(err)
}

// isUniqueViolation matches SQLSTATE 23505 and gorm's translated sentinel.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// inTransaction runs fn inside one unit of work bounded by timeout and
// commits when fn succeeds.
func inTransaction(ctx context.Context, factory unitofwork.RepositoryFactory, timeout time.Duration, fn func(ctx context.Context, uow unitofwork.UnitOfWork) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	uow := factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return storageError(err)
	}
	defer uow.Rollback()

	if err := fn(ctx, uow); err != nil {
		return storageError(err)
	}
	if err := uow.Commit(); err != nil {
		return storageError(err)
	}
	return nil
}
