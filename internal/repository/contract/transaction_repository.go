package contract

import (
	"context"
	"time"

	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/repository/specification"
)

// TransactionRepository is the append-only ledger.
type TransactionRepository interface {
	// Record inserts entry unless its TransactionId already exists. When it
	// exists, created is false and the stored entry is returned untouched.
	Record(ctx context.Context, entry *entity.Transaction) (created bool, stored *entity.Transaction, err error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Transaction, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Transaction, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// MarkCompleted and MarkFailed only move PENDING entries.
	MarkCompleted(ctx context.Context, transactionId string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, transactionId string, reason string) (bool, error)
}
