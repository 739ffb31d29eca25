package implementation

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDecrementIfSufficient_Insufficient(t *testing.T) {
	db, mock := setupGormMock(t)
	userId := uuid.New()

	mock.ExpectExec(`UPDATE "wallets" SET .*balance - \$1.* WHERE user_id = \$3 AND balance >= \$4`).
		WithArgs(decimal.NewFromInt(50), sqlmock.AnyArg(), userId, decimal.NewFromInt(50)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	balance, ok, err := NewWalletRepository(db).DecrementIfSufficient(context.Background(), userId, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, balance.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementIfSufficient_Applied(t *testing.T) {
	db, mock := setupGormMock(t)
	userId := uuid.New()

	mock.ExpectExec(`UPDATE "wallets" SET .* WHERE user_id = \$3 AND balance >= \$4`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT "balance" FROM "wallets" WHERE user_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("70.00"))

	balance, ok, err := NewWalletRepository(db).DecrementIfSufficient(context.Background(), userId, decimal.NewFromInt(30))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, balance.Equal(decimal.NewFromInt(70)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrement_NoWallet(t *testing.T) {
	db, mock := setupGormMock(t)

	mock.ExpectExec(`UPDATE "wallets" SET .*balance \+ \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := NewWalletRepository(db).Increment(context.Background(), uuid.New(), decimal.NewFromInt(10))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkCompleted_OnlyFromPending(t *testing.T) {
	db, mock := setupGormMock(t)
	repo := NewTransactionRepository(db)

	mock.ExpectExec(`UPDATE "transactions" SET .* WHERE transaction_id = \$\d AND status = \$\d`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "transactions" SET .* WHERE transaction_id = \$\d AND status = \$\d`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	moved, err := repo.MarkCompleted(context.Background(), "paypal_ORDER-1", fixedTime)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = repo.MarkCompleted(context.Background(), "paypal_ORDER-1", fixedTime)
	require.NoError(t, err)
	assert.False(t, moved)
	require.NoError(t, mock.ExpectationsWereMet())
}
