package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/pkg/apperror"
	"jeezy-monetization-be/internal/repository/specification"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditReplaySameToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userId := env.seedUser(t, entity.UserRoleUser)

	m := WalletMutation{UserId: userId, Amount: decimal.NewFromInt(100), Token: "t1", Description: "purchase"}
	first, err := env.jeez.Credit(ctx, m)
	require.NoError(t, err)
	assert.True(t, first.Applied)
	assert.True(t, first.NewBalance.Equal(decimal.NewFromInt(100)))

	second, err := env.jeez.Credit(ctx, m)
	require.NoError(t, err)
	assert.False(t, second.Applied)
	assert.True(t, second.NewBalance.Equal(decimal.NewFromInt(100)))

	balance, err := env.jeez.GetBalance(ctx, userId)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(100)))

	count, err := env.factory.NewUnitOfWork(ctx).TransactionRepository().Count(ctx, specification.ByTransactionID{TransactionID: "t1"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestGetBalanceWithoutWallet(t *testing.T) {
	env := newTestEnv(t)
	userId := env.seedUser(t, entity.UserRoleUser)

	_, err := env.jeez.GetBalance(context.Background(), userId)
	assert.True(t, apperror.Is(err, apperror.CodeBalanceNotFound))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestCreditRejectsInvalidAmounts(t *testing.T) {
	env := newTestEnv(t)
	userId := env.seedUser(t, entity.UserRoleUser)

	tests := []struct {
		name   string
		amount string
		code   string
	}{
		{"zero", "0", apperror.CodeInvalidAmount},
		{"negative", "-5", apperror.CodeInvalidAmount},
		{"three decimals", "1.234", apperror.CodeInvalidAmount},
		{"above ceiling", "1000000", apperror.CodeAmountLimitExceeded},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.jeez.Credit(context.Background(), WalletMutation{
				UserId: userId,
				Amount: decimal.RequireFromString(tt.amount),
				Token:  fmt.Sprintf("invalid_%d", i),
			})
			assert.True(t, apperror.Is(err, tt.code), "got %v", err)
		})
	}

	_, err := env.jeez.Credit(context.Background(), WalletMutation{UserId: userId, Amount: decimal.NewFromInt(1)})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestCreditAtCeiling(t *testing.T) {
	env := newTestEnv(t)
	userId := env.seedUser(t, entity.UserRoleUser)

	res, err := env.jeez.Credit(context.Background(), WalletMutation{UserId: userId, Amount: MaxJeezCredit, Token: "max"})
	require.NoError(t, err)
	assert.True(t, res.NewBalance.Equal(MaxJeezCredit))
}

func TestDebitInsufficientLeavesNoEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userId := env.seedUser(t, entity.UserRoleUser)

	_, err := env.jeez.Credit(ctx, WalletMutation{UserId: userId, Amount: decimal.NewFromInt(10), Token: "seed"})
	require.NoError(t, err)

	_, err = env.jeez.Debit(ctx, WalletMutation{UserId: userId, Amount: decimal.NewFromInt(11), Token: "too_much"})
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientBalance))

	entry, err := env.factory.NewUnitOfWork(ctx).TransactionRepository().FindOne(ctx, specification.ByTransactionID{TransactionID: "too_much"})
	require.NoError(t, err)
	assert.Nil(t, entry)

	balance, err := env.jeez.GetBalance(ctx, userId)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(10)))
}

func TestDebitWithoutWallet(t *testing.T) {
	env := newTestEnv(t)
	userId := env.seedUser(t, entity.UserRoleUser)

	_, err := env.jeez.Debit(context.Background(), WalletMutation{UserId: userId, Amount: decimal.NewFromInt(1), Token: "d1"})
	assert.True(t, apperror.Is(err, apperror.CodeBalanceNotFound))
}

func TestDebitRecordsNegativeEntryAndReplays(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userId := env.seedUser(t, entity.UserRoleUser)

	_, err := env.jeez.Credit(ctx, WalletMutation{UserId: userId, Amount: decimal.NewFromInt(50), Token: "seed"})
	require.NoError(t, err)

	m := WalletMutation{UserId: userId, Amount: decimal.RequireFromString("12.50"), Token: "spend"}
	res, err := env.jeez.Debit(ctx, m)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.True(t, res.NewBalance.Equal(decimal.RequireFromString("37.50")))

	again, err := env.jeez.Debit(ctx, m)
	require.NoError(t, err)
	assert.False(t, again.Applied)
	assert.True(t, again.NewBalance.Equal(decimal.RequireFromString("37.50")))

	entry, err := env.factory.NewUnitOfWork(ctx).TransactionRepository().FindOne(ctx, specification.ByTransactionID{TransactionID: "spend"})
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.Amount.Equal(decimal.RequireFromString("-12.50")))
	assert.Equal(t, entity.PaymentMethodJeez, entry.PaymentMethod)
}

func TestTokenReusedForOtherOperation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userId := env.seedUser(t, entity.UserRoleUser)
	otherId := env.seedUser(t, entity.UserRoleUser)

	_, err := env.jeez.Credit(ctx, WalletMutation{UserId: userId, Amount: decimal.NewFromInt(20), Token: "shared"})
	require.NoError(t, err)

	_, err = env.jeez.Debit(ctx, WalletMutation{UserId: userId, Amount: decimal.NewFromInt(5), Token: "shared"})
	assert.True(t, apperror.Is(err, apperror.CodeTokenConflict))

	_, err = env.jeez.Credit(ctx, WalletMutation{UserId: otherId, Amount: decimal.NewFromInt(20), Token: "shared"})
	assert.True(t, apperror.Is(err, apperror.CodeTokenConflict))
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userId := env.seedUser(t, entity.UserRoleUser)

	_, err := env.jeez.Credit(ctx, WalletMutation{UserId: userId, Amount: decimal.NewFromInt(100), Token: "seed"})
	require.NoError(t, err)

	const workers = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.jeez.Debit(ctx, WalletMutation{UserId: userId, Amount: decimal.NewFromInt(10), Token: fmt.Sprintf("debit_%d", i)})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if apperror.Is(err, apperror.CodeInsufficientBalance) {
				rejected++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, workers-10, rejected)

	balance, err := env.jeez.GetBalance(ctx, userId)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestGenerateTokenFormat(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.jeez.GenerateToken(), env.jeez.GenerateToken()
	assert.Regexp(t, `^jeez_\d+_[0-9a-f]{16}$`, a)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^vip_\d+_[0-9a-f]{16}$`, env.vip.GenerateToken())
}

func TestConcurrentSameTokenCreditAppliesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userId := env.seedUser(t, entity.UserRoleUser)

	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.jeez.Credit(ctx, WalletMutation{UserId: userId, Amount: decimal.NewFromInt(50), Token: "credit_shared"})
			if !assert.NoError(t, err) {
				return
			}
			assert.True(t, res.NewBalance.Equal(decimal.NewFromInt(50)), res.NewBalance.String())
			mu.Lock()
			defer mu.Unlock()
			if res.Applied {
				applied++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, applied)

	balance, err := env.jeez.GetBalance(ctx, userId)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(50)), balance.String())

	count, err := env.factory.NewUnitOfWork(ctx).TransactionRepository().Count(ctx, specification.ByTransactionID{TransactionID: "credit_shared"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
