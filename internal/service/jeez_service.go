package service

import (
	"context"
	"time"

	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/pkg/apperror"
	"jeezy-monetization-be/internal/pkg/logger"
	"jeezy-monetization-be/internal/pkg/metrics"
	"jeezy-monetization-be/internal/repository/specification"
	"jeezy-monetization-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const jeezTokenPrefix = "jeez"

// MaxJeezCredit is the largest amount a single credit may carry.
var MaxJeezCredit = decimal.RequireFromString("999999.99")

// WalletMutation describes one credit or debit. Token is the idempotency
// key: the same token is applied at most once.
type WalletMutation struct {
	UserId        uuid.UUID
	Amount        decimal.Decimal
	Token         string
	Description   string
	Type          entity.TransactionType
	PaymentMethod string
	OrderRef      *string
	Metadata      map[string]interface{}
}

// WalletResult is the tagged outcome of a mutation. Applied is false when
// the token had already been recorded and nothing changed.
type WalletResult struct {
	NewBalance decimal.Decimal
	Token      string
	Applied    bool
}

type IJeezService interface {
	GetBalance(ctx context.Context, userId uuid.UUID) (decimal.Decimal, error)
	Credit(ctx context.Context, m WalletMutation) (*WalletResult, error)
	Debit(ctx context.Context, m WalletMutation) (*WalletResult, error)
	// ApplyCredit runs a credit inside a unit of work owned by the caller.
	ApplyCredit(ctx context.Context, uow unitofwork.UnitOfWork, m WalletMutation) (*WalletResult, error)
	GenerateToken() string
}

type jeezService struct {
	uowFactory unitofwork.RepositoryFactory
	log        logger.ILogger
	txTimeout  time.Duration
	now        Clock
}

func NewJeezService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger, txTimeout time.Duration, now Clock) IJeezService {
	if now == nil {
		now = time.Now
	}
	return &jeezService{
		uowFactory: uowFactory,
		log:        log,
		txTimeout:  txTimeout,
		now:        now,
	}
}

func (s *jeezService) GenerateToken() string {
	return newToken(jeezTokenPrefix)
}

func (s *jeezService) GetBalance(ctx context.Context, userId uuid.UUID) (decimal.Decimal, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	wallet, err := uow.WalletRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return decimal.Zero, storageError(err)
	}
	if wallet == nil {
		return decimal.Zero, apperror.NotFound(apperror.CodeBalanceNotFound, "no Jeez wallet for this user")
	}
	return wallet.Balance, nil
}

func validateMutation(m WalletMutation, withCeiling bool) error {
	if m.Token == "" {
		return apperror.Validation(apperror.CodeValidation, "transaction token is required")
	}
	if !m.Amount.IsPositive() {
		return apperror.Validation(apperror.CodeInvalidAmount, "amount must be greater than zero")
	}
	if !m.Amount.Equal(m.Amount.Round(2)) {
		return apperror.Validation(apperror.CodeInvalidAmount, "amount supports at most two decimal places")
	}
	if withCeiling && m.Amount.GreaterThan(MaxJeezCredit) {
		return apperror.Validation(apperror.CodeAmountLimitExceeded, "amount exceeds the single-operation limit")
	}
	return nil
}

func (s *jeezService) Credit(ctx context.Context, m WalletMutation) (*WalletResult, error) {
	if err := validateMutation(m, true); err != nil {
		metrics.WalletOperationsTotal.WithLabelValues("credit", metrics.ResultRejected).Inc()
		return nil, err
	}

	var res *WalletResult
	err := inTransaction(ctx, s.uowFactory, s.txTimeout, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		var err error
		res, err = s.applyCredit(ctx, uow, m)
		return err
	})
	s.observe("credit", m, res, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *jeezService) ApplyCredit(ctx context.Context, uow unitofwork.UnitOfWork, m WalletMutation) (*WalletResult, error) {
	if err := validateMutation(m, true); err != nil {
		return nil, err
	}
	return s.applyCredit(ctx, uow, m)
}

func (s *jeezService) applyCredit(ctx context.Context, uow unitofwork.UnitOfWork, m WalletMutation) (*WalletResult, error) {
	if m.Type == "" {
		m.Type = entity.TransactionTypeJeezPurchase
	}
	if m.PaymentMethod == "" {
		m.PaymentMethod = entity.PaymentMethodInternal
	}

	created, stored, err := uow.TransactionRepository().Record(ctx, s.entryFor(m, m.Amount))
	if err != nil {
		return nil, err
	}
	if !created {
		return s.replay(ctx, uow, m, stored, false)
	}

	if err := uow.WalletRepository().EnsureExists(ctx, m.UserId); err != nil {
		return nil, err
	}
	balance, err := uow.WalletRepository().Increment(ctx, m.UserId, m.Amount)
	if err != nil {
		return nil, err
	}
	return &WalletResult{NewBalance: balance, Token: m.Token, Applied: true}, nil
}

func (s *jeezService) Debit(ctx context.Context, m WalletMutation) (*WalletResult, error) {
	if err := validateMutation(m, false); err != nil {
		metrics.WalletOperationsTotal.WithLabelValues("debit", metrics.ResultRejected).Inc()
		return nil, err
	}
	if m.Type == "" {
		m.Type = entity.TransactionTypeJeezPurchase
	}
	if m.PaymentMethod == "" {
		m.PaymentMethod = entity.PaymentMethodJeez
	}

	var res *WalletResult
	err := inTransaction(ctx, s.uowFactory, s.txTimeout, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		created, stored, err := uow.TransactionRepository().Record(ctx, s.entryFor(m, m.Amount.Neg()))
		if err != nil {
			return err
		}
		if !created {
			res, err = s.replay(ctx, uow, m, stored, true)
			return err
		}

		// The ledger entry above is discarded with the rollback when the
		// conditional decrement does not apply.
		balance, ok, err := uow.WalletRepository().DecrementIfSufficient(ctx, m.UserId, m.Amount)
		if err != nil {
			return err
		}
		if !ok {
			wallet, err := uow.WalletRepository().FindOne(ctx, specification.UserOwnedBy{UserID: m.UserId})
			if err != nil {
				return err
			}
			if wallet == nil {
				return apperror.NotFound(apperror.CodeBalanceNotFound, "no Jeez wallet for this user")
			}
			return apperror.Conflict(apperror.CodeInsufficientBalance, "insufficient Jeez balance")
		}
		res = &WalletResult{NewBalance: balance, Token: m.Token, Applied: true}
		return nil
	})
	s.observe("debit", m, res, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *jeezService) entryFor(m WalletMutation, signed decimal.Decimal) *entity.Transaction {
	now := s.now()
	return &entity.Transaction{
		Id:              uuid.New(),
		TransactionId:   m.Token,
		UserId:          m.UserId,
		TransactionType: m.Type,
		Amount:          signed,
		Status:          entity.TransactionStatusCompleted,
		PaymentMethod:   m.PaymentMethod,
		Description:     m.Description,
		OrderId:         m.OrderRef,
		Metadata:        m.Metadata,
		CompletedAt:     &now,
	}
}

// replay answers a repeated token with the current balance. A token that
// was recorded for another user or another kind of operation is a conflict.
func (s *jeezService) replay(ctx context.Context, uow unitofwork.UnitOfWork, m WalletMutation, stored *entity.Transaction, debit bool) (*WalletResult, error) {
	if stored == nil || stored.UserId != m.UserId || stored.TransactionType != m.Type || stored.Amount.IsNegative() != debit {
		return nil, apperror.Conflict(apperror.CodeTokenConflict, "transaction token already used for a different operation")
	}

	wallet, err := uow.WalletRepository().FindOne(ctx, specification.UserOwnedBy{UserID: m.UserId})
	if err != nil {
		return nil, err
	}
	balance := decimal.Zero
	if wallet != nil {
		balance = wallet.Balance
	}
	return &WalletResult{NewBalance: balance, Token: m.Token, Applied: false}, nil
}

func (s *jeezService) observe(operation string, m WalletMutation, res *WalletResult, err error) {
	switch {
	case err != nil && apperror.KindOf(err) == apperror.KindInternal:
		metrics.WalletOperationsTotal.WithLabelValues(operation, metrics.ResultError).Inc()
		s.log.Error("JEEZ", "Wallet operation failed", map[string]interface{}{
			"operation": operation, "user_id": m.UserId.String(), "token": m.Token, "error": err,
		})
	case err != nil:
		metrics.WalletOperationsTotal.WithLabelValues(operation, metrics.ResultRejected).Inc()
	case res.Applied:
		metrics.WalletOperationsTotal.WithLabelValues(operation, metrics.ResultApplied).Inc()
		s.log.Info("JEEZ", "Wallet operation applied", map[string]interface{}{
			"operation": operation, "user_id": m.UserId.String(), "token": m.Token,
			"amount": m.Amount.String(), "new_balance": res.NewBalance.String(),
		})
	default:
		metrics.WalletOperationsTotal.WithLabelValues(operation, metrics.ResultReplayed).Inc()
	}
}
