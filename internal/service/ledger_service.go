package service

import (
	"context"
	"time"

	"jeezy-monetization-be/internal/dto"
	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/pkg/apperror"
	"jeezy-monetization-be/internal/pkg/logger"
	"jeezy-monetization-be/internal/repository/specification"
	"jeezy-monetization-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 50
)

type ILedgerService interface {
	History(ctx context.Context, userId uuid.UUID, page, limit int) (*dto.TransactionHistoryResponse, error)
	Complete(ctx context.Context, token string) (*dto.TransactionResponse, error)
	Fail(ctx context.Context, token, reason string) (*dto.TransactionResponse, error)
}

type ledgerService struct {
	uowFactory unitofwork.RepositoryFactory
	log        logger.ILogger
	now        Clock
}

func NewLedgerService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger, now Clock) ILedgerService {
	if now == nil {
		now = time.Now
	}
	return &ledgerService{uowFactory: uowFactory, log: log, now: now}
}

func toTransactionResponse(t *entity.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		Id:              t.Id,
		TransactionId:   t.TransactionId,
		TransactionType: string(t.TransactionType),
		Amount:          t.Amount,
		Status:          string(t.Status),
		PaymentMethod:   t.PaymentMethod,
		Description:     t.Description,
		OrderId:         t.OrderId,
		CompletedAt:     t.CompletedAt,
		FailureReason:   t.FailureReason,
		CreatedAt:       t.CreatedAt,
	}
}

func (s *ledgerService) History(ctx context.Context, userId uuid.UUID, page, limit int) (*dto.TransactionHistoryResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	owner := specification.UserOwnedBy{UserID: userId}

	total, err := uow.TransactionRepository().Count(ctx, owner)
	if err != nil {
		return nil, storageError(err)
	}
	entries, err := uow.TransactionRepository().FindAll(ctx,
		owner,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Page(page, limit),
	)
	if err != nil {
		return nil, storageError(err)
	}

	items := make([]dto.TransactionResponse, 0, len(entries))
	for _, t := range entries {
		items = append(items, toTransactionResponse(t))
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &dto.TransactionHistoryResponse{
		Transactions: items,
		Pagination: dto.PaginationResponse{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasMore:    page < totalPages,
		},
	}, nil
}

func (s *ledgerService) Complete(ctx context.Context, token string) (*dto.TransactionResponse, error) {
	return s.settle(ctx, token, func(ctx context.Context, uow unitofwork.UnitOfWork) (bool, error) {
		return uow.TransactionRepository().MarkCompleted(ctx, token, s.now())
	})
}

func (s *ledgerService) Fail(ctx context.Context, token, reason string) (*dto.TransactionResponse, error) {
	return s.settle(ctx, token, func(ctx context.Context, uow unitofwork.UnitOfWork) (bool, error) {
		return uow.TransactionRepository().MarkFailed(ctx, token, reason)
	})
}

// settle applies a one-way PENDING transition.
func (s *ledgerService) settle(ctx context.Context, token string, move func(ctx context.Context, uow unitofwork.UnitOfWork) (bool, error)) (*dto.TransactionResponse, error) {
	var out *dto.TransactionResponse
	err := inTransaction(ctx, s.uowFactory, DefaultTxTimeout, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		moved, err := move(ctx, uow)
		if err != nil {
			return err
		}
		entry, err := uow.TransactionRepository().FindOne(ctx, specification.ByTransactionID{TransactionID: token})
		if err != nil {
			return err
		}
		if entry == nil {
			return apperror.NotFound(apperror.CodeTransactionNotFound, "transaction not found")
		}
		if !moved {
			return apperror.Conflict(apperror.CodeTransactionNotPending, "transaction is already "+string(entry.Status))
		}
		resp := toTransactionResponse(entry)
		out = &resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("LEDGER", "Transaction settled", map[string]interface{}{"token": token, "status": out.Status})
	return out, nil
}
