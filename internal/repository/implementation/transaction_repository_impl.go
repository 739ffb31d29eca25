package implementation

import (
	"context"
	"errors"
	"time"

	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/mapper"
	"jeezy-monetization-be/internal/model"
	"jeezy-monetization-be/internal/repository/contract"
	"jeezy-monetization-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TransactionMapper
}

func NewTransactionRepository(db *gorm.DB) contract.TransactionRepository {
	return &TransactionRepositoryImpl{
		db:     db,
		mapper: mapper.NewTransactionMapper(),
	}
}

func (r *TransactionRepositoryImpl) Record(ctx context.Context, entry *entity.Transaction) (bool, *entity.Transaction, error) {
	m := r.mapper.ToModel(entry)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}

	// A racing insert with the same token blocks on the unique index and
	// then falls through to DO NOTHING once the winner commits.
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "transaction_id"}}, DoNothing: true}).
		Create(m)
	if res.Error != nil {
		return false, nil, res.Error
	}

	if res.RowsAffected == 0 {
		existing, err := r.FindOne(ctx, specification.ByTransactionID{TransactionID: entry.TransactionId})
		if err != nil {
			return false, nil, err
		}
		if existing == nil {
			return false, nil, errors.New("ledger entry vanished after conflict")
		}
		return false, existing, nil
	}

	*entry = *r.mapper.ToEntity(m)
	return true, entry, nil
}

func (r *TransactionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Transaction, error) {
	var m model.Transaction
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TransactionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Transaction, error) {
	var models []*model.Transaction
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *TransactionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Transaction{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TransactionRepositoryImpl) MarkCompleted(ctx context.Context, transactionId string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("transaction_id = ? AND status = ?", transactionId, string(entity.TransactionStatusPending)).
		Updates(map[string]interface{}{
			"status":       string(entity.TransactionStatusCompleted),
			"completed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *TransactionRepositoryImpl) MarkFailed(ctx context.Context, transactionId string, reason string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("transaction_id = ? AND status = ?", transactionId, string(entity.TransactionStatusPending)).
		Updates(map[string]interface{}{
			"status":         string(entity.TransactionStatusFailed),
			"failure_reason": reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
