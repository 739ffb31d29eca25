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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WalletRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.WalletMapper
}

func NewWalletRepository(db *gorm.DB) contract.WalletRepository {
	return &WalletRepositoryImpl{
		db:     db,
		mapper: mapper.NewWalletMapper(),
	}
}

func (r *WalletRepositoryImpl) Create(ctx context.Context, wallet *entity.Wallet) error {
	m := r.mapper.ToModel(wallet)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*wallet = *r.mapper.ToEntity(m)
	return nil
}

func (r *WalletRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Wallet, error) {
	var m model.Wallet
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *WalletRepositoryImpl) EnsureExists(ctx context.Context, userId uuid.UUID) error {
	m := &model.Wallet{Id: uuid.New(), UserId: userId, Balance: decimal.Zero}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(m).Error
}

func (r *WalletRepositoryImpl) Increment(ctx context.Context, userId uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	res := r.db.WithContext(ctx).Model(&model.Wallet{}).
		Where("user_id = ?", userId).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return decimal.Zero, res.Error
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, gorm.ErrRecordNotFound
	}
	return r.balanceOf(ctx, userId)
}

func (r *WalletRepositoryImpl) DecrementIfSufficient(ctx context.Context, userId uuid.UUID, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	// The predicate and the write are one statement, so two racing debits
	// cannot both pass the sufficiency check.
	res := r.db.WithContext(ctx).Model(&model.Wallet{}).
		Where("user_id = ? AND balance >= ?", userId, amount).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return decimal.Zero, false, res.Error
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, false, nil
	}
	balance, err := r.balanceOf(ctx, userId)
	if err != nil {
		return decimal.Zero, false, err
	}
	return balance, true, nil
}

func (r *WalletRepositoryImpl) balanceOf(ctx context.Context, userId uuid.UUID) (decimal.Decimal, error) {
	var m model.Wallet
	if err := r.db.WithContext(ctx).Select("balance").Where("user_id = ?", userId).First(&m).Error; err != nil {
		return decimal.Zero, err
	}
	return m.Balance, nil
}
