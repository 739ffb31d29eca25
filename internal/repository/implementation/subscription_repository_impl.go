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

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SubscriptionMapper
}

func NewSubscriptionRepository(db *gorm.DB) contract.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSubscriptionMapper(),
	}
}

func (r *SubscriptionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.VipSubscription, error) {
	var m model.VipSubscription
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SubscriptionRepositoryImpl) Upsert(ctx context.Context, sub *entity.VipSubscription) error {
	m := r.mapper.ToModel(sub)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	m.UpdatedAt = time.Now()

	// start_date keeps the first activation on renewal.
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_active", "plan_type", "expires_at", "auto_renew", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}

	stored, err := r.FindOne(ctx, specification.UserOwnedBy{UserID: sub.UserId})
	if err != nil {
		return err
	}
	if stored == nil {
		return gorm.ErrRecordNotFound
	}
	*sub = *stored
	return nil
}

func (r *SubscriptionRepositoryImpl) Deactivate(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.VipSubscription{}).
		Where("user_id = ?", userId).
		Updates(map[string]interface{}{"is_active": false, "auto_renew": false}).Error
}

func (r *SubscriptionRepositoryImpl) SetAutoRenew(ctx context.Context, userId uuid.UUID, autoRenew bool) error {
	return r.db.WithContext(ctx).Model(&model.VipSubscription{}).
		Where("user_id = ?", userId).
		Update("auto_renew", autoRenew).Error
}
