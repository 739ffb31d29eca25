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
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PayPalOrderRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PayPalOrderMapper
}

func NewPayPalOrderRepository(db *gorm.DB) contract.PayPalOrderRepository {
	return &PayPalOrderRepositoryImpl{
		db:     db,
		mapper: mapper.NewPayPalOrderMapper(),
	}
}

func (r *PayPalOrderRepositoryImpl) Create(ctx context.Context, order *entity.PayPalOrder) error {
	m := r.mapper.ToModel(order)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*order = *r.mapper.ToEntity(m)
	return nil
}

func (r *PayPalOrderRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PayPalOrder, error) {
	return r.first(applySpecifications(r.db.WithContext(ctx), specs...))
}

func (r *PayPalOrderRepositoryImpl) FindForUpdate(ctx context.Context, orderId string) (*entity.PayPalOrder, error) {
	query := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderId)
	return r.first(query)
}

func (r *PayPalOrderRepositoryImpl) first(query *gorm.DB) (*entity.PayPalOrder, error) {
	var m model.PayPalOrder
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PayPalOrderRepositoryImpl) MarkApproved(ctx context.Context, orderId string, payerEmail, payerId, payerName *string) error {
	return r.db.WithContext(ctx).Model(&model.PayPalOrder{}).
		Where("order_id = ? AND status = ?", orderId, string(entity.PayPalOrderStatusCreated)).
		Updates(map[string]interface{}{
			"status":      string(entity.PayPalOrderStatusApproved),
			"payer_email": payerEmail,
			"payer_id":    payerId,
			"payer_name":  payerName,
		}).Error
}

func (r *PayPalOrderRepositoryImpl) MarkCompleted(ctx context.Context, orderId string, rawWebhook []byte, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.PayPalOrder{}).
		Where("order_id = ?", orderId).
		Updates(map[string]interface{}{
			"status":           string(entity.PayPalOrderStatusCompleted),
			"webhook_verified": true,
			"raw_webhook_data": datatypes.JSON(rawWebhook),
			"completed_at":     at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PayPalOrderRepositoryImpl) MarkFailed(ctx context.Context, orderId string) error {
	return r.db.WithContext(ctx).Model(&model.PayPalOrder{}).
		Where("order_id = ? AND status <> ?", orderId, string(entity.PayPalOrderStatusCompleted)).
		Update("status", string(entity.PayPalOrderStatusFailed)).Error
}
