package mapper

import (
	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/model"

	"gorm.io/datatypes"
)

type PayPalOrderMapper struct{}

func NewPayPalOrderMapper() *PayPalOrderMapper {
	return &PayPalOrderMapper{}
}

func (m *PayPalOrderMapper) ToEntity(o *model.PayPalOrder) *entity.PayPalOrder {
	if o == nil {
		return nil
	}
	return &entity.PayPalOrder{
		Id:              o.Id,
		OrderId:         o.OrderId,
		UserId:          o.UserId,
		ProductId:       o.ProductId,
		Amount:          o.Amount,
		Currency:        o.Currency,
		Status:          entity.PayPalOrderStatus(o.Status),
		Intent:          o.Intent,
		PayerEmail:      o.PayerEmail,
		PayerId:         o.PayerId,
		PayerName:       o.PayerName,
		WebhookVerified: o.WebhookVerified,
		RawWebhookData:  []byte(o.RawWebhookData),
		CompletedAt:     o.CompletedAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (m *PayPalOrderMapper) ToModel(o *entity.PayPalOrder) *model.PayPalOrder {
	if o == nil {
		return nil
	}
	return &model.PayPalOrder{
		Id:              o.Id,
		OrderId:         o.OrderId,
		UserId:          o.UserId,
		ProductId:       o.ProductId,
		Amount:          o.Amount,
		Currency:        o.Currency,
		Status:          string(o.Status),
		Intent:          o.Intent,
		PayerEmail:      o.PayerEmail,
		PayerId:         o.PayerId,
		PayerName:       o.PayerName,
		WebhookVerified: o.WebhookVerified,
		RawWebhookData:  datatypes.JSON(o.RawWebhookData),
		CompletedAt:     o.CompletedAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
