package mapper

import (
	"encoding/json"

	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/model"

	"gorm.io/datatypes"
)

type TransactionMapper struct{}

func NewTransactionMapper() *TransactionMapper {
	return &TransactionMapper{}
}

func (m *TransactionMapper) ToEntity(t *model.Transaction) *entity.Transaction {
	if t == nil {
		return nil
	}
	var metadata map[string]interface{}
	if len(t.Metadata) > 0 {
		// Metadata is informational; a corrupt blob should not hide the entry.
		_ = json.Unmarshal(t.Metadata, &metadata)
	}
	return &entity.Transaction{
		Id:              t.Id,
		TransactionId:   t.TransactionId,
		UserId:          t.UserId,
		TransactionType: entity.TransactionType(t.TransactionType),
		Amount:          t.Amount,
		Status:          entity.TransactionStatus(t.Status),
		PaymentMethod:   t.PaymentMethod,
		Description:     t.Description,
		OrderId:         t.OrderId,
		SubscriptionId:  t.SubscriptionId,
		Metadata:        metadata,
		CompletedAt:     t.CompletedAt,
		FailureReason:   t.FailureReason,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func (m *TransactionMapper) ToModel(t *entity.Transaction) *model.Transaction {
	if t == nil {
		return nil
	}
	var metadata datatypes.JSON
	if len(t.Metadata) > 0 {
		if raw, err := json.Marshal(t.Metadata); err == nil {
			metadata = datatypes.JSON(raw)
		}
	}
	return &model.Transaction{
		Id:              t.Id,
		TransactionId:   t.TransactionId,
		UserId:          t.UserId,
		TransactionType: string(t.TransactionType),
		Amount:          t.Amount,
		Status:          string(t.Status),
		PaymentMethod:   t.PaymentMethod,
		Description:     t.Description,
		OrderId:         t.OrderId,
		SubscriptionId:  t.SubscriptionId,
		Metadata:        metadata,
		CompletedAt:     t.CompletedAt,
		FailureReason:   t.FailureReason,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func (m *TransactionMapper) ToEntities(models []*model.Transaction) []*entity.Transaction {
	out := make([]*entity.Transaction, 0, len(models))
	for _, t := range models {
		out = append(out, m.ToEntity(t))
	}
	return out
}
