package mapper

import (
	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/model"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) ToEntity(s *model.VipSubscription) *entity.VipSubscription {
	if s == nil {
		return nil
	}
	return &entity.VipSubscription{
		Id:        s.Id,
		UserId:    s.UserId,
		IsActive:  s.IsActive,
		PlanType:  entity.PlanType(s.PlanType),
		StartDate: s.StartDate,
		ExpiresAt: s.ExpiresAt,
		AutoRenew: s.AutoRenew,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (m *SubscriptionMapper) ToModel(s *entity.VipSubscription) *model.VipSubscription {
	if s == nil {
		return nil
	}
	return &model.VipSubscription{
		Id:        s.Id,
		UserId:    s.UserId,
		IsActive:  s.IsActive,
		PlanType:  string(s.PlanType),
		StartDate: s.StartDate,
		ExpiresAt: s.ExpiresAt,
		AutoRenew: s.AutoRenew,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
