package model

import (
	"time"

	"github.com/google/uuid"
)

type VipSubscription struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	IsActive  bool      `gorm:"not null;default:false"`
	PlanType  string    `gorm:"type:varchar(20);not null"`
	StartDate time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	AutoRenew bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (VipSubscription) TableName() string {
	return "vip_subscriptions"
}
