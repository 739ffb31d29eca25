package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PayPalOrder struct {
	Id              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderId         string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	UserId          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductId       string          `gorm:"type:varchar(64);not null"`
	Amount          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency        string          `gorm:"type:varchar(3);not null"`
	Status          string          `gorm:"type:varchar(16);not null;default:'CREATED'"`
	Intent          string          `gorm:"type:varchar(16);not null;default:'CAPTURE'"`
	PayerEmail      *string         `gorm:"type:varchar(255)"`
	PayerId         *string         `gorm:"type:varchar(64)"`
	PayerName       *string         `gorm:"type:varchar(255)"`
	WebhookVerified bool            `gorm:"not null;default:false"`
	RawWebhookData  datatypes.JSON  `gorm:"type:jsonb"`
	CompletedAt     *time.Time
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (PayPalOrder) TableName() string {
	return "paypal_orders"
}
