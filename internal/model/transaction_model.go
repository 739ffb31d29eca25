package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Transaction struct {
	Id              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransactionId   string          `gorm:"type:varchar(128);not null;uniqueIndex"`
	UserId          uuid.UUID       `gorm:"type:uuid;not null;index:idx_transactions_user_created,priority:1"`
	TransactionType string          `gorm:"type:varchar(32);not null"`
	Amount          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status          string          `gorm:"type:varchar(16);not null;default:'PENDING'"`
	PaymentMethod   string          `gorm:"type:varchar(32)"`
	Description     string          `gorm:"type:text"`
	OrderId         *string         `gorm:"type:varchar(64);index"`
	SubscriptionId  *uuid.UUID      `gorm:"type:uuid"`
	Metadata        datatypes.JSON  `gorm:"type:jsonb"`
	CompletedAt     *time.Time
	FailureReason   *string   `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index:idx_transactions_user_created,priority:2,sort:desc"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (Transaction) TableName() string {
	return "transactions"
}
