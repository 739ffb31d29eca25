package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PayPalOrderStatus string

const (
	PayPalOrderStatusCreated   PayPalOrderStatus = "CREATED"
	PayPalOrderStatusApproved  PayPalOrderStatus = "APPROVED"
	PayPalOrderStatusCompleted PayPalOrderStatus = "COMPLETED"
	PayPalOrderStatusFailed    PayPalOrderStatus = "FAILED"
)

// PayPalOrder is the server-side record of a checkout intent, written
// before the provider can ever deliver a webhook for it.
type PayPalOrder struct {
	Id              uuid.UUID
	OrderId         string
	UserId          uuid.UUID
	ProductId       string
	Amount          decimal.Decimal
	Currency        string
	Status          PayPalOrderStatus
	Intent          string
	PayerEmail      *string
	PayerId         *string
	PayerName       *string
	WebhookVerified bool
	RawWebhookData  []byte
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
