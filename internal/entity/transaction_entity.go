package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string
type TransactionStatus string

const (
	TransactionTypeJeezPurchase    TransactionType = "JEEZ_PURCHASE"
	TransactionTypeVipSubscription TransactionType = "VIP_SUBSCRIPTION"
	TransactionTypeRefund          TransactionType = "REFUND"
	TransactionTypeAdjustment      TransactionType = "ADJUSTMENT"

	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusRefunded  TransactionStatus = "REFUNDED"
)

const (
	PaymentMethodPayPal   = "PAYPAL"
	PaymentMethodJeez     = "JEEZ"
	PaymentMethodInternal = "INTERNAL"
)

// Transaction is a ledger entry keyed by its idempotency token.
type Transaction struct {
	Id              uuid.UUID
	TransactionId   string
	UserId          uuid.UUID
	TransactionType TransactionType
	Amount          decimal.Decimal
	Status          TransactionStatus
	PaymentMethod   string
	Description     string
	OrderId         *string
	SubscriptionId  *uuid.UUID
	Metadata        map[string]interface{}
	CompletedAt     *time.Time
	FailureReason   *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
