package dto

import (
	"time"

	"github.com/google/uuid"
)

type VipStatusResponse struct {
	IsActive  bool       `json:"isActive"`
	ExpiresAt *time.Time `json:"expiresAt"`
	PlanType  *string    `json:"planType"`
	AutoRenew bool       `json:"autoRenew"`
}

type ActivateVipRequest struct {
	UserId           uuid.UUID `json:"userId" validate:"required"`
	Plan             string    `json:"plan" validate:"required"`
	ProviderOrderRef *string   `json:"providerOrderRef" validate:"omitempty,max=100"`
	TransactionId    string    `json:"transactionId" validate:"omitempty,max=100"`
}

type VipActivationResponse struct {
	UserId        uuid.UUID `json:"userId"`
	ExpiresAt     time.Time `json:"expiresAt"`
	PlanType      string    `json:"planType"`
	TransactionId string    `json:"transactionId"`
	Applied       bool      `json:"applied"`
}

type AutoRenewRequest struct {
	AutoRenew *bool `json:"autoRenew" validate:"required"`
}
