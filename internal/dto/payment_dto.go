package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductResponse struct {
	ProductId string          `json:"productId"`
	Label     string          `json:"label"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

type CreateOrderRequest struct {
	ProductId string `json:"productId" validate:"required,max=64"`
}

type CreateOrderResponse struct {
	OrderId    string          `json:"orderId"`
	ApproveUrl string          `json:"approveUrl"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
}

type CaptureOrderResponse struct {
	OrderId    string  `json:"orderId"`
	Status     string  `json:"status"`
	PayerEmail *string `json:"payerEmail,omitempty"`
}

type WebhookResponse struct {
	Status      string     `json:"status"`
	OrderId     string     `json:"orderId,omitempty"`
	ProductType string     `json:"productType,omitempty"`
	UserId      *uuid.UUID `json:"userId,omitempty"`
}

type CreateSubscriptionRequest struct {
	Plan string `json:"plan" validate:"required,max=16"`
}

type CreateSubscriptionResponse struct {
	SubscriptionId string          `json:"subscriptionId"`
	PlanId         string          `json:"planId"`
	Plan           string          `json:"plan"`
	ProductId      string          `json:"productId"`
	ApproveUrl     string          `json:"approveUrl"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
}

type ApproveSubscriptionRequest struct {
	SubscriptionId string `json:"subscriptionId" validate:"required,max=64"`
}

type ApproveSubscriptionResponse struct {
	SubscriptionId string     `json:"subscriptionId"`
	Status         string     `json:"status"`
	Plan           string     `json:"plan,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
}

type ProductCheck struct {
	ProductId string `json:"productId"`
	Exists    bool   `json:"exists"`
	Name      string `json:"name,omitempty"`
	Error     string `json:"error,omitempty"`
}

type PlanCheck struct {
	Plan             string `json:"plan"`
	PlanId           string `json:"planId"`
	Exists           bool   `json:"exists"`
	Status           string `json:"status,omitempty"`
	Name             string `json:"name,omitempty"`
	ProductId        string `json:"productId,omitempty"`
	Price            string `json:"price,omitempty"`
	Currency         string `json:"currency,omitempty"`
	Interval         string `json:"interval,omitempty"`
	MatchesCatalogue bool   `json:"matchesCatalogue"`
	Error            string `json:"error,omitempty"`
}

type VerifyPlansResponse struct {
	Environment string       `json:"environment"`
	Product     ProductCheck `json:"product"`
	Plans       []PlanCheck  `json:"plans"`
}
