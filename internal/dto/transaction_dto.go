package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionResponse struct {
	Id              uuid.UUID       `json:"id"`
	TransactionId   string          `json:"transactionId"`
	TransactionType string          `json:"transactionType"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	PaymentMethod   string          `json:"paymentMethod"`
	Description     string          `json:"description"`
	OrderId         *string         `json:"orderId,omitempty"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
	FailureReason   *string         `json:"failureReason,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type PaginationResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

type TransactionHistoryResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Pagination   PaginationResponse    `json:"pagination"`
}

type FailTransactionRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
