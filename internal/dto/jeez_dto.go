package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type DebitRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description" validate:"max=255"`
	TransactionId string          `json:"transactionId" validate:"omitempty,max=100"`
}

type CreditRequest struct {
	UserId        uuid.UUID       `json:"userId" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description" validate:"max=255"`
	TransactionId string          `json:"transactionId" validate:"omitempty,max=100"`
}

// WalletMutationResponse reports whether this call applied the mutation
// or replayed an earlier one with the same token.
type WalletMutationResponse struct {
	NewBalance    decimal.Decimal `json:"newBalance"`
	TransactionId string          `json:"transactionId"`
	Applied       bool            `json:"applied"`
}
