package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UserProfileResponse struct {
	Id          uuid.UUID         `json:"id"`
	Email       string            `json:"email"`
	FullName    string            `json:"fullName"`
	Role        string            `json:"role"`
	Vip         VipStatusResponse `json:"vip"`
	JeezBalance decimal.Decimal   `json:"jeezBalance"`
}
