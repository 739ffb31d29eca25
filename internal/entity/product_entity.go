package entity

import "github.com/shopspring/decimal"

type ProductType string

const (
	ProductTypeJeez    ProductType = "JEEZ"
	ProductTypeVip     ProductType = "VIP"
	ProductTypeUnknown ProductType = "UNKNOWN"
)

// ProductClassification is decoded from a provider custom id such as
// jeez_500_usd or vip_monthly_usd.
type ProductClassification struct {
	Type     ProductType
	Quantity decimal.Decimal
	Plan     PlanType
	Currency string
}
