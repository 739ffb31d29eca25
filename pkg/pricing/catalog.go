// Package pricing holds the canonical product price table shared by
// checkout and webhook validation.
package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

type Price struct {
	ProductID string          `json:"productId"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Label     string          `json:"label"`
}

// Catalog is read-only after construction.
type Catalog struct {
	prices map[string]Price
}

func NewCatalog(prices ...Price) *Catalog {
	c := &Catalog{prices: make(map[string]Price, len(prices))}
	for _, p := range prices {
		c.prices[p.ProductID] = p
	}
	return c
}

// DefaultCatalog returns the production price table.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Price{ProductID: "jeez_100_usd", Amount: decimal.RequireFromString("4.99"), Currency: "USD", Label: "100 Jeez"},
		Price{ProductID: "jeez_500_usd", Amount: decimal.RequireFromString("19.99"), Currency: "USD", Label: "500 Jeez"},
		Price{ProductID: "jeez_1000_usd", Amount: decimal.RequireFromString("34.99"), Currency: "USD", Label: "1000 Jeez"},
		Price{ProductID: "vip_monthly_usd", Amount: decimal.RequireFromString("9.99"), Currency: "USD", Label: "VIP Monthly"},
		Price{ProductID: "vip_quarterly_usd", Amount: decimal.RequireFromString("24.99"), Currency: "USD", Label: "VIP Quarterly"},
		Price{ProductID: "vip_annual_usd", Amount: decimal.RequireFromString("79.99"), Currency: "USD", Label: "VIP Annual"},
	)
}

func (c *Catalog) Lookup(productID string) (Price, bool) {
	p, ok := c.prices[productID]
	return p, ok
}

// Products returns every price sorted by product id.
func (c *Catalog) Products() []Price {
	out := make([]Price, 0, len(c.prices))
	for _, p := range c.prices {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
