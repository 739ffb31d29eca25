package paypal

import (
	"context"
	"net/http"
	"net/url"
)

const (
	IntentSubscription       = "SUBSCRIPTION"
	SubscriptionStatusActive = "ACTIVE"
)

type Product struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	Category    string `json:"category,omitempty"`
}

type Frequency struct {
	IntervalUnit  string `json:"interval_unit"`
	IntervalCount int    `json:"interval_count"`
}

type PricingScheme struct {
	FixedPrice Money `json:"fixed_price"`
}

type BillingCycle struct {
	Frequency     Frequency     `json:"frequency"`
	TenureType    string        `json:"tenure_type"`
	Sequence      int           `json:"sequence"`
	TotalCycles   int           `json:"total_cycles"`
	PricingScheme PricingScheme `json:"pricing_scheme"`
}

type PaymentPreferences struct {
	AutoBillOutstanding     bool `json:"auto_bill_outstanding"`
	PaymentFailureThreshold int  `json:"payment_failure_threshold"`
}

type CreatePlanRequest struct {
	ProductID          string              `json:"product_id"`
	Name               string              `json:"name"`
	Description        string              `json:"description,omitempty"`
	Status             string              `json:"status,omitempty"`
	BillingCycles      []BillingCycle      `json:"billing_cycles"`
	PaymentPreferences *PaymentPreferences `json:"payment_preferences,omitempty"`
}

type Plan struct {
	ID            string         `json:"id"`
	ProductID     string         `json:"product_id"`
	Name          string         `json:"name"`
	Status        string         `json:"status"`
	BillingCycles []BillingCycle `json:"billing_cycles,omitempty"`
}

// RegularPrice is the fixed price of the first REGULAR billing cycle.
func (p *Plan) RegularPrice() (*Money, *Frequency) {
	for _, c := range p.BillingCycles {
		if c.TenureType == "REGULAR" {
			price, freq := c.PricingScheme.FixedPrice, c.Frequency
			return &price, &freq
		}
	}
	return nil, nil
}

type CreateSubscriptionRequest struct {
	PlanID             string              `json:"plan_id"`
	CustomID           string              `json:"custom_id,omitempty"`
	ApplicationContext *ApplicationContext `json:"application_context,omitempty"`
	RequestID          string              `json:"-"`
}

type Subscription struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	PlanID    string `json:"plan_id"`
	CustomID  string `json:"custom_id,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	Links     []Link `json:"links,omitempty"`
}

func (s *Subscription) ApproveURL() string {
	return approveLink(s.Links)
}

func (c *Client) CreateProduct(ctx context.Context, product Product) (*Product, error) {
	var out Product
	if err := c.do(ctx, "create_product", http.MethodPost, "/v1/catalogs/products", product, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePlan(ctx context.Context, req CreatePlanRequest) (*Plan, error) {
	var out Plan
	if err := c.do(ctx, "create_plan", http.MethodPost, "/v1/billing/plans", req, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*Subscription, error) {
	var out Subscription
	if err := c.do(ctx, "create_subscription", http.MethodPost, "/v1/billing/subscriptions", req, &out, req.RequestID); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	var out Subscription
	if err := c.do(ctx, "get_subscription", http.MethodGet, "/v1/billing/subscriptions/"+url.PathEscape(subscriptionID), nil, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPlan(ctx context.Context, planID string) (*Plan, error) {
	var out Plan
	if err := c.do(ctx, "get_plan", http.MethodGet, "/v1/billing/plans/"+url.PathEscape(planID), nil, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	var out Product
	if err := c.do(ctx, "get_product", http.MethodGet, "/v1/catalogs/products/"+url.PathEscape(productID), nil, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}
