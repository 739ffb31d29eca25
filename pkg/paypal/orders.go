package paypal

import (
	"context"
	"net/http"
	"net/url"
)

const IntentCapture = "CAPTURE"

type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type PurchaseUnit struct {
	ReferenceID string    `json:"reference_id,omitempty"`
	CustomID    string    `json:"custom_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Amount      *Money    `json:"amount,omitempty"`
	Payments    *Payments `json:"payments,omitempty"`
}

type Payments struct {
	Captures []Capture `json:"captures,omitempty"`
}

type Capture struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   *Money `json:"amount,omitempty"`
	CustomID string `json:"custom_id,omitempty"`
}

type ApplicationContext struct {
	BrandName   string `json:"brand_name,omitempty"`
	LandingPage string `json:"landing_page,omitempty"`
	UserAction  string `json:"user_action,omitempty"`
	ReturnURL   string `json:"return_url,omitempty"`
	CancelURL   string `json:"cancel_url,omitempty"`
}

type CreateOrderRequest struct {
	Intent             string              `json:"intent"`
	PurchaseUnits      []PurchaseUnit      `json:"purchase_units"`
	ApplicationContext *ApplicationContext `json:"application_context,omitempty"`
	// RequestID makes a retried create idempotent on the provider side.
	RequestID string `json:"-"`
}

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

type PayerName struct {
	GivenName string `json:"given_name,omitempty"`
	Surname   string `json:"surname,omitempty"`
}

type Payer struct {
	PayerID      string     `json:"payer_id,omitempty"`
	EmailAddress string     `json:"email_address,omitempty"`
	Name         *PayerName `json:"name,omitempty"`
}

type Order struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Intent        string         `json:"intent,omitempty"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units,omitempty"`
	Payer         *Payer         `json:"payer,omitempty"`
	Links         []Link         `json:"links,omitempty"`
}

// ApproveURL returns the buyer redirect link, or "" when absent.
func (o *Order) ApproveURL() string {
	return approveLink(o.Links)
}

func approveLink(links []Link) string {
	for _, l := range links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			return l.Href
		}
	}
	return ""
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if req.Intent == "" {
		req.Intent = IntentCapture
	}
	var order Order
	if err := c.do(ctx, "create_order", http.MethodPost, "/v2/checkout/orders", req, &order, req.RequestID); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	if err := c.do(ctx, "capture_order", http.MethodPost, path, struct{}{}, &order, "capture-"+orderID); err != nil {
		return nil, err
	}
	return &order, nil
}
