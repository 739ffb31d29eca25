package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"Client Authentication failed"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_CreateOrder(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/checkout/orders", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "req-1", r.Header.Get("PayPal-Request-Id"))

		var req CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, IntentCapture, req.Intent)
		assert.Equal(t, "jeez_100_usd", req.PurchaseUnits[0].CustomID)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ORDER-1","status":"CREATED","links":[{"href":"https://paypal.test/approve","rel":"approve"}]}`))
	})

	var observed string
	c := NewClient(Config{
		BaseURL: srv.URL, ClientID: "client", ClientSecret: "secret", Timeout: time.Second,
		OnCall: func(op string, _ time.Duration, _ error) { observed = op },
	})

	order, err := c.CreateOrder(context.Background(), CreateOrderRequest{
		RequestID: "req-1",
		PurchaseUnits: []PurchaseUnit{{
			CustomID: "jeez_100_usd",
			Amount:   &Money{CurrencyCode: "USD", Value: "4.99"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ORDER-1", order.ID)
	assert.Equal(t, "https://paypal.test/approve", order.ApproveURL())
	assert.Equal(t, "create_order", observed)
}

func TestClient_APIError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY","message":"order already captured","debug_id":"dbg"}`))
	})
	c := NewClient(Config{BaseURL: srv.URL, ClientID: "client", ClientSecret: "secret", Timeout: time.Second})

	_, err := c.CaptureOrder(context.Background(), "ORDER-1")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "UNPROCESSABLE_ENTITY", apiErr.Name)
	assert.False(t, IsRetryable(err))
}

func TestClient_BadCredentials(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("api must not be reached without a token")
	})
	c := NewClient(Config{BaseURL: srv.URL, ClientID: "client", ClientSecret: "wrong", Timeout: time.Second})

	_, err := c.CreateProduct(context.Background(), Product{Name: "VIP", Type: "SERVICE"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid_client", apiErr.Name)
}

func TestClient_Timeout(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	c := NewClient(Config{BaseURL: srv.URL, ClientID: "client", ClientSecret: "secret", Timeout: 50 * time.Millisecond})

	_, err := c.CreatePlan(context.Background(), CreatePlanRequest{ProductID: "P-1", Name: "Monthly"})

	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsRetryable(err))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&APIError{StatusCode: 503}))
	assert.True(t, IsRetryable(&APIError{StatusCode: 429}))
	assert.False(t, IsRetryable(&APIError{StatusCode: 400}))
	assert.False(t, IsRetryable(errors.New("boom")))
}

func TestClient_CreateSubscription(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/billing/subscriptions", r.URL.Path)
		assert.Equal(t, "sub-req-1", r.Header.Get("PayPal-Request-Id"))

		var req CreateSubscriptionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "P-MONTHLY", req.PlanID)
		assert.Equal(t, "vip_monthly_usd", req.CustomID)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"I-SUB1","status":"APPROVAL_PENDING","plan_id":"P-MONTHLY","links":[{"href":"https://paypal.test/subscribe","rel":"approve"}]}`))
	})
	c := NewClient(Config{BaseURL: srv.URL, ClientID: "client", ClientSecret: "secret", Timeout: time.Second})

	sub, err := c.CreateSubscription(context.Background(), CreateSubscriptionRequest{
		PlanID: "P-MONTHLY", CustomID: "vip_monthly_usd", RequestID: "sub-req-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "I-SUB1", sub.ID)
	assert.Equal(t, "https://paypal.test/subscribe", sub.ApproveURL())
}

func TestClient_GetSubscriptionAndPlan(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/v1/billing/subscriptions/I-SUB1":
			_, _ = w.Write([]byte(`{"id":"I-SUB1","status":"ACTIVE","plan_id":"P-MONTHLY","custom_id":"vip_monthly_usd"}`))
		case "/v1/billing/plans/P-MONTHLY":
			_, _ = w.Write([]byte(`{"id":"P-MONTHLY","product_id":"PROD-1","name":"VIP Monthly","status":"ACTIVE",
				"billing_cycles":[{"frequency":{"interval_unit":"MONTH","interval_count":1},"tenure_type":"REGULAR","sequence":1,"total_cycles":0,
				"pricing_scheme":{"fixed_price":{"currency_code":"USD","value":"9.99"}}}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"name":"RESOURCE_NOT_FOUND","message":"not found"}`))
		}
	})
	c := NewClient(Config{BaseURL: srv.URL, ClientID: "client", ClientSecret: "secret", Timeout: time.Second})
	ctx := context.Background()

	sub, err := c.GetSubscription(ctx, "I-SUB1")
	require.NoError(t, err)
	assert.Equal(t, SubscriptionStatusActive, sub.Status)
	assert.Equal(t, "vip_monthly_usd", sub.CustomID)

	plan, err := c.GetPlan(ctx, "P-MONTHLY")
	require.NoError(t, err)
	price, freq := plan.RegularPrice()
	require.NotNil(t, price)
	assert.Equal(t, "9.99", price.Value)
	assert.Equal(t, "MONTH", freq.IntervalUnit)

	_, err = c.GetProduct(ctx, "PROD-MISSING")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
