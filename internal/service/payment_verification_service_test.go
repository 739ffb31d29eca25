package service

import (
	"testing"

	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyProduct(t *testing.T) {
	svc := NewPaymentVerificationService(&stubVerifier{})

	tests := []struct {
		customId string
		want     entity.ProductType
	}{
		{"jeez_500_usd", entity.ProductTypeJeez},
		{"vip_annual_usd", entity.ProductTypeVip},
		{"VIP_Monthly_eur", entity.ProductTypeVip},
		{"jeez_0_usd", entity.ProductTypeUnknown},
		{"jeez_-5_usd", entity.ProductTypeUnknown},
		{"jeez_+5_usd", entity.ProductTypeUnknown},
		{"jeez_abc_usd", entity.ProductTypeUnknown},
		{"vip_weekly_usd", entity.ProductTypeUnknown},
		{"jeez_500_dollars", entity.ProductTypeUnknown},
		{"jeez_500", entity.ProductTypeUnknown},
		{"coins_500_usd", entity.ProductTypeUnknown},
		{"", entity.ProductTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.customId, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.ClassifyProduct(tt.customId).Type)
		})
	}

	jeez := svc.ClassifyProduct("jeez_500_usd")
	assert.True(t, jeez.Quantity.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "USD", jeez.Currency)
	assert.Equal(t, entity.PlanMonthly, svc.ClassifyProduct("VIP_Monthly_eur").Plan)
}

func TestValidateAmount(t *testing.T) {
	svc := NewPaymentVerificationService(&stubVerifier{})
	price := decimal.RequireFromString("4.99")

	assert.NoError(t, svc.ValidateAmount(price, "4.99", "USD", "usd"))
	assert.NoError(t, svc.ValidateAmount(price, "5.00", "USD", "USD"))
	assert.True(t, apperror.Is(svc.ValidateAmount(price, "4.50", "USD", "USD"), apperror.CodeAmountMismatch))
	assert.True(t, apperror.Is(svc.ValidateAmount(price, "abc", "USD", "USD"), apperror.CodeAmountMismatch))
	assert.True(t, apperror.Is(svc.ValidateAmount(price, "4.99", "USD", "EUR"), apperror.CodeCurrencyMismatch))
	// Amount is checked before currency.
	assert.True(t, apperror.Is(svc.ValidateAmount(price, "1.00", "USD", "EUR"), apperror.CodeAmountMismatch))
}

func TestParseWebhook(t *testing.T) {
	svc := NewPaymentVerificationService(&stubVerifier{})

	intent, err := svc.ParseWebhook(completedBody("ORDER-9", "jeez_100_usd", "4.99"))
	require.NoError(t, err)
	assert.Equal(t, "ORDER-9", intent.OrderId)
	assert.Equal(t, "COMPLETED", intent.Status)
	assert.True(t, intent.Actionable())
	require.NotNil(t, intent.Amount)
	assert.Equal(t, "4.99", *intent.Amount)
	require.NotNil(t, intent.CustomId)
	assert.Equal(t, "jeez_100_usd", *intent.CustomId)

	direct, err := svc.ParseWebhook([]byte(`{"event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAP-1","status":"COMPLETED","custom_id":"vip_monthly_usd","amount":{"currency_code":"USD","value":"9.99"}}}`))
	require.NoError(t, err)
	assert.False(t, direct.Actionable())
	assert.Equal(t, "vip_monthly_usd", *direct.CustomId)

	for _, body := range []string{`not json`, `{}`, `{"event_type":"X","resource":{"id":"1"}}`} {
		_, err := svc.ParseWebhook([]byte(body))
		assert.True(t, apperror.Is(err, apperror.CodeInvalidPayload), body)
	}
}
