package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/pkg/apperror"
	"jeezy-monetization-be/pkg/paypal"

	"github.com/shopspring/decimal"
)

// AmountTolerance absorbs provider-side rounding.
var AmountTolerance = decimal.RequireFromString("0.01")

// SignatureVerifier checks a delivery against the provider certificate.
type SignatureVerifier interface {
	Verify(ctx context.Context, webhookID string, body []byte, h paypal.TransmissionHeaders) error
}

type IPaymentVerificationService interface {
	// VerifySignature returns nil only for an authentic delivery.
	VerifySignature(ctx context.Context, webhookID string, rawBody []byte, h paypal.TransmissionHeaders) error
	ValidateAmount(expected decimal.Decimal, actual, expectedCurrency, actualCurrency string) error
	ParseWebhook(payload []byte) (*entity.WebhookIntent, error)
	ClassifyProduct(customId string) entity.ProductClassification
}

type paymentVerificationService struct {
	verifier SignatureVerifier
}

func NewPaymentVerificationService(verifier SignatureVerifier) IPaymentVerificationService {
	return &paymentVerificationService{verifier: verifier}
}

func (s *paymentVerificationService) VerifySignature(ctx context.Context, webhookID string, rawBody []byte, h paypal.TransmissionHeaders) error {
	err := s.verifier.Verify(ctx, webhookID, rawBody, h)
	if err == nil {
		return nil
	}
	if errors.Is(err, paypal.ErrTimeout) || errors.Is(err, paypal.ErrUnavailable) {
		return apperror.Transient(apperror.CodeProviderTimeout, "could not fetch the signing certificate", err)
	}
	return apperror.Wrap(apperror.KindIntegrity, apperror.CodeInvalidSignature, "webhook signature verification failed", err)
}

func (s *paymentVerificationService) ValidateAmount(expected decimal.Decimal, actual, expectedCurrency, actualCurrency string) error {
	got, err := decimal.NewFromString(strings.TrimSpace(actual))
	if err != nil || got.Sub(expected).Abs().GreaterThan(AmountTolerance) {
		return apperror.Integrity(apperror.CodeAmountMismatch, "amount mismatch: expected "+expected.StringFixed(2)+", got "+actual)
	}
	if !strings.EqualFold(strings.TrimSpace(actualCurrency), expectedCurrency) {
		return apperror.Integrity(apperror.CodeCurrencyMismatch, "currency mismatch: expected "+expectedCurrency+", got "+actualCurrency)
	}
	return nil
}

type webhookResource struct {
	ID            string                `json:"id"`
	Status        string                `json:"status"`
	Amount        *paypal.Money         `json:"amount"`
	CustomID      string                `json:"custom_id"`
	PurchaseUnits []paypal.PurchaseUnit `json:"purchase_units"`
}

type webhookPayload struct {
	ID        string           `json:"id"`
	EventType string           `json:"event_type"`
	Resource  *webhookResource `json:"resource"`
}

// ParseWebhook is structural only. Amount and custom id are read from the
// resource, falling back to its first purchase unit.
func (s *paymentVerificationService) ParseWebhook(payload []byte) (*entity.WebhookIntent, error) {
	var p webhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, apperror.CodeInvalidPayload, "webhook body is not valid JSON", err)
	}
	if p.EventType == "" || p.Resource == nil || p.Resource.ID == "" || p.Resource.Status == "" {
		return nil, apperror.Validation(apperror.CodeInvalidPayload, "webhook is missing event_type or resource id/status")
	}

	intent := &entity.WebhookIntent{
		EventId:   p.ID,
		EventType: p.EventType,
		OrderId:   p.Resource.ID,
		Status:    p.Resource.Status,
	}

	amount, customID := p.Resource.Amount, p.Resource.CustomID
	if len(p.Resource.PurchaseUnits) > 0 {
		unit := p.Resource.PurchaseUnits[0]
		if amount == nil {
			amount = unit.Amount
		}
		if customID == "" {
			customID = unit.CustomID
		}
	}
	if amount != nil {
		value, currency := amount.Value, amount.CurrencyCode
		intent.Amount, intent.Currency = &value, &currency
	}
	if customID != "" {
		intent.CustomId = &customID
	}
	return intent, nil
}

// ClassifyProduct decodes jeez_<quantity>_<currency> and
// vip_<plan>_<currency>. Anything else is UNKNOWN.
func (s *paymentVerificationService) ClassifyProduct(customId string) entity.ProductClassification {
	unknown := entity.ProductClassification{Type: entity.ProductTypeUnknown}

	parts := strings.Split(strings.TrimSpace(customId), "_")
	if len(parts) != 3 || !isCurrencyCode(parts[2]) {
		return unknown
	}
	currency := strings.ToUpper(parts[2])

	switch strings.ToLower(parts[0]) {
	case "jeez":
		qty, err := strconv.Atoi(parts[1])
		if err != nil || qty <= 0 || parts[1][0] == '+' {
			return unknown
		}
		return entity.ProductClassification{Type: entity.ProductTypeJeez, Quantity: decimal.NewFromInt(int64(qty)), Currency: currency}
	case "vip":
		plan, ok := entity.ParsePlanType(parts[1])
		if !ok {
			return unknown
		}
		return entity.ProductClassification{Type: entity.ProductTypeVip, Plan: plan, Currency: currency}
	}
	return unknown
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
