package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"jeezy-monetization-be/internal/dto"
	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/pkg/apperror"
	"jeezy-monetization-be/internal/pkg/logger"
	"jeezy-monetization-be/internal/repository/specification"
	"jeezy-monetization-be/internal/repository/unitofwork"
	"jeezy-monetization-be/pkg/paypal"
	"jeezy-monetization-be/pkg/pricing"

	"github.com/google/uuid"
)

// PaymentProvider is the part of the PayPal client checkout needs.
type PaymentProvider interface {
	CreateOrder(ctx context.Context, req paypal.CreateOrderRequest) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*paypal.Order, error)
}

// PaymentIntentToken is the ledger token of the PENDING entry recorded
// when an order is created.
func PaymentIntentToken(orderId string) string {
	return "paypal_" + orderId
}

type CheckoutConfig struct {
	ReturnURL string
	CancelURL string
	BrandName string
	TxTimeout time.Duration
}

type ICheckoutService interface {
	Products(ctx context.Context) []dto.ProductResponse
	CreateOrder(ctx context.Context, userId uuid.UUID, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error)
	CaptureOrder(ctx context.Context, userId uuid.UUID, orderId string) (*dto.CaptureOrderResponse, error)
}

type checkoutService struct {
	cfg          CheckoutConfig
	uowFactory   unitofwork.RepositoryFactory
	provider     PaymentProvider
	catalog      *pricing.Catalog
	verification IPaymentVerificationService
	log          logger.ILogger
	audit        logger.ILogger
}

func NewCheckoutService(
	cfg CheckoutConfig,
	uowFactory unitofwork.RepositoryFactory,
	provider PaymentProvider,
	catalog *pricing.Catalog,
	verification IPaymentVerificationService,
	log logger.ILogger,
	audit logger.ILogger,
) ICheckoutService {
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = DefaultTxTimeout
	}
	return &checkoutService{
		cfg:          cfg,
		uowFactory:   uowFactory,
		provider:     provider,
		catalog:      catalog,
		verification: verification,
		log:          log,
		audit:        audit,
	}
}

// providerError separates retryable provider failures from rejections.
func providerError(err error) error {
	if paypal.IsRetryable(err) {
		return apperror.Transient(apperror.CodeProviderTimeout, "payment provider is unavailable, retry later", err)
	}
	var apiErr *paypal.APIError
	if errors.As(err, &apiErr) {
		return apperror.Upstream(apperror.CodeProviderRejected, "payment provider rejected the request: "+apiErr.Name, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return apperror.Upstream(apperror.CodeProviderRejected, "payment provider returned an unusable response", err)
}

func (s *checkoutService) Products(ctx context.Context) []dto.ProductResponse {
	prices := s.catalog.Products()
	out := make([]dto.ProductResponse, 0, len(prices))
	for _, p := range prices {
		out = append(out, dto.ProductResponse{ProductId: p.ProductID, Label: p.Label, Amount: p.Amount, Currency: p.Currency})
	}
	return out
}

func (s *checkoutService) CreateOrder(ctx context.Context, userId uuid.UUID, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	// 1. Canonical price
	productId := strings.TrimSpace(req.ProductId)
	price, ok := s.catalog.Lookup(productId)
	product := s.verification.ClassifyProduct(productId)
	if !ok || product.Type == entity.ProductTypeUnknown {
		return nil, apperror.Validation(apperror.CodeUnknownProduct, "unknown product "+productId)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, storageError(err)
	}
	if user == nil {
		return nil, apperror.NotFound(apperror.CodeUserNotFound, "user not found")
	}

	// 2. Provider order
	order, err := s.provider.CreateOrder(ctx, paypal.CreateOrderRequest{
		Intent:    paypal.IntentCapture,
		RequestID: uuid.NewString(),
		PurchaseUnits: []paypal.PurchaseUnit{{
			ReferenceID: productId,
			CustomID:    productId,
			Description: price.Label,
			Amount:      &paypal.Money{CurrencyCode: price.Currency, Value: price.Amount.StringFixed(2)},
		}},
		ApplicationContext: &paypal.ApplicationContext{
			BrandName:   s.cfg.BrandName,
			LandingPage: "BILLING",
			UserAction:  "PAY_NOW",
			ReturnURL:   s.cfg.ReturnURL,
			CancelURL:   s.cfg.CancelURL,
		},
	})
	if err != nil {
		s.log.Warn("CHECKOUT", "Provider order creation failed", map[string]interface{}{"product": productId, "error": err})
		return nil, providerError(err)
	}
	approveURL := order.ApproveURL()
	if order.ID == "" || approveURL == "" {
		return nil, apperror.Upstream(apperror.CodeProviderRejected, "payment provider returned no approval link", nil)
	}

	// 3. Local order row and PENDING ledger intent, before any webhook
	txType := entity.TransactionTypeJeezPurchase
	metadata := map[string]interface{}{"productId": productId, "currency": price.Currency}
	if product.Type == entity.ProductTypeVip {
		txType = entity.TransactionTypeVipSubscription
		metadata["plan"] = string(product.Plan)
	} else {
		metadata["jeezAmount"] = product.Quantity.String()
	}

	orderId := order.ID
	err = inTransaction(ctx, s.uowFactory, s.cfg.TxTimeout, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		if err := uow.PayPalOrderRepository().Create(ctx, &entity.PayPalOrder{
			Id:        uuid.New(),
			OrderId:   orderId,
			UserId:    userId,
			ProductId: productId,
			Amount:    price.Amount,
			Currency:  price.Currency,
			Status:    entity.PayPalOrderStatusCreated,
			Intent:    paypal.IntentCapture,
		}); err != nil {
			return err
		}
		_, _, err := uow.TransactionRepository().Record(ctx, &entity.Transaction{
			Id:              uuid.New(),
			TransactionId:   PaymentIntentToken(orderId),
			UserId:          userId,
			TransactionType: txType,
			Amount:          price.Amount,
			Status:          entity.TransactionStatusPending,
			PaymentMethod:   entity.PaymentMethodPayPal,
			Description:     "PayPal checkout: " + price.Label,
			OrderId:         &orderId,
			Metadata:        metadata,
		})
		return err
	})
	if err != nil {
		s.log.Error("CHECKOUT", "Failed to persist provider order", map[string]interface{}{"order_id": orderId, "error": err})
		return nil, err
	}

	s.log.Info("CHECKOUT", "Order created", map[string]interface{}{"order_id": orderId, "user_id": userId.String(), "product": productId})
	return &dto.CreateOrderResponse{
		OrderId:    orderId,
		ApproveUrl: approveURL,
		Amount:     price.Amount,
		Currency:   price.Currency,
	}, nil
}

func (s *checkoutService) CaptureOrder(ctx context.Context, userId uuid.UUID, orderId string) (*dto.CaptureOrderResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	order, err := uow.PayPalOrderRepository().FindOne(ctx, specification.ByOrderID{OrderID: orderId})
	if err != nil {
		return nil, storageError(err)
	}
	if order == nil || order.UserId != userId {
		return nil, apperror.NotFound(apperror.CodeOrderNotFound, "order not found")
	}
	if order.Status != entity.PayPalOrderStatusCreated {
		return nil, apperror.Conflict(apperror.CodeOrderState, "order is already "+string(order.Status))
	}

	captured, err := s.provider.CaptureOrder(ctx, orderId)
	if err != nil {
		mapped := providerError(err)
		if apperror.KindOf(mapped) == apperror.KindUpstream {
			s.markFailed(ctx, orderId, mapped.Error())
		}
		s.log.Warn("CHECKOUT", "Capture failed", map[string]interface{}{"order_id": orderId, "error": err})
		return nil, mapped
	}

	if err := s.verifyCapture(order, captured); err != nil {
		s.markFailed(ctx, orderId, err.Error())
		amount, currency, customId := capturedDetails(captured)
		s.audit.Warn("CHECKOUT", "Rejected capture", map[string]interface{}{
			"order_id": orderId, "code": apperror.CodeOf(err), "order_product": order.ProductId,
			"expected_amount": order.Amount.StringFixed(2), "received_amount": amount,
			"expected_currency": order.Currency, "received_currency": currency,
			"custom_id": customId,
		})
		return nil, err
	}

	var email, payerId, name *string
	if p := captured.Payer; p != nil {
		if p.EmailAddress != "" {
			email = &p.EmailAddress
		}
		if p.PayerID != "" {
			payerId = &p.PayerID
		}
		if p.Name != nil {
			full := strings.TrimSpace(p.Name.GivenName + " " + p.Name.Surname)
			if full != "" {
				name = &full
			}
		}
	}

	if err := uow.PayPalOrderRepository().MarkApproved(ctx, orderId, email, payerId, name); err != nil {
		return nil, storageError(err)
	}

	s.log.Info("CHECKOUT", "Order captured", map[string]interface{}{"order_id": orderId, "provider_status": captured.Status})
	return &dto.CaptureOrderResponse{
		OrderId:    orderId,
		Status:     string(entity.PayPalOrderStatusApproved),
		PayerEmail: email,
	}, nil
}

// capturedDetails reads the first capture of the provider response. The
// custom id falls back to the purchase unit's.
func capturedDetails(o *paypal.Order) (amount, currency, customId string) {
	for _, unit := range o.PurchaseUnits {
		if unit.Payments == nil {
			continue
		}
		for _, c := range unit.Payments.Captures {
			if c.Amount == nil {
				continue
			}
			customId = c.CustomID
			if customId == "" {
				customId = unit.CustomID
			}
			return c.Amount.Value, c.Amount.CurrencyCode, customId
		}
	}
	return "", "", ""
}

// verifyCapture holds the captured money to the stored order amount.
func (s *checkoutService) verifyCapture(order *entity.PayPalOrder, captured *paypal.Order) error {
	amount, currency, customId := capturedDetails(captured)
	if amount == "" {
		return apperror.Integrity(apperror.CodeProductMismatch, "capture carries no amount")
	}
	if customId != "" && customId != order.ProductId {
		return apperror.Integrity(apperror.CodeProductMismatch, "captured product does not match the order")
	}
	if err := s.verification.ValidateAmount(order.Amount, amount, order.Currency, currency); err != nil {
		return apperror.Wrap(apperror.KindIntegrity, apperror.CodeProductMismatch, "captured amount does not match the order", err)
	}
	return nil
}

func (s *checkoutService) markFailed(ctx context.Context, orderId, reason string) {
	failOrder(ctx, s.uowFactory, s.cfg.TxTimeout, s.log, orderId, reason)
}

// failOrder fails a provider order together with its PENDING intent.
func failOrder(ctx context.Context, uowFactory unitofwork.RepositoryFactory, timeout time.Duration, log logger.ILogger, orderId, reason string) {
	err := inTransaction(ctx, uowFactory, timeout, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		if err := uow.PayPalOrderRepository().MarkFailed(ctx, orderId); err != nil {
			return err
		}
		_, err := uow.TransactionRepository().MarkFailed(ctx, PaymentIntentToken(orderId), reason)
		return err
	})
	if err != nil {
		log.Error("CHECKOUT", "Failed to mark order failed", map[string]interface{}{"order_id": orderId, "error": err})
	}
}
