package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jeezy-monetization-be/internal/constant"
	"jeezy-monetization-be/internal/dto"
	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/pkg/apperror"
	"jeezy-monetization-be/internal/pkg/locker"
	"jeezy-monetization-be/internal/pkg/logger"
	"jeezy-monetization-be/internal/pkg/metrics"
	"jeezy-monetization-be/internal/repository/specification"
	"jeezy-monetization-be/internal/repository/unitofwork"
	"jeezy-monetization-be/pkg/events"
	"jeezy-monetization-be/pkg/paypal"
	"jeezy-monetization-be/pkg/pricing"

	"github.com/google/uuid"
)

const (
	WebhookProcessed = "processed"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
)

type IWebhookService interface {
	HandlePayPal(ctx context.Context, rawBody []byte, h paypal.TransmissionHeaders) (*dto.WebhookResponse, error)
}

type WebhookConfig struct {
	WebhookID string
	LockTTL   time.Duration
	TxTimeout time.Duration
}

type webhookService struct {
	cfg          WebhookConfig
	uowFactory   unitofwork.RepositoryFactory
	verification IPaymentVerificationService
	catalog      *pricing.Catalog
	jeez         IJeezService
	vip          IVipService
	locker       locker.Locker
	notifier     INotificationPublisher
	log          logger.ILogger
	audit        logger.ILogger
	now          Clock
}

func NewWebhookService(
	cfg WebhookConfig,
	uowFactory unitofwork.RepositoryFactory,
	verification IPaymentVerificationService,
	catalog *pricing.Catalog,
	jeez IJeezService,
	vip IVipService,
	lock locker.Locker,
	notifier INotificationPublisher,
	log logger.ILogger,
	audit logger.ILogger,
	now Clock,
) IWebhookService {
	if now == nil {
		now = time.Now
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = DefaultTxTimeout
	}
	return &webhookService{
		cfg:          cfg,
		uowFactory:   uowFactory,
		verification: verification,
		catalog:      catalog,
		jeez:         jeez,
		vip:          vip,
		locker:       lock,
		notifier:     notifier,
		log:          log,
		audit:        audit,
		now:          now,
	}
}

// reject records an integrity failure in the payment audit log.
func (s *webhookService) reject(err error, details map[string]interface{}) error {
	details["code"] = apperror.CodeOf(err)
	details["error"] = err
	s.audit.Warn("WEBHOOK", "Rejected payment webhook", details)
	metrics.WebhookDeliveriesTotal.WithLabelValues("rejected").Inc()
	return err
}

func (s *webhookService) HandlePayPal(ctx context.Context, rawBody []byte, h paypal.TransmissionHeaders) (*dto.WebhookResponse, error) {
	// 1. Signature
	if err := s.verification.VerifySignature(ctx, s.cfg.WebhookID, rawBody, h); err != nil {
		if apperror.KindOf(err) == apperror.KindTransient {
			metrics.WebhookDeliveriesTotal.WithLabelValues("retry").Inc()
			return nil, err
		}
		return nil, s.reject(err, map[string]interface{}{"transmission_id": h.TransmissionID})
	}

	// 2. Shape
	intent, err := s.verification.ParseWebhook(rawBody)
	if err != nil {
		metrics.WebhookDeliveriesTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	// 3. Only completed orders are actionable
	if !intent.Actionable() {
		metrics.WebhookDeliveriesTotal.WithLabelValues(WebhookIgnored).Inc()
		s.log.Info("WEBHOOK", "Ignoring event type", map[string]interface{}{"event_type": intent.EventType, "order_id": intent.OrderId})
		return &dto.WebhookResponse{Status: WebhookIgnored, OrderId: intent.OrderId}, nil
	}

	// 4. Product
	customId := ""
	if intent.CustomId != nil {
		customId = *intent.CustomId
	}
	product := s.verification.ClassifyProduct(customId)
	price, known := s.catalog.Lookup(customId)
	if product.Type == entity.ProductTypeUnknown || !known {
		return nil, s.reject(apperror.Validation(apperror.CodeUnknownProduct, "unknown product "+customId),
			map[string]interface{}{"order_id": intent.OrderId, "custom_id": customId})
	}

	// 5. Price
	amount, currency := "", ""
	if intent.Amount != nil {
		amount = *intent.Amount
	}
	if intent.Currency != nil {
		currency = *intent.Currency
	}
	if err := s.verification.ValidateAmount(price.Amount, amount, price.Currency, currency); err != nil {
		return nil, s.reject(err, map[string]interface{}{
			"order_id": intent.OrderId, "custom_id": customId,
			"expected_amount": price.Amount.StringFixed(2), "received_amount": amount,
			"expected_currency": price.Currency, "received_currency": currency,
		})
	}

	// 6. The order must have been created by checkout
	order, err := s.uowFactory.NewUnitOfWork(ctx).PayPalOrderRepository().FindOne(ctx, specification.ByOrderID{OrderID: intent.OrderId})
	if err != nil {
		return nil, storageError(err)
	}
	if order == nil {
		metrics.WebhookDeliveriesTotal.WithLabelValues("rejected").Inc()
		s.log.Warn("WEBHOOK", "Webhook for unknown order", map[string]interface{}{"order_id": intent.OrderId})
		return nil, apperror.NotFound(apperror.CodeOrderNotFound, "order not found")
	}
	if order.ProductId != customId {
		return nil, s.reject(apperror.Integrity(apperror.CodeProductMismatch, "webhook product does not match the order"),
			map[string]interface{}{"order_id": intent.OrderId, "custom_id": customId, "order_product": order.ProductId})
	}

	// 7. Already reconciled
	if order.WebhookVerified {
		return s.duplicate(order), nil
	}

	// 8. One delivery per order at a time
	release, err := s.locker.Acquire(ctx, constant.WebhookLockPrefix+order.OrderId, s.cfg.LockTTL)
	if errors.Is(err, locker.ErrNotAcquired) {
		metrics.WebhookDeliveriesTotal.WithLabelValues("retry").Inc()
		return nil, apperror.Conflict(apperror.CodeWebhookInProgress, "another delivery for this order is being processed")
	}
	if err != nil {
		s.log.Warn("WEBHOOK", "Delivery lock unavailable, relying on row lock", map[string]interface{}{"order_id": order.OrderId, "error": err})
		release = func() {}
	}
	defer release()

	// 9. Atomic apply
	var (
		duplicate    bool
		notification dto.PaymentNotification
	)
	err = inTransaction(ctx, s.uowFactory, s.cfg.TxTimeout, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		locked, err := uow.PayPalOrderRepository().FindForUpdate(ctx, order.OrderId)
		if err != nil {
			return err
		}
		if locked == nil {
			return apperror.NotFound(apperror.CodeOrderNotFound, "order not found")
		}
		if locked.WebhookVerified {
			duplicate = true
			return nil
		}

		now := s.now()
		if err := uow.PayPalOrderRepository().MarkCompleted(ctx, locked.OrderId, rawBody, now); err != nil {
			return err
		}
		// The checkout intent entry settles with the order. Orders created
		// without one are still reconciled.
		if _, err := uow.TransactionRepository().MarkCompleted(ctx, PaymentIntentToken(locked.OrderId), now); err != nil {
			return err
		}

		orderRef := locked.OrderId
		notification = dto.PaymentNotification{
			EventId:    uuid.NewString(),
			UserId:     locked.UserId,
			OrderId:    orderRef,
			OccurredAt: now,
		}

		switch product.Type {
		case entity.ProductTypeJeez:
			res, err := s.jeez.ApplyCredit(ctx, uow, WalletMutation{
				UserId:        locked.UserId,
				Amount:        product.Quantity,
				Token:         s.jeez.GenerateToken(),
				Description:   fmt.Sprintf("PayPal order %s completed", orderRef),
				Type:          entity.TransactionTypeJeezPurchase,
				PaymentMethod: entity.PaymentMethodPayPal,
				OrderRef:      &orderRef,
				Metadata:      map[string]interface{}{"productId": customId, "price": price.Amount.StringFixed(2), "currency": price.Currency},
			})
			if err != nil {
				return err
			}
			notification.Kind = events.TypeJeezCredited
			notification.Quantity = product.Quantity.String()
			notification.NewBalance = res.NewBalance.String()
		case entity.ProductTypeVip:
			res, err := s.vip.ApplyActivation(ctx, uow, VipActivation{
				UserId:        locked.UserId,
				Plan:          product.Plan,
				Token:         s.vip.GenerateToken(),
				OrderRef:      &orderRef,
				PaymentMethod: entity.PaymentMethodPayPal,
			})
			if err != nil {
				return err
			}
			expiresAt := res.ExpiresAt
			notification.Kind = events.TypeVipActivated
			notification.Plan = string(res.PlanType)
			notification.ExpiresAt = &expiresAt
		}
		return nil
	})
	if err != nil {
		metrics.WebhookDeliveriesTotal.WithLabelValues("error").Inc()
		s.log.Error("WEBHOOK", "Failed to apply webhook", map[string]interface{}{"order_id": order.OrderId, "error": err})
		return nil, err
	}
	if duplicate {
		return s.duplicate(order), nil
	}

	metrics.WebhookDeliveriesTotal.WithLabelValues(WebhookProcessed).Inc()
	if product.Type == entity.ProductTypeVip {
		metrics.VipActivationsTotal.WithLabelValues(string(product.Plan)).Inc()
	}
	s.log.Info("WEBHOOK", "Payment reconciled", map[string]interface{}{
		"order_id": order.OrderId, "user_id": order.UserId.String(), "product": customId,
	})

	// Side effects only after commit.
	s.notifier.Notify(ctx, notification)

	userId := order.UserId
	return &dto.WebhookResponse{
		Status:      WebhookProcessed,
		OrderId:     order.OrderId,
		ProductType: string(product.Type),
		UserId:      &userId,
	}, nil
}

func (s *webhookService) duplicate(order *entity.PayPalOrder) *dto.WebhookResponse {
	metrics.WebhookDeliveriesTotal.WithLabelValues(WebhookDuplicate).Inc()
	s.log.Info("WEBHOOK", "Duplicate delivery acknowledged", map[string]interface{}{"order_id": order.OrderId})
	return &dto.WebhookResponse{Status: WebhookDuplicate, OrderId: order.OrderId}
}
