package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"jeezy-monetization-be/internal/dto"
	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/pkg/apperror"
	"jeezy-monetization-be/internal/pkg/logger"
	"jeezy-monetization-be/internal/pkg/metrics"
	"jeezy-monetization-be/internal/repository/specification"
	"jeezy-monetization-be/internal/repository/unitofwork"
	"jeezy-monetization-be/pkg/events"
	"jeezy-monetization-be/pkg/paypal"
	"jeezy-monetization-be/pkg/pricing"

	"github.com/google/uuid"
)

// SubscriptionProvider is the part of the PayPal client recurring VIP needs.
type SubscriptionProvider interface {
	CreateSubscription(ctx context.Context, req paypal.CreateSubscriptionRequest) (*paypal.Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*paypal.Subscription, error)
	GetPlan(ctx context.Context, planID string) (*paypal.Plan, error)
	GetProduct(ctx context.Context, productID string) (*paypal.Product, error)
}

type SubscriptionCheckoutConfig struct {
	// PlanIDs maps a plan name to its provider billing plan id.
	PlanIDs     map[string]string
	ProductID   string
	Environment string
	ReturnURL   string
	CancelURL   string
	BrandName   string
	TxTimeout   time.Duration
}

type ISubscriptionCheckoutService interface {
	CreateSubscription(ctx context.Context, userId uuid.UUID, req *dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResponse, error)
	ApproveSubscription(ctx context.Context, userId uuid.UUID, subscriptionId string) (*dto.ApproveSubscriptionResponse, error)
	VerifyPlans(ctx context.Context) (*dto.VerifyPlansResponse, error)
}

type subscriptionCheckoutService struct {
	cfg          SubscriptionCheckoutConfig
	uowFactory   unitofwork.RepositoryFactory
	provider     SubscriptionProvider
	catalog      *pricing.Catalog
	verification IPaymentVerificationService
	vip          IVipService
	notifier     INotificationPublisher
	log          logger.ILogger
	audit        logger.ILogger
	now          Clock
}

func NewSubscriptionCheckoutService(
	cfg SubscriptionCheckoutConfig,
	uowFactory unitofwork.RepositoryFactory,
	provider SubscriptionProvider,
	catalog *pricing.Catalog,
	verification IPaymentVerificationService,
	vip IVipService,
	notifier INotificationPublisher,
	log logger.ILogger,
	audit logger.ILogger,
	now Clock,
) ISubscriptionCheckoutService {
	if now == nil {
		now = time.Now
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = DefaultTxTimeout
	}
	return &subscriptionCheckoutService{
		cfg:          cfg,
		uowFactory:   uowFactory,
		provider:     provider,
		catalog:      catalog,
		verification: verification,
		vip:          vip,
		notifier:     notifier,
		log:          log,
		audit:        audit,
		now:          now,
	}
}

var subscriptionPlans = []entity.PlanType{entity.PlanMonthly, entity.PlanQuarterly, entity.PlanAnnual}

// vipPrice finds the catalogue price sold for plan.
func (s *subscriptionCheckoutService) vipPrice(plan entity.PlanType) (pricing.Price, bool) {
	for _, p := range s.catalog.Products() {
		class := s.verification.ClassifyProduct(p.ProductID)
		if class.Type == entity.ProductTypeVip && class.Plan == plan {
			return p, true
		}
	}
	return pricing.Price{}, false
}

func (s *subscriptionCheckoutService) CreateSubscription(ctx context.Context, userId uuid.UUID, req *dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResponse, error) {
	plan, ok := entity.ParsePlanType(req.Plan)
	if !ok {
		return nil, apperror.Validation(apperror.CodeInvalidPlan, "plan must be MONTHLY, QUARTERLY or ANNUAL")
	}
	price, ok := s.vipPrice(plan)
	if !ok {
		return nil, apperror.Validation(apperror.CodeUnknownProduct, "no VIP product for plan "+string(plan))
	}
	planId := s.cfg.PlanIDs[string(plan)]
	if planId == "" {
		s.log.Error("SUBSCRIPTION", "Billing plan id is not configured", map[string]interface{}{"plan": string(plan)})
		return nil, apperror.New(apperror.KindInternal, apperror.CodePlanNotConfigured, "subscriptions are not available for plan "+string(plan))
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, storageError(err)
	}
	if user == nil {
		return nil, apperror.NotFound(apperror.CodeUserNotFound, "user not found")
	}

	sub, err := s.provider.CreateSubscription(ctx, paypal.CreateSubscriptionRequest{
		PlanID:    planId,
		CustomID:  price.ProductID,
		RequestID: uuid.NewString(),
		ApplicationContext: &paypal.ApplicationContext{
			BrandName:  s.cfg.BrandName,
			UserAction: "SUBSCRIBE_NOW",
			ReturnURL:  s.cfg.ReturnURL,
			CancelURL:  s.cfg.CancelURL,
		},
	})
	if err != nil {
		s.log.Warn("SUBSCRIPTION", "Provider subscription creation failed", map[string]interface{}{"plan": string(plan), "error": err})
		return nil, providerError(err)
	}
	approveURL := sub.ApproveURL()
	if sub.ID == "" || approveURL == "" {
		return nil, apperror.Upstream(apperror.CodeProviderRejected, "payment provider returned no approval link", nil)
	}

	subscriptionId := sub.ID
	err = inTransaction(ctx, s.uowFactory, s.cfg.TxTimeout, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		if err := uow.PayPalOrderRepository().Create(ctx, &entity.PayPalOrder{
			Id:        uuid.New(),
			OrderId:   subscriptionId,
			UserId:    userId,
			ProductId: price.ProductID,
			Amount:    price.Amount,
			Currency:  price.Currency,
			Status:    entity.PayPalOrderStatusCreated,
			Intent:    paypal.IntentSubscription,
		}); err != nil {
			return err
		}
		_, _, err := uow.TransactionRepository().Record(ctx, &entity.Transaction{
			Id:              uuid.New(),
			TransactionId:   PaymentIntentToken(subscriptionId),
			UserId:          userId,
			TransactionType: entity.TransactionTypeVipSubscription,
			Amount:          price.Amount,
			Status:          entity.TransactionStatusPending,
			PaymentMethod:   entity.PaymentMethodPayPal,
			Description:     "PayPal subscription: " + price.Label,
			OrderId:         &subscriptionId,
			Metadata: map[string]interface{}{
				"productId": price.ProductID, "currency": price.Currency,
				"plan": string(plan), "planId": planId,
			},
		})
		return err
	})
	if err != nil {
		s.log.Error("SUBSCRIPTION", "Failed to persist provider subscription", map[string]interface{}{"subscription_id": subscriptionId, "error": err})
		return nil, err
	}

	s.log.Info("SUBSCRIPTION", "Subscription created", map[string]interface{}{
		"subscription_id": subscriptionId, "user_id": userId.String(), "plan": string(plan),
	})
	return &dto.CreateSubscriptionResponse{
		SubscriptionId: subscriptionId,
		PlanId:         planId,
		Plan:           string(plan),
		ProductId:      price.ProductID,
		ApproveUrl:     approveURL,
		Amount:         price.Amount,
		Currency:       price.Currency,
		Status:         string(entity.PayPalOrderStatusCreated),
	}, nil
}

// ApproveSubscription activates VIP once the provider reports the
// subscription ACTIVE. The PENDING intent recorded at creation is the
// activation token, so repeated approvals apply once.
func (s *subscriptionCheckoutService) ApproveSubscription(ctx context.Context, userId uuid.UUID, subscriptionId string) (*dto.ApproveSubscriptionResponse, error) {
	subscriptionId = strings.TrimSpace(subscriptionId)
	order, err := s.uowFactory.NewUnitOfWork(ctx).PayPalOrderRepository().FindOne(ctx, specification.ByOrderID{OrderID: subscriptionId})
	if err != nil {
		return nil, storageError(err)
	}
	if order == nil || order.UserId != userId || order.Intent != paypal.IntentSubscription {
		return nil, apperror.NotFound(apperror.CodeOrderNotFound, "subscription not found")
	}
	switch order.Status {
	case entity.PayPalOrderStatusCompleted:
		return s.alreadyApproved(ctx, order)
	case entity.PayPalOrderStatusFailed:
		return nil, apperror.Conflict(apperror.CodeOrderState, "subscription is already FAILED")
	}

	product := s.verification.ClassifyProduct(order.ProductId)
	if product.Type != entity.ProductTypeVip {
		return nil, apperror.Validation(apperror.CodeUnknownProduct, "unknown product "+order.ProductId)
	}

	remote, err := s.provider.GetSubscription(ctx, subscriptionId)
	if err != nil {
		s.log.Warn("SUBSCRIPTION", "Subscription lookup failed", map[string]interface{}{"subscription_id": subscriptionId, "error": err})
		return nil, providerError(err)
	}
	if remote.Status != paypal.SubscriptionStatusActive {
		return nil, apperror.Conflict(apperror.CodeOrderState, "subscription is "+remote.Status)
	}
	expectedPlan := s.cfg.PlanIDs[string(product.Plan)]
	if remote.PlanID != expectedPlan || (remote.CustomID != "" && remote.CustomID != order.ProductId) {
		failOrder(ctx, s.uowFactory, s.cfg.TxTimeout, s.log, subscriptionId, "provider subscription does not match the order")
		s.audit.Warn("SUBSCRIPTION", "Rejected subscription approval", map[string]interface{}{
			"subscription_id": subscriptionId, "code": apperror.CodeProductMismatch,
			"expected_plan_id": expectedPlan, "received_plan_id": remote.PlanID,
			"order_product": order.ProductId, "custom_id": remote.CustomID,
		})
		return nil, apperror.Integrity(apperror.CodeProductMismatch, "provider subscription does not match the order")
	}
	raw, err := json.Marshal(remote)
	if err != nil {
		return nil, err
	}

	var (
		duplicate bool
		res       *VipResult
		now       time.Time
	)
	err = inTransaction(ctx, s.uowFactory, s.cfg.TxTimeout, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		locked, err := uow.PayPalOrderRepository().FindForUpdate(ctx, subscriptionId)
		if err != nil {
			return err
		}
		if locked == nil {
			return apperror.NotFound(apperror.CodeOrderNotFound, "subscription not found")
		}
		if locked.Status == entity.PayPalOrderStatusCompleted {
			duplicate = true
			return nil
		}

		now = s.now()
		if err := uow.PayPalOrderRepository().MarkCompleted(ctx, subscriptionId, raw, now); err != nil {
			return err
		}
		ref := subscriptionId
		res, err = s.vip.ApplyActivation(ctx, uow, VipActivation{
			UserId:        locked.UserId,
			Plan:          product.Plan,
			Token:         PaymentIntentToken(subscriptionId),
			OrderRef:      &ref,
			Amount:        locked.Amount,
			PaymentMethod: entity.PaymentMethodPayPal,
		})
		return err
	})
	if err != nil {
		s.log.Error("SUBSCRIPTION", "Failed to approve subscription", map[string]interface{}{"subscription_id": subscriptionId, "error": err})
		return nil, err
	}
	if duplicate {
		return s.alreadyApproved(ctx, order)
	}

	metrics.VipActivationsTotal.WithLabelValues(string(res.PlanType)).Inc()
	s.audit.Info("SUBSCRIPTION", "Subscription approved", map[string]interface{}{
		"subscription_id": subscriptionId, "user_id": userId.String(), "plan": string(res.PlanType),
		"amount": order.Amount.StringFixed(2), "currency": order.Currency,
	})

	expiresAt := res.ExpiresAt
	s.notifier.Notify(ctx, dto.PaymentNotification{
		EventId:    uuid.NewString(),
		Kind:       events.TypeVipActivated,
		UserId:     userId,
		OrderId:    subscriptionId,
		Plan:       string(res.PlanType),
		ExpiresAt:  &expiresAt,
		OccurredAt: now,
	})

	return &dto.ApproveSubscriptionResponse{
		SubscriptionId: subscriptionId,
		Status:         WebhookProcessed,
		Plan:           string(res.PlanType),
		ExpiresAt:      &expiresAt,
	}, nil
}

func (s *subscriptionCheckoutService) alreadyApproved(ctx context.Context, order *entity.PayPalOrder) (*dto.ApproveSubscriptionResponse, error) {
	status, err := s.vip.GetStatus(ctx, order.UserId)
	if err != nil {
		return nil, err
	}
	out := &dto.ApproveSubscriptionResponse{SubscriptionId: order.OrderId, Status: WebhookDuplicate, ExpiresAt: status.ExpiresAt}
	if status.PlanType != nil {
		out.Plan = string(*status.PlanType)
	}
	return out, nil
}

// VerifyPlans checks the configured product and billing plans against the
// provider and the catalogue. Rejections are reported per item; only an
// unreachable provider fails the whole call.
func (s *subscriptionCheckoutService) VerifyPlans(ctx context.Context) (*dto.VerifyPlansResponse, error) {
	out := &dto.VerifyPlansResponse{
		Environment: s.cfg.Environment,
		Product:     dto.ProductCheck{ProductId: s.cfg.ProductID},
		Plans:       make([]dto.PlanCheck, 0, len(subscriptionPlans)),
	}

	if s.cfg.ProductID == "" {
		out.Product.Error = "product id not configured"
	} else {
		product, err := s.provider.GetProduct(ctx, s.cfg.ProductID)
		switch {
		case paypal.IsRetryable(err):
			return nil, providerError(err)
		case err != nil:
			out.Product.Error = err.Error()
		default:
			out.Product.Exists, out.Product.Name = true, product.Name
		}
	}

	for _, plan := range subscriptionPlans {
		check := dto.PlanCheck{Plan: string(plan), PlanId: s.cfg.PlanIDs[string(plan)]}
		if check.PlanId == "" {
			check.Error = "plan id not configured"
			out.Plans = append(out.Plans, check)
			continue
		}

		remote, err := s.provider.GetPlan(ctx, check.PlanId)
		if paypal.IsRetryable(err) {
			return nil, providerError(err)
		}
		if err != nil {
			check.Error = err.Error()
			out.Plans = append(out.Plans, check)
			continue
		}

		check.Exists, check.Status, check.Name, check.ProductId = true, remote.Status, remote.Name, remote.ProductID
		if money, freq := remote.RegularPrice(); money != nil {
			check.Price, check.Currency, check.Interval = money.Value, money.CurrencyCode, freq.IntervalUnit
			if price, ok := s.vipPrice(plan); ok {
				check.MatchesCatalogue = s.verification.ValidateAmount(price.Amount, money.Value, price.Currency, money.CurrencyCode) == nil
			}
		}
		out.Plans = append(out.Plans, check)
	}
	return out, nil
}
