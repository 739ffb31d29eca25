package service

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"jeezy-monetization-be/internal/dto"
	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/pkg/apperror"
	"jeezy-monetization-be/internal/pkg/logger"
	"jeezy-monetization-be/internal/repository/specification"
	"jeezy-monetization-be/pkg/paypal"
	"jeezy-monetization-be/pkg/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPlanIDs = map[string]string{
	"MONTHLY":   "P-MONTHLY",
	"QUARTERLY": "P-QUARTERLY",
	"ANNUAL":    "P-ANNUAL",
}

type stubSubscriptionProvider struct {
	mu        sync.Mutex
	created   *paypal.Subscription
	createErr error
	remote    *paypal.Subscription
	getErr    error
	plans     map[string]*paypal.Plan
	planErr   error
	product   *paypal.Product
	requests  []paypal.CreateSubscriptionRequest
	lookups   int
}

func (p *stubSubscriptionProvider) CreateSubscription(ctx context.Context, req paypal.CreateSubscriptionRequest) (*paypal.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.createErr != nil {
		return nil, p.createErr
	}
	return p.created, nil
}

func (p *stubSubscriptionProvider) GetSubscription(ctx context.Context, subscriptionID string) (*paypal.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lookups++
	if p.getErr != nil {
		return nil, p.getErr
	}
	return p.remote, nil
}

func (p *stubSubscriptionProvider) GetPlan(ctx context.Context, planID string) (*paypal.Plan, error) {
	if p.planErr != nil {
		return nil, p.planErr
	}
	plan, ok := p.plans[planID]
	if !ok {
		return nil, &paypal.APIError{StatusCode: http.StatusNotFound, Name: "RESOURCE_NOT_FOUND"}
	}
	return plan, nil
}

func (p *stubSubscriptionProvider) GetProduct(ctx context.Context, productID string) (*paypal.Product, error) {
	if p.product == nil {
		return nil, &paypal.APIError{StatusCode: http.StatusNotFound, Name: "RESOURCE_NOT_FOUND"}
	}
	return p.product, nil
}

type subscriptionFixture struct {
	*testEnv
	provider *stubSubscriptionProvider
	notifier *recordingNotifier
	audit    *logger.ZapLogger
	service  ISubscriptionCheckoutService
}

func newSubscriptionFixture(t *testing.T, provider *stubSubscriptionProvider) *subscriptionFixture {
	t.Helper()
	env := newTestEnv(t)
	f := &subscriptionFixture{
		testEnv:  env,
		provider: provider,
		notifier: &recordingNotifier{},
		audit:    logger.NewIsolatedLogger(filepath.Join(t.TempDir(), "audit.log")),
	}
	f.service = NewSubscriptionCheckoutService(
		SubscriptionCheckoutConfig{
			PlanIDs:     testPlanIDs,
			ProductID:   "PROD-VIP",
			Environment: "SANDBOX",
			ReturnURL:   "https://app.example.com/return",
			BrandName:   "Jeezy",
		},
		env.factory,
		provider,
		pricing.DefaultCatalog(),
		NewPaymentVerificationService(&stubVerifier{}),
		env.vip,
		f.notifier,
		env.log,
		f.audit,
		env.clock.Now,
	)
	return f
}

func pendingSubscription(id, planId string) *paypal.Subscription {
	return &paypal.Subscription{
		ID:     id,
		Status: "APPROVAL_PENDING",
		PlanID: planId,
		Links:  []paypal.Link{{Href: "https://www.sandbox.paypal.com/webapps/billing/subscriptions?ba_token=" + id, Rel: "approve"}},
	}
}

func activeSubscription(id, planId, customId string) *paypal.Subscription {
	return &paypal.Subscription{ID: id, Status: paypal.SubscriptionStatusActive, PlanID: planId, CustomID: customId}
}

func TestCreateSubscriptionStoresOrderAndPendingIntent(t *testing.T) {
	f := newSubscriptionFixture(t, &stubSubscriptionProvider{created: pendingSubscription("I-SUB1", "P-ANNUAL")})
	ctx := context.Background()
	userId := f.seedUser(t, entity.UserRoleUser)

	res, err := f.service.CreateSubscription(ctx, userId, &dto.CreateSubscriptionRequest{Plan: "annual"})
	require.NoError(t, err)
	assert.Equal(t, "I-SUB1", res.SubscriptionId)
	assert.Equal(t, "P-ANNUAL", res.PlanId)
	assert.Equal(t, "ANNUAL", res.Plan)
	assert.Equal(t, "vip_annual_usd", res.ProductId)
	assert.Equal(t, "79.99", res.Amount.StringFixed(2))
	assert.Contains(t, res.ApproveUrl, "ba_token=I-SUB1")

	require.Len(t, f.provider.requests, 1)
	assert.Equal(t, "P-ANNUAL", f.provider.requests[0].PlanID)
	assert.Equal(t, "vip_annual_usd", f.provider.requests[0].CustomID)
	assert.NotEmpty(t, f.provider.requests[0].RequestID)

	uow := f.factory.NewUnitOfWork(ctx)
	order, err := uow.PayPalOrderRepository().FindOne(ctx, specification.ByOrderID{OrderID: "I-SUB1"})
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, paypal.IntentSubscription, order.Intent)
	assert.Equal(t, entity.PayPalOrderStatusCreated, order.Status)

	intent, err := uow.TransactionRepository().FindOne(ctx, specification.ByTransactionID{TransactionID: PaymentIntentToken("I-SUB1")})
	require.NoError(t, err)
	require.NotNil(t, intent)
	assert.Equal(t, entity.TransactionStatusPending, intent.Status)
	assert.Equal(t, entity.TransactionTypeVipSubscription, intent.TransactionType)
	assert.Equal(t, "P-ANNUAL", intent.Metadata["planId"])
}

func TestCreateSubscriptionRejections(t *testing.T) {
	ctx := context.Background()

	f := newSubscriptionFixture(t, &stubSubscriptionProvider{created: pendingSubscription("I-SUB2", "P-MONTHLY")})
	userId := f.seedUser(t, entity.UserRoleUser)

	_, err := f.service.CreateSubscription(ctx, userId, &dto.CreateSubscriptionRequest{Plan: "weekly"})
	assert.True(t, apperror.Is(err, apperror.CodeInvalidPlan))

	f.provider.createErr = paypal.ErrTimeout
	_, err = f.service.CreateSubscription(ctx, userId, &dto.CreateSubscriptionRequest{Plan: "monthly"})
	assert.Equal(t, apperror.KindTransient, apperror.KindOf(err))

	f.provider.createErr = nil
	f.provider.created = &paypal.Subscription{ID: "I-NOLINK"}
	_, err = f.service.CreateSubscription(ctx, userId, &dto.CreateSubscriptionRequest{Plan: "monthly"})
	assert.True(t, apperror.Is(err, apperror.CodeProviderRejected))

	count, err := f.factory.NewUnitOfWork(ctx).TransactionRepository().Count(ctx, specification.UserOwnedBy{UserID: userId})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateSubscriptionWithoutConfiguredPlan(t *testing.T) {
	env := newTestEnv(t)
	provider := &stubSubscriptionProvider{}
	svc := NewSubscriptionCheckoutService(
		SubscriptionCheckoutConfig{PlanIDs: map[string]string{}},
		env.factory, provider, pricing.DefaultCatalog(), NewPaymentVerificationService(&stubVerifier{}),
		env.vip, &recordingNotifier{}, env.log, env.log, env.clock.Now,
	)
	userId := env.seedUser(t, entity.UserRoleUser)

	_, err := svc.CreateSubscription(context.Background(), userId, &dto.CreateSubscriptionRequest{Plan: "monthly"})
	assert.True(t, apperror.Is(err, apperror.CodePlanNotConfigured))
	assert.Empty(t, provider.requests)
}

func TestApproveSubscriptionActivatesOnce(t *testing.T) {
	f := newSubscriptionFixture(t, &stubSubscriptionProvider{
		created: pendingSubscription("I-SUB3", "P-MONTHLY"),
		remote:  activeSubscription("I-SUB3", "P-MONTHLY", "vip_monthly_usd"),
	})
	ctx := context.Background()
	userId := f.seedUser(t, entity.UserRoleUser)

	_, err := f.service.CreateSubscription(ctx, userId, &dto.CreateSubscriptionRequest{Plan: "MONTHLY"})
	require.NoError(t, err)

	res, err := f.service.ApproveSubscription(ctx, userId, "I-SUB3")
	require.NoError(t, err)
	assert.Equal(t, WebhookProcessed, res.Status)
	assert.Equal(t, "MONTHLY", res.Plan)
	require.NotNil(t, res.ExpiresAt)
	assert.Equal(t, testNow.AddDate(0, 1, 0), *res.ExpiresAt)
	assert.Equal(t, entity.UserRoleVIP, f.user(t, userId).Role)
	assert.Equal(t, 1, f.notifier.count())

	f.clock.Advance(24 * time.Hour)
	again, err := f.service.ApproveSubscription(ctx, userId, "I-SUB3")
	require.NoError(t, err)
	assert.Equal(t, WebhookDuplicate, again.Status)
	assert.Equal(t, *res.ExpiresAt, *again.ExpiresAt)
	assert.Equal(t, 1, f.notifier.count())

	uow := f.factory.NewUnitOfWork(ctx)
	entries, err := uow.TransactionRepository().FindAll(ctx, specification.UserOwnedBy{UserID: userId})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, PaymentIntentToken("I-SUB3"), entries[0].TransactionId)
	assert.Equal(t, entity.TransactionStatusCompleted, entries[0].Status)

	order, err := uow.PayPalOrderRepository().FindOne(ctx, specification.ByOrderID{OrderID: "I-SUB3"})
	require.NoError(t, err)
	assert.Equal(t, entity.PayPalOrderStatusCompleted, order.Status)
	assert.NotEmpty(t, order.RawWebhookData)
}

func TestConcurrentApprovalsActivateOnce(t *testing.T) {
	f := newSubscriptionFixture(t, &stubSubscriptionProvider{
		created: pendingSubscription("I-SUB4", "P-QUARTERLY"),
		remote:  activeSubscription("I-SUB4", "P-QUARTERLY", "vip_quarterly_usd"),
	})
	ctx := context.Background()
	userId := f.seedUser(t, entity.UserRoleUser)
	_, err := f.service.CreateSubscription(ctx, userId, &dto.CreateSubscriptionRequest{Plan: "quarterly"})
	require.NoError(t, err)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		processed int
		duplicate int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.service.ApproveSubscription(ctx, userId, "I-SUB4")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			switch res.Status {
			case WebhookProcessed:
				processed++
			case WebhookDuplicate:
				duplicate++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, processed)
	assert.Equal(t, workers-1, duplicate)
	assert.Equal(t, 1, f.notifier.count())

	count, err := f.factory.NewUnitOfWork(ctx).TransactionRepository().Count(ctx, specification.UserOwnedBy{UserID: userId})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestApproveSubscriptionNotYetActive(t *testing.T) {
	f := newSubscriptionFixture(t, &stubSubscriptionProvider{created: pendingSubscription("I-SUB5", "P-MONTHLY")})
	ctx := context.Background()
	userId := f.seedUser(t, entity.UserRoleUser)
	_, err := f.service.CreateSubscription(ctx, userId, &dto.CreateSubscriptionRequest{Plan: "monthly"})
	require.NoError(t, err)

	f.provider.remote = pendingSubscription("I-SUB5", "P-MONTHLY")
	_, err = f.service.ApproveSubscription(ctx, userId, "I-SUB5")
	assert.True(t, apperror.Is(err, apperror.CodeOrderState))

	f.provider.remote, f.provider.getErr = nil, paypal.ErrUnavailable
	_, err = f.service.ApproveSubscription(ctx, userId, "I-SUB5")
	assert.Equal(t, apperror.KindTransient, apperror.KindOf(err))

	intent, err := f.factory.NewUnitOfWork(ctx).TransactionRepository().FindOne(ctx, specification.ByTransactionID{TransactionID: PaymentIntentToken("I-SUB5")})
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionStatusPending, intent.Status)
	assert.Equal(t, entity.UserRoleUser, f.user(t, userId).Role)
}

func TestApproveSubscriptionOwnership(t *testing.T) {
	f := newSubscriptionFixture(t, &stubSubscriptionProvider{created: pendingSubscription("I-SUB6", "P-MONTHLY")})
	ctx := context.Background()
	owner := f.seedUser(t, entity.UserRoleUser)
	stranger := f.seedUser(t, entity.UserRoleUser)
	_, err := f.service.CreateSubscription(ctx, owner, &dto.CreateSubscriptionRequest{Plan: "monthly"})
	require.NoError(t, err)

	_, err = f.service.ApproveSubscription(ctx, stranger, "I-SUB6")
	assert.True(t, apperror.Is(err, apperror.CodeOrderNotFound))
	_, err = f.service.ApproveSubscription(ctx, owner, "I-UNKNOWN")
	assert.True(t, apperror.Is(err, apperror.CodeOrderNotFound))
	assert.Zero(t, f.provider.lookups)
}

func TestApproveSubscriptionPlanMismatchIsRejectedAndAudited(t *testing.T) {
	f := newSubscriptionFixture(t, &stubSubscriptionProvider{
		created: pendingSubscription("I-SUB7", "P-MONTHLY"),
		remote:  activeSubscription("I-SUB7", "P-SOMETHING-CHEAPER", "vip_monthly_usd"),
	})
	ctx := context.Background()
	userId := f.seedUser(t, entity.UserRoleUser)
	_, err := f.service.CreateSubscription(ctx, userId, &dto.CreateSubscriptionRequest{Plan: "monthly"})
	require.NoError(t, err)

	_, err = f.service.ApproveSubscription(ctx, userId, "I-SUB7")
	assert.True(t, apperror.Is(err, apperror.CodeProductMismatch))
	assert.Equal(t, entity.UserRoleUser, f.user(t, userId).Role)

	uow := f.factory.NewUnitOfWork(ctx)
	order, err := uow.PayPalOrderRepository().FindOne(ctx, specification.ByOrderID{OrderID: "I-SUB7"})
	require.NoError(t, err)
	assert.Equal(t, entity.PayPalOrderStatusFailed, order.Status)

	_, err = f.service.ApproveSubscription(ctx, userId, "I-SUB7")
	assert.True(t, apperror.Is(err, apperror.CodeOrderState))

	require.NoError(t, f.audit.Sync())
	var entries []logger.LogEntry
	require.Eventually(t, func() bool {
		entries, err = f.audit.GetLogs("WARN", 10, 0)
		return err == nil && len(entries) == 1
	}, time.Second, 20*time.Millisecond)
	assert.Equal(t, "Rejected subscription approval", entries[0].Message)
}

func TestVerifyPlans(t *testing.T) {
	monthly := &paypal.Plan{
		ID: "P-MONTHLY", ProductID: "PROD-VIP", Name: "VIP Monthly", Status: "ACTIVE",
		BillingCycles: []paypal.BillingCycle{{
			Frequency:     paypal.Frequency{IntervalUnit: "MONTH", IntervalCount: 1},
			TenureType:    "REGULAR",
			Sequence:      1,
			PricingScheme: paypal.PricingScheme{FixedPrice: paypal.Money{CurrencyCode: "USD", Value: "9.99"}},
		}},
	}
	annual := &paypal.Plan{
		ID: "P-ANNUAL", ProductID: "PROD-VIP", Name: "VIP Annual", Status: "ACTIVE",
		BillingCycles: []paypal.BillingCycle{{
			Frequency:     paypal.Frequency{IntervalUnit: "YEAR", IntervalCount: 1},
			TenureType:    "REGULAR",
			Sequence:      1,
			PricingScheme: paypal.PricingScheme{FixedPrice: paypal.Money{CurrencyCode: "USD", Value: "50.00"}},
		}},
	}
	f := newSubscriptionFixture(t, &stubSubscriptionProvider{
		plans:   map[string]*paypal.Plan{"P-MONTHLY": monthly, "P-ANNUAL": annual},
		product: &paypal.Product{ID: "PROD-VIP", Name: "Jeezy VIP"},
	})

	res, err := f.service.VerifyPlans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SANDBOX", res.Environment)
	assert.True(t, res.Product.Exists)
	assert.Equal(t, "Jeezy VIP", res.Product.Name)

	require.Len(t, res.Plans, 3)
	assert.Equal(t, "MONTHLY", res.Plans[0].Plan)
	assert.True(t, res.Plans[0].Exists)
	assert.True(t, res.Plans[0].MatchesCatalogue)
	assert.Equal(t, "MONTH", res.Plans[0].Interval)

	assert.Equal(t, "QUARTERLY", res.Plans[1].Plan)
	assert.False(t, res.Plans[1].Exists)
	assert.NotEmpty(t, res.Plans[1].Error)

	assert.Equal(t, "ANNUAL", res.Plans[2].Plan)
	assert.True(t, res.Plans[2].Exists)
	assert.False(t, res.Plans[2].MatchesCatalogue)
	assert.Equal(t, "50.00", res.Plans[2].Price)
}

func TestVerifyPlansProviderUnavailable(t *testing.T) {
	f := newSubscriptionFixture(t, &stubSubscriptionProvider{
		product: &paypal.Product{ID: "PROD-VIP"},
		planErr: paypal.ErrTimeout,
	})

	_, err := f.service.VerifyPlans(context.Background())
	assert.Equal(t, apperror.KindTransient, apperror.KindOf(err))
}
