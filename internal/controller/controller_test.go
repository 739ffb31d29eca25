package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jeezy-monetization-be/internal/dto"
	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/pkg/logger"
	"jeezy-monetization-be/internal/pkg/serverutils"
	"jeezy-monetization-be/internal/repository/memory"
	"jeezy-monetization-be/internal/repository/unitofwork"
	"jeezy-monetization-be/internal/service"
	"jeezy-monetization-be/pkg/paypal"
	"jeezy-monetization-be/pkg/pricing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-test-secret"

type apiEnvelope struct {
	Success bool                   `json:"success"`
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Error   *serverutils.ErrorBody `json:"error"`
}

type stubWebhookService struct {
	body    []byte
	headers paypal.TransmissionHeaders
	res     *dto.WebhookResponse
	err     error
}

func (s *stubWebhookService) HandlePayPal(ctx context.Context, rawBody []byte, h paypal.TransmissionHeaders) (*dto.WebhookResponse, error) {
	s.body = rawBody
	s.headers = h
	return s.res, s.err
}

type stubLogReader struct {
	level         string
	limit, offset int
}

func (r *stubLogReader) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	r.level, r.limit, r.offset = level, limit, offset
	return []logger.LogEntry{}, nil
}

type stubSubscriptionProvider struct {
	created *paypal.Subscription
	plans   map[string]*paypal.Plan
	product *paypal.Product
}

func (p *stubSubscriptionProvider) CreateSubscription(ctx context.Context, req paypal.CreateSubscriptionRequest) (*paypal.Subscription, error) {
	return p.created, nil
}

func (p *stubSubscriptionProvider) GetSubscription(ctx context.Context, subscriptionID string) (*paypal.Subscription, error) {
	return nil, &paypal.APIError{StatusCode: http.StatusNotFound, Name: "RESOURCE_NOT_FOUND"}
}

func (p *stubSubscriptionProvider) GetPlan(ctx context.Context, planID string) (*paypal.Plan, error) {
	if plan, ok := p.plans[planID]; ok {
		return plan, nil
	}
	return nil, &paypal.APIError{StatusCode: http.StatusNotFound, Name: "RESOURCE_NOT_FOUND"}
}

func (p *stubSubscriptionProvider) GetProduct(ctx context.Context, productID string) (*paypal.Product, error) {
	if p.product == nil {
		return nil, &paypal.APIError{StatusCode: http.StatusNotFound, Name: "RESOURCE_NOT_FOUND"}
	}
	return p.product, nil
}

type discardNotifier struct{}

func (discardNotifier) Notify(ctx context.Context, n dto.PaymentNotification) {}

type stubHealth struct{ err error }

func (h stubHealth) Ping(ctx context.Context) error { return h.err }

type apiFixture struct {
	app     *fiber.App
	factory unitofwork.RepositoryFactory
	jeez    service.IJeezService
	webhook *stubWebhookService
	audit   *stubLogReader
	paypal  *stubSubscriptionProvider
}

func newAPIFixture(t *testing.T, health service.IHealthService) *apiFixture {
	t.Helper()
	factory := memory.NewRepositoryFactory(memory.NewStore())
	log := logger.NewNopLogger()

	jeez := service.NewJeezService(factory, log, time.Second, nil)
	vip := service.NewVipService(factory, log, time.Second, nil)
	ledger := service.NewLedgerService(factory, log, nil)
	users := service.NewUserService(factory, vip, jeez)
	auth := service.NewAuthService(service.AuthConfig{JWTSecret: testSecret}, factory, log, nil)
	checkout := service.NewCheckoutService(service.CheckoutConfig{}, factory, nil, pricing.DefaultCatalog(), nil, log, log)

	f := &apiFixture{
		factory: factory,
		jeez:    jeez,
		webhook: &stubWebhookService{res: &dto.WebhookResponse{Status: service.WebhookProcessed}},
		audit:   &stubLogReader{},
		paypal:  &stubSubscriptionProvider{},
	}
	subscriptions := service.NewSubscriptionCheckoutService(
		service.SubscriptionCheckoutConfig{
			PlanIDs:     map[string]string{"MONTHLY": "P-MONTHLY", "QUARTERLY": "P-QUARTERLY", "ANNUAL": "P-ANNUAL"},
			ProductID:   "PROD-VIP",
			Environment: "SANDBOX",
		},
		factory,
		f.paypal,
		pricing.DefaultCatalog(),
		service.NewPaymentVerificationService(nil),
		vip,
		discardNotifier{},
		log,
		log,
		nil,
	)

	app := fiber.New(fiber.Config{ErrorHandler: serverutils.NewErrorHandler(log)})
	api := app.Group("/api")
	jwtMiddleware := serverutils.NewJwtMiddleware(testSecret, "")
	adminOnly := serverutils.RequireRole(users, entity.UserRoleAdmin)

	NewAuthController(auth, "", false).RegisterRoutes(api)
	NewUserController(users).RegisterRoutes(api, jwtMiddleware)
	NewJeezController(jeez, ledger).RegisterRoutes(api, jwtMiddleware)
	NewVipController(vip).RegisterRoutes(api, jwtMiddleware)
	NewPaymentController(checkout, subscriptions).RegisterRoutes(api, jwtMiddleware, adminOnly)
	NewWebhookController(f.webhook).RegisterRoutes(api)
	NewAdminController(jeez, vip, ledger, f.audit).RegisterRoutes(api, jwtMiddleware, adminOnly)
	NewHealthController(health).RegisterRoutes(api)

	f.app = app
	return f
}

func (f *apiFixture) seedUser(t *testing.T, role entity.UserRole) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	email := uuid.NewString() + "@example.com"
	user := &entity.User{Id: uuid.New(), Email: &email, FullName: "Api User", Role: role, IsActive: true}
	uow := f.factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.UserRepository().Create(ctx, user))
	require.NoError(t, uow.WalletRepository().EnsureExists(ctx, user.Id))
	return user.Id
}

func bearerFor(t *testing.T, userId uuid.UUID) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userId.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}, bearer string, headers map[string]string) (*http.Response, apiEnvelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env apiEnvelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func newRawRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
