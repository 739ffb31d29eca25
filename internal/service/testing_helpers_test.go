package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"jeezy-monetization-be/internal/dto"
	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/pkg/logger"
	"jeezy-monetization-be/internal/repository/memory"
	"jeezy-monetization-be/internal/repository/specification"
	"jeezy-monetization-be/internal/repository/unitofwork"
	"jeezy-monetization-be/pkg/paypal"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)

// testClock is a settable clock shared by every service under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock { return &testClock{now: testNow} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	factory unitofwork.RepositoryFactory
	clock   *testClock
	log     logger.ILogger
	jeez    IJeezService
	vip     IVipService
	ledger  ILedgerService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	factory := memory.NewRepositoryFactory(memory.NewStore())
	clock := newTestClock()
	log := logger.NewNopLogger()
	return &testEnv{
		factory: factory,
		clock:   clock,
		log:     log,
		jeez:    NewJeezService(factory, log, time.Second, clock.Now),
		vip:     NewVipService(factory, log, time.Second, clock.Now),
		ledger:  NewLedgerService(factory, log, clock.Now),
	}
}

func (e *testEnv) seedUser(t *testing.T, role entity.UserRole) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	email := uuid.NewString() + "@example.com"
	user := &entity.User{Id: uuid.New(), Email: &email, FullName: "Test User", Role: role, IsActive: true}
	require.NoError(t, e.factory.NewUnitOfWork(ctx).UserRepository().Create(ctx, user))
	return user.Id
}

func (e *testEnv) user(t *testing.T, id uuid.UUID) *entity.User {
	t.Helper()
	ctx := context.Background()
	u, err := e.factory.NewUnitOfWork(ctx).UserRepository().FindOne(ctx, specification.ByID{ID: id})
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

type stubVerifier struct {
	err   error
	calls int
}

func (v *stubVerifier) Verify(ctx context.Context, webhookID string, body []byte, h paypal.TransmissionHeaders) error {
	v.calls++
	return v.err
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []dto.PaymentNotification
}

func (n *recordingNotifier) Notify(ctx context.Context, p dto.PaymentNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, p)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type stubLocker struct {
	err      error
	released int
}

func (l *stubLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	return func() { l.released++ }, nil
}

type stubProvider struct {
	order      *paypal.Order
	createErr  error
	captured   *paypal.Order
	captureErr error
	requests   []paypal.CreateOrderRequest
}

func (p *stubProvider) CreateOrder(ctx context.Context, req paypal.CreateOrderRequest) (*paypal.Order, error) {
	p.requests = append(p.requests, req)
	if p.createErr != nil {
		return nil, p.createErr
	}
	return p.order, nil
}

func (p *stubProvider) CaptureOrder(ctx context.Context, orderID string) (*paypal.Order, error) {
	if p.captureErr != nil {
		return nil, p.captureErr
	}
	return p.captured, nil
}
