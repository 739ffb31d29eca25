package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"jeezy-monetization-be/internal/config"
	"jeezy-monetization-be/internal/controller"
	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/pkg/locker"
	"jeezy-monetization-be/internal/pkg/logger"
	"jeezy-monetization-be/internal/pkg/mailer"
	"jeezy-monetization-be/internal/pkg/metrics"
	"jeezy-monetization-be/internal/pkg/serverutils"
	"jeezy-monetization-be/internal/repository/memory"
	"jeezy-monetization-be/internal/repository/unitofwork"
	"jeezy-monetization-be/internal/service"
	"jeezy-monetization-be/pkg/database"
	"jeezy-monetization-be/pkg/events"
	"jeezy-monetization-be/pkg/paypal"
	"jeezy-monetization-be/pkg/pricing"

	pktNats "jeezy-monetization-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController    controller.IAuthController
	UserController    controller.IUserController
	JeezController    controller.IJeezController
	VipController     controller.IVipController
	PaymentController controller.IPaymentController
	WebhookController controller.IWebhookController
	AdminController   controller.IAdminController
	HealthController  controller.IHealthController

	// Middleware
	AuthMiddleware  fiber.Handler
	AdminMiddleware fiber.Handler

	// Background Services (Exposed for main.go to run)
	NotificationConsumer service.INotificationConsumer
	PaymentEventAuditor  service.IPaymentEventAuditor

	Logger logger.ILogger
	Audit  logger.ILogger

	closers []func()
}

// Close releases the buses and storage in reverse order of opening.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func (c *Container) onClose(fn func()) {
	c.closers = append(c.closers, fn)
}

func openStorage(cfg *config.Config, c *Container) (unitofwork.RepositoryFactory, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Println("[WARN] DB_DRIVER=memory: state is lost on restart")
		return memory.NewRepositoryFactory(memory.NewStore()), nil
	}

	db, err := database.NewGormDB(database.GormConfig{
		DSN:   cfg.Database.Connection,
		Quiet: cfg.App.IsProduction(),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to GORM DB: %w", err)
	}
	c.onClose(func() { closeDB(db) })

	return unitofwork.NewRepositoryFactory(db, unitofwork.TxTimeouts{
		LockTimeout:      cfg.Database.LockTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}), nil
}

func closeDB(db *gorm.DB) {
	if err := database.Close(db); err != nil {
		log.Printf("[WARN] Failed to close database: %v", err)
	}
}

// openLocker returns the redis locker, or a no-op one when redis is not
// configured or unreachable.
func openLocker(cfg *config.Config, c *Container) locker.Locker {
	if cfg.App.RedisURL == "" {
		return locker.NoopLocker{}
	}
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return locker.NoopLocker{}
	}
	c.onClose(func() { _ = rdb.Close() })
	return locker.NewRedisLocker(rdb)
}

func NewContainer(cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.IsProduction())
	auditLogger := logger.NewIsolatedLogger(cfg.App.PaymentAuditLogPath)
	c.Logger, c.Audit = sysLogger, auditLogger
	c.onClose(func() {
		_ = auditLogger.Sync()
		_ = sysLogger.Sync()
	})

	uowFactory, err := openStorage(cfg, c)
	if err != nil {
		c.Close()
		return nil, err
	}

	var emailService mailer.IEmailService
	if cfg.SMTP.Host != "" {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.SenderName,
			cfg.App.ClientURL,
		)
	}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.onClose(func() { _ = pubSub.Close() })

	var eventPublisher events.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
			c.onClose(natsPub.Close)
		}

		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			c.PaymentEventAuditor = service.NewPaymentEventAuditor(natsSub, auditLogger)
			c.onClose(natsSub.Close)
		}
	}

	deliveryLock := openLocker(cfg, c)

	// 3. Provider
	catalog := pricing.DefaultCatalog()
	paypalClient := paypal.NewClient(paypal.Config{
		BaseURL:      cfg.PayPal.APIBaseURL,
		ClientID:     cfg.PayPal.ClientID,
		ClientSecret: cfg.PayPal.ClientSecret,
		Timeout:      cfg.PayPal.HTTPTimeout,
		OnCall: func(operation string, elapsed time.Duration, _ error) {
			metrics.ProviderCallDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
		},
	})
	verifier := paypal.NewSignatureVerifier(
		paypal.NewHTTPCertFetcher(cfg.PayPal.HTTPTimeout),
		memory.NewCertificateCache(cfg.PayPal.CertCacheTTL),
	)

	// 4. Services
	txTimeout := cfg.Database.StatementTimeout
	jeezService := service.NewJeezService(uowFactory, sysLogger, txTimeout, nil)
	vipService := service.NewVipService(uowFactory, sysLogger, txTimeout, nil)
	ledgerService := service.NewLedgerService(uowFactory, sysLogger, nil)
	userService := service.NewUserService(uowFactory, vipService, jeezService)
	authService := service.NewAuthService(service.AuthConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
	}, uowFactory, sysLogger, nil)
	verificationService := service.NewPaymentVerificationService(verifier)

	notifier := service.NewNotificationPublisher(cfg.App.NotificationTopic, pubSub, sysLogger)
	c.NotificationConsumer = service.NewNotificationConsumer(
		pubSub,
		cfg.App.NotificationTopic,
		uowFactory,
		emailService,
		eventPublisher,
		sysLogger,
	)

	checkoutService := service.NewCheckoutService(service.CheckoutConfig{
		ReturnURL: cfg.PayPal.ReturnURL,
		CancelURL: cfg.PayPal.CancelURL,
		BrandName: cfg.PayPal.BrandName,
		TxTimeout: txTimeout,
	}, uowFactory, paypalClient, catalog, verificationService, sysLogger, auditLogger)

	subscriptionCheckout := service.NewSubscriptionCheckoutService(service.SubscriptionCheckoutConfig{
		PlanIDs:     cfg.PayPal.PlanIDs,
		ProductID:   cfg.PayPal.ProductID,
		Environment: cfg.PayPal.Environment(),
		ReturnURL:   cfg.PayPal.ReturnURL,
		CancelURL:   cfg.PayPal.CancelURL,
		BrandName:   cfg.PayPal.BrandName,
		TxTimeout:   txTimeout,
	}, uowFactory, paypalClient, catalog, verificationService, vipService, notifier, sysLogger, auditLogger, nil)

	webhookService := service.NewWebhookService(service.WebhookConfig{
		WebhookID: cfg.PayPal.WebhookID,
		LockTTL:   cfg.PayPal.LockTTL,
		TxTimeout: txTimeout,
	}, uowFactory, verificationService, catalog, jeezService, vipService, deliveryLock, notifier, sysLogger, auditLogger, nil)

	healthService := service.NewHealthService(uowFactory)

	// 5. Middleware
	c.AuthMiddleware = serverutils.NewJwtMiddleware(cfg.Auth.JWTSecret, cfg.Auth.CookieName)
	c.AdminMiddleware = serverutils.RequireRole(userService, entity.UserRoleAdmin)

	// 6. Controllers
	c.AuthController = controller.NewAuthController(authService, cfg.Auth.CookieName, cfg.App.IsProduction())
	c.UserController = controller.NewUserController(userService)
	c.JeezController = controller.NewJeezController(jeezService, ledgerService)
	c.VipController = controller.NewVipController(vipService)
	c.PaymentController = controller.NewPaymentController(checkoutService, subscriptionCheckout)
	c.WebhookController = controller.NewWebhookController(webhookService)
	c.AdminController = controller.NewAdminController(jeezService, vipService, ledgerService, auditLogger)
	c.HealthController = controller.NewHealthController(healthService)

	sysLogger.Info("BOOT", "Container ready", map[string]interface{}{
		"db_driver": cfg.Database.Driver,
		"nats":      eventPublisher != nil,
		"products":  len(catalog.Products()),
	})
	return c, nil
}
