package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"jeezy-monetization-be/internal/constant"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	SMTP      SMTPConfig
	PayPal    PayPalConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Port                string
	BaseURL             string
	ClientURL           string
	Environment         string
	LogFilePath         string
	PaymentAuditLogPath string
	CorsAllowedOrigins  string
	NatsURL             string
	RedisURL            string
	NotificationTopic   string
}

func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

type DatabaseConfig struct {
	Driver           string
	Connection       string
	LockTimeout      time.Duration
	StatementTimeout time.Duration
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	CookieName string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	APIBaseURL   string
	WebhookID    string
	HTTPTimeout  time.Duration
	ReturnURL    string
	CancelURL    string
	BrandName    string
	CertCacheTTL time.Duration
	LockTTL      time.Duration
	// ProductID and PlanIDs are printed by cmd/paypal_setup. PlanIDs is
	// keyed by plan name (MONTHLY, QUARTERLY, ANNUAL).
	ProductID string
	PlanIDs   map[string]string
}

// Environment reports SANDBOX or LIVE from the API base URL.
func (p PayPalConfig) Environment() string {
	if strings.Contains(p.APIBaseURL, "sandbox") {
		return "SANDBOX"
	}
	return "LIVE"
}

type TelemetryConfig struct {
	OtelEnabled  bool
	OtelEndpoint string
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:                getEnv("APP_PORT", "3000"),
			BaseURL:             getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:           getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:         getEnv("GO_ENV", "development"),
			LogFilePath:         getEnv("LOG_FILE_PATH", "app.log"),
			PaymentAuditLogPath: getEnv("PAYMENT_AUDIT_LOG_PATH", "payment-audit.log"),
			CorsAllowedOrigins:  getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:             getEnv("NATS_URL", ""),
			RedisURL:            getEnv("REDIS_URL", ""),
			NotificationTopic:   getEnv("NOTIFICATION_TOPIC", constant.DefaultNotificationTopic),
		},
		Database: DatabaseConfig{
			Driver:           strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			Connection:       getEnv("DB_CONNECTION_STRING", ""),
			LockTimeout:      getEnvAsDuration("DB_LOCK_TIMEOUT", 5*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			TokenTTL:   getEnvAsDuration("JWT_TTL", 24*time.Hour),
			CookieName: getEnv("AUTH_COOKIE_NAME", "backendToken"),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Jeezy"),
		},
		PayPal: PayPalConfig{
			ClientID:     getEnv("PAYPAL_CLIENT_ID", ""),
			ClientSecret: getEnv("PAYPAL_CLIENT_SECRET", ""),
			APIBaseURL:   getEnv("PAYPAL_API_BASE_URL", "https://api-m.sandbox.paypal.com"),
			WebhookID:    getEnv("PAYPAL_WEBHOOK_ID", ""),
			HTTPTimeout:  getEnvAsDuration("PAYPAL_HTTP_TIMEOUT", 10*time.Second),
			ReturnURL:    getEnv("PAYPAL_RETURN_URL", "http://localhost:5173/payment/success"),
			CancelURL:    getEnv("PAYPAL_CANCEL_URL", "http://localhost:5173/payment/cancel"),
			BrandName:    getEnv("PAYPAL_BRAND_NAME", "Jeezy"),
			CertCacheTTL: getEnvAsDuration("PAYPAL_CERT_CACHE_TTL", time.Hour),
			LockTTL:      getEnvAsDuration("PAYPAL_WEBHOOK_LOCK_TTL", 30*time.Second),
			ProductID:    getEnv("PAYPAL_PRODUCT_ID", ""),
			PlanIDs: map[string]string{
				"MONTHLY":   getEnv("PAYPAL_PLAN_MONTHLY", ""),
				"QUARTERLY": getEnv("PAYPAL_PLAN_QUARTERLY", ""),
				"ANNUAL":    getEnv("PAYPAL_PLAN_ANNUAL", ""),
			},
		},
		Telemetry: TelemetryConfig{
			OtelEnabled:  getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Connection == "" {
			errs = append(errs, errors.New("DB_CONNECTION_STRING is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, errors.New("DB_DRIVER must be postgres or memory"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil && value > 0 {
		return value
	}
	return fallback
}
