package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port        string
	Environment string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	StripeSecretKey     string
	StripeWebhookSecret string

	RedisURL string
	CartTTL  time.Duration

	Currency       string
	TaxRate        decimal.Decimal
	DeliveryFee    decimal.Decimal
	MinOrderAmount decimal.Decimal

	RateLimitMaxAttempts int
	RateLimitWindow      time.Duration

	GatewayTimeout time.Duration

	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	FromEmail string

	RestaurantName string
}

// LoadConfig reads configuration from the environment (and an optional .env
// file). Payment keys and database credentials are required; pricing knobs
// fall back to the defaults the storefront was launched with.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		Currency: getEnv("CURRENCY", "USD"),

		SMTPHost:  os.Getenv("SMTP_HOST"),
		SMTPPort:  getEnv("SMTP_PORT", "587"),
		SMTPUser:  os.Getenv("SMTP_USERNAME"),
		SMTPPass:  os.Getenv("SMTP_PASSWORD"),
		FromEmail: getEnv("FROM_EMAIL", "orders@yourrestaurant.com"),

		RestaurantName: getEnv("RESTAURANT_NAME", "Your Restaurant"),
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" {
		return nil, fmt.Errorf("missing required Postgres environment variables")
	}
	if cfg.StripeSecretKey == "" || cfg.StripeWebhookSecret == "" {
		return nil, fmt.Errorf("missing required Stripe environment variables")
	}

	var err error
	if cfg.TaxRate, err = getDecimalEnv("TAX_RATE", "0.08"); err != nil {
		return nil, err
	}
	if cfg.DeliveryFee, err = getDecimalEnv("DELIVERY_FEE", "3.99"); err != nil {
		return nil, err
	}
	if cfg.MinOrderAmount, err = getDecimalEnv("MIN_ORDER_AMOUNT", "10.00"); err != nil {
		return nil, err
	}

	if cfg.RateLimitMaxAttempts, err = getIntEnv("RATE_LIMIT_MAX_ATTEMPTS", 10); err != nil {
		return nil, err
	}
	windowSeconds, err := getIntEnv("RATE_LIMIT_WINDOW_SECONDS", 3600)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitWindow = time.Duration(windowSeconds) * time.Second

	gatewayTimeout, err := getIntEnv("GATEWAY_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.GatewayTimeout = time.Duration(gatewayTimeout) * time.Second

	cartTTLHours, err := getIntEnv("CART_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}
	cfg.CartTTL = time.Duration(cartTTLHours) * time.Hour

	return cfg, nil
}

// IsProduction reports whether full error detail must be withheld from
// client responses.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDecimalEnv(key, fallback string) (decimal.Decimal, error) {
	raw := getEnv(key, fallback)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return d, nil
}

func getIntEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return n, nil
}
