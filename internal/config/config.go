package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string
	AppPort string

	DBURL         string
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	KafkaBrokers  []string

	JWTSecret string

	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentCurrency     string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string
	ReconcileAfter      time.Duration

	CORSAllowedOrigins []string
}

// LoadConfig reads the configuration of the API server.
func LoadConfig() (*Config, error) {
	return Load("DB_URL", "MONGODB_URI", "JWT_SECRET", "STRIPE_SECRET_KEY")
}

// Load reads the process environment, after merging an optional .env file,
// and fails when any of the required variables is unset.
func Load(required ...string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		AppPort:             getEnv("APP_PORT", "8080"),
		DBURL:               os.Getenv("DB_URL"),
		MongoURI:            os.Getenv("MONGODB_URI"),
		MongoDatabase:       getEnv("MONGODB_DATABASE", "storefront"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		KafkaBrokers:        splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PaymentCurrency:     strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),
		CheckoutSuccessURL: getEnv("CHECKOUT_SUCCESS_URL",
			"http://localhost:5173/CheckoutResult?status=success&session_id={CHECKOUT_SESSION_ID}"),
		CheckoutCancelURL: getEnv("CHECKOUT_CANCEL_URL",
			"http://localhost:5173/CheckoutResult?status=cancel"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
	}

	reconcileAfter, err := time.ParseDuration(getEnv("RECONCILE_AFTER", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_AFTER: %w", err)
	}
	cfg.ReconcileAfter = reconcileAfter

	var missing []string
	for _, name := range required {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
