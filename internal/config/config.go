package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	HTTPAddr     string
	DBDSN        string

	JWTSecret string
	// JWTTTL bounds tokens minted by the dev token helper; inbound tokens
	// carry their own expiry.
	JWTTTL time.Duration

	// HoldTTL is how long a slot hold stays exclusive without renewal.
	HoldTTL time.Duration
	// ResumeTTL bounds the age of a persisted funnel resume envelope.
	ResumeTTL time.Duration
	// CheckingDelay is the fixed duration of the funnel's paced
	// availability-checking step.
	CheckingDelay time.Duration
	// SweepInterval controls how often stale holds and overdue booking
	// requests are flipped by the background sweeper.
	SweepInterval time.Duration
	// AuditInterval controls how often the capacity invariant is verified.
	AuditInterval time.Duration

	// OfferTTL is how long a booking request stays claimable before it is
	// considered abandoned (offer_expires_at).
	OfferTTL time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for validating actor tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg.JWTTTL, err = getEnvAsDuration("JWT_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg.HoldTTL, err = getEnvAsDuration("HOLD_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg.ResumeTTL, err = getEnvAsDuration("RESUME_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg.CheckingDelay, err = getEnvAsDuration("CHECKING_DELAY", 5500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	cfg.SweepInterval, err = getEnvAsDuration("SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}

	cfg.AuditInterval, err = getEnvAsDuration("AUDIT_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg.OfferTTL, err = getEnvAsDuration("OFFER_TTL", 48*time.Hour)
	if err != nil {
		return nil, err
	}

	// Stripe keys are required outside of dev
	cfg.StripeSecretKey = getEnv("STRIPE_SECRET_KEY", "")
	cfg.StripeWebhookSecret = getEnv("STRIPE_WEBHOOK_SECRET", "")
	if cfg.IsProduction && (cfg.StripeSecretKey == "" || cfg.StripeWebhookSecret == "") {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET are required in prod")
	}

	cfg.CheckoutSuccessURL = getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/booking/success")
	cfg.CheckoutCancelURL = getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/booking/cancel")

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a time.Duration
// (e.g. "15m", "5.5s"). It returns the default value if the variable is
// not set, and an error if it is set but unparsable.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}

	return val, nil
}
