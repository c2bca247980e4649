package config

import (
	"fmt"
	"strings"
	"time"

	"estate-backend/internal/domain"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string // postgres URL, or sqlite:<path> for local development
	RedisURL            string
	AMQPURL             string
	AMQPExchange        string
	JWTSecret           string
	JWTIssuer           string
	MarketplaceAdmin    domain.Account
	SharesOwner         domain.Account
	StripeSecretKey     string
	StripeWebhookSecret string
	TopUpCurrency       string
	SupabaseURL         string // storage sign URLs for property documents
	SupabaseSecretKey   string // must be the service_role key, not anon
	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string
	FaucetEnabled       bool
	LockTTL             time.Duration
	CacheTTL            time.Duration
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("JWT_ISSUER", "estate-api")
	v.SetDefault("AMQP_EXCHANGE", "estate.events")
	v.SetDefault("TOPUP_CURRENCY", "usd")
	v.SetDefault("LOCK_TTL", "10s")
	v.SetDefault("CACHE_TTL", "30s")

	env := v.GetString("NODE_ENV")
	if env == "" {
		env = v.GetString("APP_ENV")
	}
	if env == "" {
		env = "development"
	}

	dbURL := v.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = v.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = v.GetString("DATABASE_URL_TEST")
	}

	admin, err := optionalAccount(v, "MARKETPLACE_ADMIN")
	if err != nil {
		return nil, err
	}
	sharesOwner, err := optionalAccount(v, "SHARES_OWNER")
	if err != nil {
		return nil, err
	}
	if sharesOwner.IsZero() {
		sharesOwner = admin
	}

	lockTTL := v.GetDuration("LOCK_TTL")
	if lockTTL <= 0 {
		return nil, fmt.Errorf("config: LOCK_TTL must be a positive duration, got %q", v.GetString("LOCK_TTL"))
	}

	return &Config{
		Env:                 env,
		Port:                v.GetString("PORT"),
		DatabaseURL:         dbURL,
		RedisURL:            v.GetString("REDIS_URL"),
		AMQPURL:             v.GetString("AMQP_URL"),
		AMQPExchange:        v.GetString("AMQP_EXCHANGE"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		JWTIssuer:           v.GetString("JWT_ISSUER"),
		MarketplaceAdmin:    admin,
		SharesOwner:         sharesOwner,
		StripeSecretKey:     v.GetString("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		TopUpCurrency:       strings.ToLower(v.GetString("TOPUP_CURRENCY")),
		SupabaseURL:         v.GetString("SUPABASE_URL"),
		SupabaseSecretKey:   v.GetString("SUPABASE_SECRET_KEY"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		FaucetEnabled:       v.GetBool("FAUCET_ENABLED"),
		LockTTL:             lockTTL,
		CacheTTL:            v.GetDuration("CACHE_TTL"),
	}, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func optionalAccount(v *viper.Viper, key string) (domain.Account, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return "", nil
	}
	a, err := domain.ParseAccount(raw)
	if err != nil {
		return "", fmt.Errorf("config: %s: %w", key, err)
	}
	return a, nil
}
