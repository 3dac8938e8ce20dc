package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "entitle"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Stripe       StripeConfig
	Billing      BillingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Stripe.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ENTITLE_APP_ENV" required:"true"`
	Port         string `envconfig:"ENTITLE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ENTITLE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ENTITLE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ENTITLE_DB_DSN"`
	Driver string `envconfig:"ENTITLE_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"ENTITLE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ENTITLE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ENTITLE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ENTITLE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ENTITLE_REDIS_URL"`
	Address      string        `envconfig:"ENTITLE_REDIS_ADDR"`
	Password     string        `envconfig:"ENTITLE_REDIS_PASSWORD"`
	DB           int           `envconfig:"ENTITLE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ENTITLE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ENTITLE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ENTITLE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ENTITLE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ENTITLE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ENTITLE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ENTITLE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ENTITLE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ENTITLE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ENTITLE_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey              string   `envconfig:"ENTITLE_STRIPE_API_KEY"`
	Env                 string   `envconfig:"ENTITLE_STRIPE_ENV" default:"test"`
	PortalConfiguration string   `envconfig:"ENTITLE_STRIPE_PORTAL_CONFIGURATION"`
	PriceIDs            []string `envconfig:"ENTITLE_STRIPE_PRICE_IDS"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// RecognizedPriceIDs returns the configured price ids, trimmed, empty entries dropped.
func (s StripeConfig) RecognizedPriceIDs() []string {
	ids := make([]string, 0, len(s.PriceIDs))
	for _, id := range s.PriceIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

func (s StripeConfig) validate() error {
	switch s.Environment() {
	case "test", "live":
		return nil
	default:
		return fmt.Errorf("stripe environment must be %q or %q", "test", "live")
	}
}

type BillingConfig struct {
	CacheTTL   time.Duration `envconfig:"ENTITLE_BILLING_CACHE_TTL" default:"60m"`
	SuccessURL string        `envconfig:"ENTITLE_BILLING_SUCCESS_URL" default:"/account"`
	CancelURL  string        `envconfig:"ENTITLE_BILLING_CANCEL_URL" default:"/"`
}
