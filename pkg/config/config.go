package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Catalog      CatalogConfig
	Pricing      PricingConfig
	Cart         CartConfig
	Checkout     CheckoutConfig
	Admin        AdminConfig
	SMTP         SMTPConfig
	Webhook      WebhookConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CatalogConfig points at the headless CMS read API.
type CatalogConfig struct {
	BaseURL      string        `envconfig:"STOREFRONT_CATALOG_BASE_URL" required:"true"`
	APIToken     string        `envconfig:"STOREFRONT_CATALOG_API_TOKEN"`
	FetchTimeout time.Duration `envconfig:"STOREFRONT_CATALOG_FETCH_TIMEOUT" default:"10s"`
	CacheTTL     time.Duration `envconfig:"STOREFRONT_CATALOG_CACHE_TTL" default:"60s"`
}

// PricingConfig carries the single canonical policy for this deployment.
// Totals must never be derived from constants hardcoded at a call site.
type PricingConfig struct {
	TaxRate               string `envconfig:"STOREFRONT_PRICING_TAX_RATE" default:"0.13"`
	FlatShippingFee       string `envconfig:"STOREFRONT_PRICING_FLAT_SHIPPING_FEE" default:"500"`
	FreeShippingThreshold string `envconfig:"STOREFRONT_PRICING_FREE_SHIPPING_THRESHOLD" default:"10000"`
	Currency              string `envconfig:"STOREFRONT_PRICING_CURRENCY" default:"PKR"`
}

// TaxRateDecimal parses the configured tax rate, failing loudly on malformed values.
func (p PricingConfig) TaxRateDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(p.TaxRate)
}

func (p PricingConfig) FlatShippingFeeDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(p.FlatShippingFee)
}

func (p PricingConfig) FreeShippingThresholdDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(p.FreeShippingThreshold)
}

type CartConfig struct {
	SignalDecay time.Duration `envconfig:"STOREFRONT_CART_SIGNAL_DECAY" default:"500ms"`
	TTL         time.Duration `envconfig:"STOREFRONT_CART_TTL" default:"720h"`
}

type CheckoutConfig struct {
	BuyNowTTL         time.Duration `envconfig:"STOREFRONT_CHECKOUT_BUYNOW_TTL" default:"30m"`
	SubmissionLockTTL time.Duration `envconfig:"STOREFRONT_CHECKOUT_SUBMISSION_LOCK_TTL" default:"30s"`
}

// AdminConfig configures dashboard access: a bearer token signed by the
// external auth provider plus an allowlist of authorized principals.
type AdminConfig struct {
	JWTSecret string   `envconfig:"STOREFRONT_ADMIN_JWT_SECRET" required:"true"`
	JWTIssuer string   `envconfig:"STOREFRONT_ADMIN_JWT_ISSUER" required:"true"`
	Emails    []string `envconfig:"STOREFRONT_ADMIN_EMAILS"`
}

// AllowedEmails returns the normalized admin allowlist.
func (a AdminConfig) AllowedEmails() map[string]struct{} {
	set := make(map[string]struct{}, len(a.Emails))
	for _, email := range a.Emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		set[email] = struct{}{}
	}
	return set
}

type SMTPConfig struct {
	Host     string `envconfig:"STOREFRONT_SMTP_HOST"`
	Port     int    `envconfig:"STOREFRONT_SMTP_PORT" default:"587"`
	User     string `envconfig:"STOREFRONT_SMTP_USER"`
	Password string `envconfig:"STOREFRONT_SMTP_PASS"`
	From     string `envconfig:"STOREFRONT_SMTP_FROM"`
	OrdersTo string `envconfig:"STOREFRONT_SMTP_ORDERS_TO"`
}

// Enabled reports whether outbound mail is configured at all.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != "" && s.OrdersTo != ""
}

type WebhookConfig struct {
	RevalidateSecret string `envconfig:"STOREFRONT_WEBHOOK_REVALIDATE_SECRET" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

const (
	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
