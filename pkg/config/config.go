package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Pricing      PricingConfig
	Checkout     CheckoutConfig
	Cart         CartConfig
	Outbox       OutboxConfig
	Kafka        KafkaConfig
	Maintenance  MaintenanceConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORDERING_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDERING_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ORDERING_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORDERING_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"ORDERING_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ORDERING_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ORDERING_DB_DSN"`
	Driver string `envconfig:"ORDERING_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ORDERING_DB_HOST"`
	LegacyPort     int    `envconfig:"ORDERING_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ORDERING_DB_USER"`
	LegacyPassword string `envconfig:"ORDERING_DB_PASSWORD"`
	LegacyName     string `envconfig:"ORDERING_DB_NAME"`
	LegacySSLMode  string `envconfig:"ORDERING_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ORDERING_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORDERING_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERING_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERING_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite one.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDERING_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ORDERING_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERING_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERING_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERING_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERING_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERING_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERING_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDERING_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ORDERING_AUTO_MIGRATE" default:"false"`
}

// PricingConfig holds fallback fee values. A store_settings row overrides them.
type PricingConfig struct {
	TaxRate              decimal.Decimal `envconfig:"ORDERING_PRICING_TAX_RATE" default:"0.0825"`
	DeliveryFee          decimal.Decimal `envconfig:"ORDERING_PRICING_DELIVERY_FEE" default:"3.99"`
	PickupFee            decimal.Decimal `envconfig:"ORDERING_PRICING_PICKUP_FEE" default:"0"`
	DiscrepancyTolerance decimal.Decimal `envconfig:"ORDERING_PRICING_DISCREPANCY_TOLERANCE" default:"0.01"`
	Currency             string          `envconfig:"ORDERING_PRICING_CURRENCY" default:"USD"`
}

func (p PricingConfig) validate() error {
	if p.TaxRate.IsNegative() || p.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be in [0, 1)", EnvTaxRate)
	}
	if p.DeliveryFee.IsNegative() || p.PickupFee.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvDeliveryFee)
	}
	if p.DiscrepancyTolerance.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvDiscrepancyTolerance)
	}
	return nil
}

type CheckoutConfig struct {
	Timeout         time.Duration `envconfig:"ORDERING_CHECKOUT_TIMEOUT" default:"10s"`
	LineConcurrency int           `envconfig:"ORDERING_CHECKOUT_LINE_CONCURRENCY" default:"8"`
}

type CartConfig struct {
	SessionTTL time.Duration `envconfig:"ORDERING_CART_SESSION_TTL" default:"4h"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ORDERING_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ORDERING_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ORDERING_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type KafkaConfig struct {
	Brokers      []string      `envconfig:"ORDERING_KAFKA_BROKERS" default:"localhost:9092"`
	OrdersTopic  string        `envconfig:"ORDERING_KAFKA_ORDERS_TOPIC" default:"kitchen.orders"`
	MenuTopic    string        `envconfig:"ORDERING_KAFKA_MENU_TOPIC"`
	WriteTimeout time.Duration `envconfig:"ORDERING_KAFKA_WRITE_TIMEOUT" default:"10s"`
}

type MaintenanceConfig struct {
	LockTTL  time.Duration `envconfig:"ORDERING_MAINTENANCE_LOCK_TTL" default:"30m"`
	SeedFile string        `envconfig:"ORDERING_MAINTENANCE_SEED_FILE"`
}

// RateLimitConfig throttles the pricing and checkout surfaces. A zero limit
// disables that dimension.
type RateLimitConfig struct {
	Window               time.Duration `envconfig:"ORDERING_RATE_LIMIT_WINDOW" default:"1m"`
	CheckoutIPLimit      int           `envconfig:"ORDERING_RATE_LIMIT_CHECKOUT_IP" default:"30"`
	CheckoutSessionLimit int           `envconfig:"ORDERING_RATE_LIMIT_CHECKOUT_SESSION" default:"10"`
	PricingIPLimit       int           `envconfig:"ORDERING_RATE_LIMIT_PRICING_IP" default:"600"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:ordering.db?cache=shared"
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
