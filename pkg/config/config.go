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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Stripe       StripeConfig
	Checkout     CheckoutConfig
	CORS         CORSConfig
	Housekeeping HousekeepingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations envconfig cannot express with tags alone.
func (c *Config) Validate() error {
	if c.App.IsProd() && c.FeatureFlags.UseSQLite {
		return fmt.Errorf("%s cannot be enabled in production", EnvUseSQLite)
	}
	if c.Checkout.CardTaxRate < 0 || c.Checkout.CardTaxRate >= 1 {
		return fmt.Errorf("%s must be within [0, 1)", EnvCheckoutCardTaxRate)
	}
	if c.Checkout.DirectShippingFee < 0 || c.Checkout.CardShippingFee < 0 {
		return fmt.Errorf("shipping fees cannot be negative")
	}
	if strings.TrimSpace(c.Checkout.Currency) == "" {
		return fmt.Errorf("%s is required", EnvCheckoutCurrency)
	}
	if c.Housekeeping.AdminNotificationRetentionDays < 0 || c.Housekeeping.CustomerNotificationRetentionDays < 0 {
		return fmt.Errorf("notification retention days cannot be negative")
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"THREADLINE_APP_ENV" required:"true"`
	Port         string `envconfig:"THREADLINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"THREADLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"THREADLINE_LOG_WARN_STACK" default:"false"`
	FrontendURL  string `envconfig:"THREADLINE_FRONTEND_URL" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"THREADLINE_DB_DSN"`
	Driver string `envconfig:"THREADLINE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"THREADLINE_DB_HOST"`
	Port     int    `envconfig:"THREADLINE_DB_PORT" default:"5432"`
	User     string `envconfig:"THREADLINE_DB_USER"`
	Password string `envconfig:"THREADLINE_DB_PASSWORD"`
	Name     string `envconfig:"THREADLINE_DB_NAME"`
	SSLMode  string `envconfig:"THREADLINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"THREADLINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"THREADLINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"THREADLINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"THREADLINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL              string        `envconfig:"THREADLINE_REDIS_URL"`
	Address          string        `envconfig:"THREADLINE_REDIS_ADDR" default:"localhost:6379"`
	Password         string        `envconfig:"THREADLINE_REDIS_PASSWORD"`
	DB               int           `envconfig:"THREADLINE_REDIS_DB" default:"0"`
	PoolSize         int           `envconfig:"THREADLINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns     int           `envconfig:"THREADLINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout      time.Duration `envconfig:"THREADLINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout      time.Duration `envconfig:"THREADLINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout     time.Duration `envconfig:"THREADLINE_REDIS_WRITE_TIMEOUT" default:"5s"`
	IdempotencyTTL   time.Duration `envconfig:"THREADLINE_REDIS_IDEMPOTENCY_TTL" default:"24h"`
	SettingsCacheTTL time.Duration `envconfig:"THREADLINE_REDIS_SETTINGS_CACHE_TTL" default:"5m"`
}

type JWTConfig struct {
	Secret            string `envconfig:"THREADLINE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"THREADLINE_JWT_ISSUER" default:"threadline"`
	ExpirationMinutes int    `envconfig:"THREADLINE_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"THREADLINE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"THREADLINE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"THREADLINE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"THREADLINE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"THREADLINE_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"THREADLINE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"THREADLINE_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"THREADLINE_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"THREADLINE_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"THREADLINE_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// CheckoutConfig carries the pricing constants applied by the checkout workflow.
type CheckoutConfig struct {
	Currency              string  `envconfig:"THREADLINE_CHECKOUT_CURRENCY" default:"tnd"`
	DirectShippingFee     float64 `envconfig:"THREADLINE_CHECKOUT_DIRECT_SHIPPING_FEE" default:"7.5"`
	CardTaxRate           float64 `envconfig:"THREADLINE_CHECKOUT_CARD_TAX_RATE" default:"0.19"`
	CardShippingFee       float64 `envconfig:"THREADLINE_CHECKOUT_CARD_SHIPPING_FEE" default:"5.99"`
	FreeShippingThreshold float64 `envconfig:"THREADLINE_CHECKOUT_FREE_SHIPPING_THRESHOLD" default:"50"`
}

func (c CheckoutConfig) DirectShipping() decimal.Decimal {
	return decimal.NewFromFloat(c.DirectShippingFee)
}

func (c CheckoutConfig) CardTax() decimal.Decimal {
	return decimal.NewFromFloat(c.CardTaxRate)
}

func (c CheckoutConfig) CardShipping() decimal.Decimal {
	return decimal.NewFromFloat(c.CardShippingFee)
}

func (c CheckoutConfig) FreeShippingFrom() decimal.Decimal {
	return decimal.NewFromFloat(c.FreeShippingThreshold)
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"THREADLINE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// HousekeepingConfig drives the housekeeping worker. Zero retention keeps rows forever.
type HousekeepingConfig struct {
	Interval                          time.Duration `envconfig:"THREADLINE_HOUSEKEEPING_INTERVAL" default:"6h"`
	AdminNotificationRetentionDays    int           `envconfig:"THREADLINE_HOUSEKEEPING_ADMIN_NOTIFICATION_RETENTION_DAYS" default:"30"`
	CustomerNotificationRetentionDays int           `envconfig:"THREADLINE_HOUSEKEEPING_CUSTOMER_NOTIFICATION_RETENTION_DAYS" default:"90"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.Driver = DriverSQLite
		db.DSN = defaultSQLiteDSN
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
