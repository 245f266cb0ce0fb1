package config

const (
	EnvPrefix = "THREADLINE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:threadline.db?_foreign_keys=on"
)

const (
	EnvAppEnv              = "THREADLINE_APP_ENV"
	EnvPort                = "THREADLINE_APP_PORT"
	EnvDBDSN               = "THREADLINE_DB_DSN"
	EnvDBHost              = "THREADLINE_DB_HOST"
	EnvDBUser              = "THREADLINE_DB_USER"
	EnvDBName              = "THREADLINE_DB_NAME"
	EnvRedisURL            = "THREADLINE_REDIS_URL"
	EnvJWTSecret           = "THREADLINE_JWT_SECRET"
	EnvUseSQLite           = "THREADLINE_USE_SQLITE"
	EnvStripeAPIKey        = "THREADLINE_STRIPE_API_KEY"
	EnvStripeWebhookSecret = "THREADLINE_STRIPE_WEBHOOK_SECRET"
	EnvCheckoutCurrency    = "THREADLINE_CHECKOUT_CURRENCY"
	EnvCheckoutCardTaxRate = "THREADLINE_CHECKOUT_CARD_TAX_RATE"
	EnvCORSAllowedOrigins  = "THREADLINE_CORS_ALLOWED_ORIGINS"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
