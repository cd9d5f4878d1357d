package config

const (
	// EnvPrefix is empty because every field tag already carries the full ORDERING_ name.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "ORDERING_APP_ENV"
	EnvPort     = "ORDERING_APP_PORT"
	EnvLogLevel = "ORDERING_LOG_LEVEL"

	EnvDBDSN    = "ORDERING_DB_DSN"
	EnvDBDriver = "ORDERING_DB_DRIVER"
	EnvDBHost   = "ORDERING_DB_HOST"
	EnvDBUser   = "ORDERING_DB_USER"
	EnvDBName   = "ORDERING_DB_NAME"

	EnvRedisURL = "ORDERING_REDIS_URL"

	EnvTaxRate              = "ORDERING_PRICING_TAX_RATE"
	EnvDeliveryFee          = "ORDERING_PRICING_DELIVERY_FEE"
	EnvDiscrepancyTolerance = "ORDERING_PRICING_DISCREPANCY_TOLERANCE"

	EnvKafkaBrokers = "ORDERING_KAFKA_BROKERS"
	EnvKafkaTopic   = "ORDERING_KAFKA_ORDERS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
