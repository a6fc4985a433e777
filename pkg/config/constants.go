package config

// EnvPrefix is the envconfig prefix for every setting.
const EnvPrefix = "TRADEYARD"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names shared between Load, tooling, and tests.
const (
	EnvAppEnv   = "TRADEYARD_APP_ENV"
	EnvPort     = "TRADEYARD_APP_PORT"
	EnvDBDSN    = "TRADEYARD_DB_DSN"
	EnvDBHost   = "TRADEYARD_DB_HOST"
	EnvDBUser   = "TRADEYARD_DB_USER"
	EnvDBName   = "TRADEYARD_DB_NAME"
	EnvRedisURL = "TRADEYARD_REDIS_URL"

	EnvJWTSecret  = "TRADEYARD_JWT_SECRET"
	EnvJWTIssuer  = "TRADEYARD_JWT_ISSUER"
	EnvJWTExpMins = "TRADEYARD_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID      = "TRADEYARD_GCP_PROJECT_ID"
	EnvPubSubDomainTopic = "TRADEYARD_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub   = "TRADEYARD_PUBSUB_DOMAIN_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
