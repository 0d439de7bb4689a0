package config

// EnvPrefix is the envconfig prefix shared by every variable.
const EnvPrefix = "RETAILDESK"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names, kept in one place so tests and docs agree.
const (
	EnvAppEnv     = "RETAILDESK_APP_ENV"
	EnvPort       = "RETAILDESK_APP_PORT"
	EnvDBDSN      = "RETAILDESK_DB_DSN"
	EnvDBHost     = "RETAILDESK_DB_HOST"
	EnvDBUser     = "RETAILDESK_DB_USER"
	EnvDBName     = "RETAILDESK_DB_NAME"
	EnvRedisURL   = "RETAILDESK_REDIS_URL"
	EnvJWTSecret  = "RETAILDESK_JWT_SECRET"
	EnvJWTIssuer  = "RETAILDESK_JWT_ISSUER"
	EnvJWTExpMins = "RETAILDESK_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
