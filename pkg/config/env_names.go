package config

// EnvPrefix is the envconfig prefix shared by every LIBRARY_* variable.
const EnvPrefix = "library"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "LIBRARY_APP_ENV"
	EnvPort     = "LIBRARY_APP_PORT"
	EnvDBDSN    = "LIBRARY_DB_DSN"
	EnvDBHost   = "LIBRARY_DB_HOST"
	EnvDBUser   = "LIBRARY_DB_USER"
	EnvDBName   = "LIBRARY_DB_NAME"
	EnvRedisURL = "LIBRARY_REDIS_URL"

	EnvJWTSecret = "LIBRARY_JWT_SECRET"
	EnvJWTIssuer = "LIBRARY_JWT_ISSUER"

	EnvClassroomAllowedIPs = "LIBRARY_CLASSROOM_ALLOWED_IPS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
