package config

// EnvPrefix is empty because every field names its variable explicitly.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "STOREKART_DB_DSN"
	EnvDBHost = "STOREKART_DB_HOST"
	EnvDBUser = "STOREKART_DB_USER"
	EnvDBName = "STOREKART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
