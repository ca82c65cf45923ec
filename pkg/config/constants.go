package config

const (
	EnvPrefix = "IMS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "IMS_DB_DSN"
	EnvDBHost = "IMS_DB_HOST"
	EnvDBUser = "IMS_DB_USER"
	EnvDBName = "IMS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
