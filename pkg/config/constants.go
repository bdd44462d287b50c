package config

const (
	EnvPrefix = "THANKAROO"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "THANKAROO_DB_DSN"
	EnvDBHost = "THANKAROO_DB_HOST"
	EnvDBUser = "THANKAROO_DB_USER"
	EnvDBName = "THANKAROO_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
