package config

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = "LOCAOPS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags (tests, error
// messages, tooling).
const (
	EnvAppEnv   = "LOCAOPS_APP_ENV"
	EnvPort     = "LOCAOPS_APP_PORT"
	EnvDBDSN    = "LOCAOPS_DB_DSN"
	EnvDBHost   = "LOCAOPS_DB_HOST"
	EnvDBUser   = "LOCAOPS_DB_USER"
	EnvDBName   = "LOCAOPS_DB_NAME"
	EnvRedisURL = "LOCAOPS_REDIS_URL"

	EnvGCPProjectID   = "LOCAOPS_GCP_PROJECT_ID"
	EnvPubSubAlerts   = "LOCAOPS_PUBSUB_ALERTS_TOPIC"
	EnvPubSubAlertSub = "LOCAOPS_PUBSUB_ALERTS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
