package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Sweep        SweepConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LOCAOPS_APP_ENV" required:"true"`
	Port         string `envconfig:"LOCAOPS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LOCAOPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOCAOPS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LOCAOPS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LOCAOPS_DB_DSN"`
	Driver string `envconfig:"LOCAOPS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LOCAOPS_DB_HOST"`
	LegacyPort     int    `envconfig:"LOCAOPS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LOCAOPS_DB_USER"`
	LegacyPassword string `envconfig:"LOCAOPS_DB_PASSWORD"`
	LegacyName     string `envconfig:"LOCAOPS_DB_NAME"`
	LegacySSLMode  string `envconfig:"LOCAOPS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LOCAOPS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOCAOPS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOCAOPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOCAOPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOCAOPS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LOCAOPS_REDIS_ADDR"`
	Password     string        `envconfig:"LOCAOPS_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOCAOPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOCAOPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOCAOPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOCAOPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOCAOPS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOCAOPS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LOCAOPS_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LOCAOPS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"LOCAOPS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LOCAOPS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	AlertsTopic        string `envconfig:"LOCAOPS_PUBSUB_ALERTS_TOPIC" default:"locaops-stock-alerts"`
	AlertsSubscription string `envconfig:"LOCAOPS_PUBSUB_ALERTS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"LOCAOPS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"LOCAOPS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"LOCAOPS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"LOCAOPS_OUTBOX_IDEMPOTENCY_TTL" default:"24h"`
}

type SweepConfig struct {
	Interval time.Duration `envconfig:"LOCAOPS_SWEEP_INTERVAL" default:"15m"`
	LockTTL  time.Duration `envconfig:"LOCAOPS_SWEEP_LOCK_TTL" default:"20m"`
	Port     string        `envconfig:"LOCAOPS_SWEEP_METRICS_PORT" default:"9190"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
