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
	JWT          JWTConfig
	Webhook      WebhookConfig
	Lock         LockConfig
	Completion   CompletionConfig
	Cron         CronConfig
	Outbox       OutboxConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
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
	Env          string `envconfig:"TRADEYARD_APP_ENV" required:"true"`
	Port         string `envconfig:"TRADEYARD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRADEYARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRADEYARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TRADEYARD_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TRADEYARD_DB_DSN"`
	Driver string `envconfig:"TRADEYARD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TRADEYARD_DB_HOST"`
	LegacyPort     int    `envconfig:"TRADEYARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TRADEYARD_DB_USER"`
	LegacyPassword string `envconfig:"TRADEYARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"TRADEYARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"TRADEYARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRADEYARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRADEYARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRADEYARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRADEYARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRADEYARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TRADEYARD_REDIS_ADDR"`
	Password     string        `envconfig:"TRADEYARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRADEYARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRADEYARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRADEYARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRADEYARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRADEYARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRADEYARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TRADEYARD_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TRADEYARD_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TRADEYARD_JWT_EXPIRATION_MINUTES" required:"true"`
}

// WebhookConfig authenticates payment-processor callbacks.
type WebhookConfig struct {
	Token string `envconfig:"TRADEYARD_WEBHOOK_TOKEN"`
}

// LockConfig tunes the per-order exclusive lock.
type LockConfig struct {
	TTL           time.Duration `envconfig:"TRADEYARD_LOCK_TTL" default:"30s"`
	WaitTimeout   time.Duration `envconfig:"TRADEYARD_LOCK_WAIT_TIMEOUT" default:"2s"`
	RetryInterval time.Duration `envconfig:"TRADEYARD_LOCK_RETRY_INTERVAL" default:"50ms"`
}

// CompletionConfig tunes the delivered-to-completed sweep.
type CompletionConfig struct {
	GracePeriod time.Duration `envconfig:"TRADEYARD_COMPLETION_GRACE_PERIOD" default:"336h"`
	BatchSize   int           `envconfig:"TRADEYARD_COMPLETION_BATCH_SIZE" default:"100"`
}

type CronConfig struct {
	CompletionSweepInterval time.Duration `envconfig:"TRADEYARD_CRON_COMPLETION_SWEEP_INTERVAL" default:"10m"`
	JobLockTTL              time.Duration `envconfig:"TRADEYARD_CRON_JOB_LOCK_TTL" default:"5m"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TRADEYARD_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TRADEYARD_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TRADEYARD_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TRADEYARD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TRADEYARD_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TRADEYARD_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"TRADEYARD_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TRADEYARD_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"TRADEYARD_PUBSUB_DOMAIN_TOPIC"`
	DomainSubscription string `envconfig:"TRADEYARD_PUBSUB_DOMAIN_SUBSCRIPTION"`
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
