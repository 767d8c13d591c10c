package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "JOURNEYOS"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "JOURNEYOS_APP_ENV"
	EnvDBDSN  = "JOURNEYOS_DB_DSN"
	EnvDBHost = "JOURNEYOS_DB_HOST"
	EnvDBUser = "JOURNEYOS_DB_USER"
	EnvDBName = "JOURNEYOS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	PubSub       PubSubConfig
	GCP          GCPConfig
	Realtime     RealtimeConfig
	Retention    RetentionConfig
	Eventing     EventingConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"JOURNEYOS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
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
	Env          string `envconfig:"JOURNEYOS_APP_ENV" required:"true"`
	Port         string `envconfig:"JOURNEYOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"JOURNEYOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"JOURNEYOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"JOURNEYOS_DB_DSN"`
	Driver string `envconfig:"JOURNEYOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"JOURNEYOS_DB_HOST"`
	LegacyPort     int    `envconfig:"JOURNEYOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"JOURNEYOS_DB_USER"`
	LegacyPassword string `envconfig:"JOURNEYOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"JOURNEYOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"JOURNEYOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"JOURNEYOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"JOURNEYOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"JOURNEYOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"JOURNEYOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"JOURNEYOS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"JOURNEYOS_REDIS_ADDR"`
	Password     string        `envconfig:"JOURNEYOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"JOURNEYOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"JOURNEYOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"JOURNEYOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"JOURNEYOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"JOURNEYOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"JOURNEYOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"JOURNEYOS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"JOURNEYOS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"JOURNEYOS_JWT_EXPIRATION_MINUTES" required:"true"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"JOURNEYOS_GCP_PROJECT_ID" required:"true"`
}

type PubSubConfig struct {
	TriggerTopic        string `envconfig:"JOURNEYOS_PUBSUB_TRIGGER_TOPIC" default:"jos-trigger-events"`
	TriggerSubscription string `envconfig:"JOURNEYOS_PUBSUB_TRIGGER_SUBSCRIPTION" required:"true"`
}

type RealtimeConfig struct {
	SendBuffer   int           `envconfig:"JOURNEYOS_REALTIME_SEND_BUFFER" default:"16"`
	WriteTimeout time.Duration `envconfig:"JOURNEYOS_REALTIME_WRITE_TIMEOUT" default:"10s"`
}

type RetentionConfig struct {
	NotificationDays int           `envconfig:"JOURNEYOS_NOTIFICATION_RETENTION_DAYS" default:"30"`
	CronInterval     time.Duration `envconfig:"JOURNEYOS_CRON_INTERVAL" default:"24h"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"JOURNEYOS_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"JOURNEYOS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"JOURNEYOS_AUTO_MIGRATE" default:"false"`
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
