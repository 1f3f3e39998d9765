package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "SUGARHOUSE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "SUGARHOUSE_APP_ENV"
	EnvDBDSN  = "SUGARHOUSE_DB_DSN"
	EnvDBHost = "SUGARHOUSE_DB_HOST"
	EnvDBUser = "SUGARHOUSE_DB_USER"
	EnvDBName = "SUGARHOUSE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	Promotion    PromotionConfig
	RateLimit    RateLimitConfig
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
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SUGARHOUSE_APP_ENV" required:"true"`
	Port         string `envconfig:"SUGARHOUSE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SUGARHOUSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SUGARHOUSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SUGARHOUSE_DB_DSN"`
	Driver string `envconfig:"SUGARHOUSE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SUGARHOUSE_DB_HOST"`
	LegacyPort     int    `envconfig:"SUGARHOUSE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SUGARHOUSE_DB_USER"`
	LegacyPassword string `envconfig:"SUGARHOUSE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SUGARHOUSE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SUGARHOUSE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SUGARHOUSE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SUGARHOUSE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SUGARHOUSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SUGARHOUSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SUGARHOUSE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SUGARHOUSE_REDIS_ADDR"`
	Password     string        `envconfig:"SUGARHOUSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SUGARHOUSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SUGARHOUSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SUGARHOUSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SUGARHOUSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SUGARHOUSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SUGARHOUSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SUGARHOUSE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SUGARHOUSE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SUGARHOUSE_JWT_EXPIRATION_MINUTES" default:"60"`
}

// CheckoutConfig carries the payment collaborator's constraints.
type CheckoutConfig struct {
	// MinChargeCents is the floor the payment provider will accept.
	MinChargeCents int `envconfig:"SUGARHOUSE_CHECKOUT_MIN_CHARGE_CENTS" default:"50"`
	// ACHThresholdCents enables the ACH recommendation once a total
	// reaches this amount. Zero disables the recommendation.
	ACHThresholdCents int `envconfig:"SUGARHOUSE_CHECKOUT_ACH_THRESHOLD_CENTS" default:"0"`
}

// RateLimitConfig throttles the authenticated API surface. A zero window or
// limit disables throttling.
type RateLimitConfig struct {
	Window time.Duration `envconfig:"SUGARHOUSE_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"SUGARHOUSE_RATE_LIMIT_LIMIT" default:"120"`
}

// PromotionConfig controls the preorder promotion sweep.
type PromotionConfig struct {
	SweepInterval time.Duration `envconfig:"SUGARHOUSE_PROMOTION_SWEEP_INTERVAL" default:"1m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SUGARHOUSE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SUGARHOUSE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SUGARHOUSE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SUGARHOUSE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SUGARHOUSE_GOOGLE_APPLICATION_CREDENTIALS"`
}

// PubSubConfig names the payment collaborator's event plumbing.
type PubSubConfig struct {
	PaymentsSubscription string `envconfig:"SUGARHOUSE_PUBSUB_PAYMENTS_SUBSCRIPTION"`
	PaymentsTopic        string `envconfig:"SUGARHOUSE_PUBSUB_PAYMENTS_TOPIC"`
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
