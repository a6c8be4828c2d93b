package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "BREWBAR"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv                 = "BREWBAR_APP_ENV"
	EnvPort                   = "BREWBAR_APP_PORT"
	EnvDBDSN                  = "BREWBAR_DB_DSN"
	EnvDBHost                 = "BREWBAR_DB_HOST"
	EnvDBUser                 = "BREWBAR_DB_USER"
	EnvDBName                 = "BREWBAR_DB_NAME"
	EnvRedisURL               = "BREWBAR_REDIS_URL"
	EnvJWTSecret              = "BREWBAR_JWT_SECRET"
	EnvJWTIssuer              = "BREWBAR_JWT_ISSUER"
	EnvJWTExpMins             = "BREWBAR_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "BREWBAR_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID           = "BREWBAR_GCP_PROJECT_ID"
	EnvGCSBucket              = "BREWBAR_GCS_BUCKET_NAME"
	EnvGCSUploadExpiry        = "BREWBAR_GCS_UPLOAD_URL_EXPIRY"
	EnvGCSDownloadExpiry      = "BREWBAR_GCS_DOWNLOAD_URL_EXPIRY"
	EnvPubSubOrdersTopic      = "BREWBAR_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub        = "BREWBAR_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvStrictTransitions      = "BREWBAR_ORDERS_STRICT_TRANSITIONS"
	EnvShippingFee            = "BREWBAR_CHECKOUT_SHIPPING_FEE"
	EnvFreeShippingThreshold  = "BREWBAR_CHECKOUT_FREE_SHIPPING_THRESHOLD"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Outbox        OutboxConfig
	Checkout      CheckoutConfig
	Orders        OrdersConfig
	Maintenance   MaintenanceConfig
	Seed          SeedConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.Checkout.ShippingFee < 0 || cfg.Checkout.FreeShippingThreshold < 0 {
		return nil, fmt.Errorf("%s and %s must be non-negative", EnvShippingFee, EnvFreeShippingThreshold)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BREWBAR_APP_ENV" required:"true"`
	Port         string `envconfig:"BREWBAR_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BREWBAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BREWBAR_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"BREWBAR_CORS_ALLOWED_ORIGINS" default:"*"`
	Timezone     string `envconfig:"BREWBAR_APP_TIMEZONE" default:"Asia/Ho_Chi_Minh"`
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (a AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(a.Timezone))
	if err != nil {
		return time.UTC
	}
	return loc
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	out := []string{}
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type ServiceConfig struct {
	Kind string `envconfig:"BREWBAR_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BREWBAR_DB_DSN"`
	Driver string `envconfig:"BREWBAR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BREWBAR_DB_HOST"`
	LegacyPort     int    `envconfig:"BREWBAR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BREWBAR_DB_USER"`
	LegacyPassword string `envconfig:"BREWBAR_DB_PASSWORD"`
	LegacyName     string `envconfig:"BREWBAR_DB_NAME"`
	LegacySSLMode  string `envconfig:"BREWBAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BREWBAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BREWBAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BREWBAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BREWBAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BREWBAR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BREWBAR_REDIS_ADDR"`
	Password     string        `envconfig:"BREWBAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"BREWBAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BREWBAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BREWBAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BREWBAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BREWBAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BREWBAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"BREWBAR_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"BREWBAR_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"BREWBAR_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"BREWBAR_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BREWBAR_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BREWBAR_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BREWBAR_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BREWBAR_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BREWBAR_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"BREWBAR_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"BREWBAR_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"BREWBAR_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"BREWBAR_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"BREWBAR_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"BREWBAR_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	AnonymousWindow    time.Duration `envconfig:"BREWBAR_AUTH_RATE_LIMIT_ANONYMOUS_WINDOW" default:"1m"`
	AnonymousIPLimit   int           `envconfig:"BREWBAR_AUTH_RATE_LIMIT_ANONYMOUS_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BREWBAR_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BREWBAR_AUTO_MIGRATE" default:"false"`
	Metrics     bool `envconfig:"BREWBAR_METRICS_ENABLED" default:"true"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"BREWBAR_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BREWBAR_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"BREWBAR_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BREWBAR_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"BREWBAR_GCS_BUCKET_NAME" required:"true"`
	UploadURLExpiry   time.Duration `envconfig:"BREWBAR_GCS_UPLOAD_URL_EXPIRY" required:"true"`
	DownloadURLExpiry time.Duration `envconfig:"BREWBAR_GCS_DOWNLOAD_URL_EXPIRY" required:"true"`
	MaxUploadMB       int           `envconfig:"BREWBAR_GCS_MAX_UPLOAD_MB" default:"10"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"BREWBAR_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription string `envconfig:"BREWBAR_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"BREWBAR_BIGQUERY_DATASET" default:"brewbar"`
	OrderFactsTable  string `envconfig:"BREWBAR_BIGQUERY_ORDER_FACTS_TABLE" default:"order_facts"`
	StatusFactsTable string `envconfig:"BREWBAR_BIGQUERY_STATUS_FACTS_TABLE" default:"order_status_facts"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BREWBAR_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BREWBAR_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BREWBAR_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// CheckoutConfig holds the flat shipping rule applied when an order is assembled.
type CheckoutConfig struct {
	ShippingFee           int64 `envconfig:"BREWBAR_CHECKOUT_SHIPPING_FEE" default:"25000"`
	FreeShippingThreshold int64 `envconfig:"BREWBAR_CHECKOUT_FREE_SHIPPING_THRESHOLD" default:"200000"`
}

type OrdersConfig struct {
	StrictTransitions bool `envconfig:"BREWBAR_ORDERS_STRICT_TRANSITIONS" default:"false"`
}

// MaintenanceConfig drives the cron worker jobs.
type MaintenanceConfig struct {
	Interval               time.Duration `envconfig:"BREWBAR_MAINTENANCE_INTERVAL" default:"1h"`
	OutboxRetentionDays    int           `envconfig:"BREWBAR_MAINTENANCE_OUTBOX_RETENTION_DAYS" default:"30"`
	PendingMediaHours      int           `envconfig:"BREWBAR_MAINTENANCE_PENDING_MEDIA_HOURS" default:"24"`
	AnonymousRetentionDays int           `envconfig:"BREWBAR_MAINTENANCE_ANONYMOUS_RETENTION_DAYS" default:"30"`
}

type SeedConfig struct {
	AdminEmail    string `envconfig:"BREWBAR_SEED_ADMIN_EMAIL"`
	AdminPassword string `envconfig:"BREWBAR_SEED_ADMIN_PASSWORD"`
	AdminName     string `envconfig:"BREWBAR_SEED_ADMIN_NAME" default:"Quản trị viên"`
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
