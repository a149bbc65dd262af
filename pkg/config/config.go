package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix  = ""
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Square       SquareConfig
	Sendgrid     SendgridConfig
	PDFRender    PDFRenderConfig
	Receipts     ReceiptsConfig
	Outbox       OutboxConfig
	Eventing     EventingConfig
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
	Env          string `envconfig:"MAKAO_APP_ENV" required:"true"`
	Port         string `envconfig:"MAKAO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MAKAO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MAKAO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MAKAO_DB_DSN"`
	Driver string `envconfig:"MAKAO_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"MAKAO_DB_HOST"`
	Port     int    `envconfig:"MAKAO_DB_PORT" default:"5432"`
	User     string `envconfig:"MAKAO_DB_USER"`
	Password string `envconfig:"MAKAO_DB_PASSWORD"`
	Name     string `envconfig:"MAKAO_DB_NAME"`
	SSLMode  string `envconfig:"MAKAO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MAKAO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MAKAO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MAKAO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MAKAO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MAKAO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MAKAO_REDIS_ADDR"`
	Password     string        `envconfig:"MAKAO_REDIS_PASSWORD"`
	DB           int           `envconfig:"MAKAO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MAKAO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MAKAO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MAKAO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MAKAO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MAKAO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MAKAO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MAKAO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MAKAO_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MAKAO_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MAKAO_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"MAKAO_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MAKAO_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"MAKAO_GCS_BUCKET_NAME" required:"true"`
	DownloadURLExpiry time.Duration `envconfig:"MAKAO_GCS_DOWNLOAD_URL_EXPIRY" default:"24h"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"MAKAO_PUBSUB_NOTIFICATION_TOPIC" default:"makao-notification-events"`
	NotificationSubscription string `envconfig:"MAKAO_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"MAKAO_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"MAKAO_SQUARE_ENV" default:"sandbox"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type SendgridConfig struct {
	APIKey      string `envconfig:"MAKAO_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"MAKAO_SENDGRID_FROM_EMAIL" default:"bookings@makao.africa"`
}

type PDFRenderConfig struct {
	BaseURL        string        `envconfig:"MAKAO_PDF_RENDERER_URL" required:"true"`
	ContentTimeout time.Duration `envconfig:"MAKAO_PDF_CONTENT_TIMEOUT" default:"15s"`
	RequestTimeout time.Duration `envconfig:"MAKAO_PDF_REQUEST_TIMEOUT" default:"30s"`
}

type ReceiptsConfig struct {
	VerifyBaseURL string        `envconfig:"MAKAO_RECEIPT_VERIFY_BASE_URL" default:"https://makao.africa/receipts/verify"`
	UploadRetries int           `envconfig:"MAKAO_RECEIPT_UPLOAD_RETRIES" default:"3"`
	UploadBackoff time.Duration `envconfig:"MAKAO_RECEIPT_UPLOAD_BACKOFF" default:"500ms"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MAKAO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MAKAO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MAKAO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"MAKAO_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for name, value := range map[string]string{
		"MAKAO_DB_HOST": db.Host,
		"MAKAO_DB_USER": db.User,
		"MAKAO_DB_NAME": db.Name,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either MAKAO_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
