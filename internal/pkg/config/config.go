package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, secrets)
// - default: Values common across all environments (timezone, timeouts, limits)
// -----------------------------------------------------------------------------

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	CORS      CORSConfig
	Log       LogConfig
	JWT       JWTConfig
	Payment   PaymentConfig
	Webhook   WebhookConfig
	RateLimit RateLimitConfig
	Ledger    LedgerConfig
	Telemetry TelemetryConfig
	Tracing   TracingConfig
}

type ServerConfig struct {
	Port            string        `envconfig:"PORT" required:"true"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	// MaxBodyBytes caps every request body the API accepts.
	MaxBodyBytes int64 `envconfig:"MAX_REQUEST_BODY_BYTES" default:"131072"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`

	MaxConns        int32         `envconfig:"DB_MAX_CONNS" default:"20"`
	MinConns        int32         `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `envconfig:"DB_MAX_CONN_IDLE_TIME" default:"10m"`
	ConnectTimeout  time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"5s"`

	// session-level guards so a request stuck on a row lock fails instead of hanging
	LockTimeout                     time.Duration `envconfig:"DB_LOCK_TIMEOUT" default:"5s"`
	StatementTimeout                time.Duration `envconfig:"DB_STATEMENT_TIMEOUT" default:"15s"`
	IdleInTransactionSessionTimeout time.Duration `envconfig:"DB_IDLE_IN_TX_TIMEOUT" default:"30s"`

	EnableTracing bool `envconfig:"DB_ENABLE_TRACING" default:"false"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length,Retry-After,X-RateLimit-Remaining,X-RateLimit-Reset"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

type JWTConfig struct {
	Secret   string `envconfig:"JWT_SECRET" required:"true"`
	Duration string `envconfig:"JWT_DURATION" default:"24h"`
}

type PaymentConfig struct {
	SecretKey         string        `envconfig:"PAYMENT_SECRET_KEY" required:"true"`
	APITimeout        time.Duration `envconfig:"PAYMENT_API_TIMEOUT" default:"10s"`
	MaxNetworkRetries int64         `envconfig:"PAYMENT_MAX_NETWORK_RETRIES" default:"2"`
	// APIURL overrides the processor endpoint, e.g. for a local mock server.
	APIURL string `envconfig:"PAYMENT_API_URL"`
}

type WebhookConfig struct {
	Secret          string        `envconfig:"WEBHOOK_SECRET" required:"true"`
	SignatureHeader string        `envconfig:"WEBHOOK_SIGNATURE_HEADER" default:"Stripe-Signature"`
	Tolerance       time.Duration `envconfig:"WEBHOOK_TOLERANCE" default:"300s"`
}

type RateLimitConfig struct {
	IntentPerUser    int           `envconfig:"RATE_LIMIT_INTENT_PER_USER" default:"10"`
	IntentPerAddress int           `envconfig:"RATE_LIMIT_INTENT_PER_ADDRESS" default:"60"`
	IntentWindow     time.Duration `envconfig:"RATE_LIMIT_INTENT_WINDOW" default:"1m"`
	WebhookLimit     int           `envconfig:"RATE_LIMIT_WEBHOOK" default:"120"`
	WebhookWindow    time.Duration `envconfig:"RATE_LIMIT_WEBHOOK_WINDOW" default:"1m"`
	// RedisAddr switches the limiter to the shared Redis store when set.
	RedisAddr     string        `envconfig:"RATE_LIMIT_REDIS_ADDR"`
	RedisPassword string        `envconfig:"RATE_LIMIT_REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"RATE_LIMIT_REDIS_DB" default:"0"`
	KeyPrefix     string        `envconfig:"RATE_LIMIT_KEY_PREFIX" default:"ratelimit:"`
	SweepInterval time.Duration `envconfig:"RATE_LIMIT_SWEEP_INTERVAL" default:"1m"`
}

type LedgerConfig struct {
	// Retention must outlive the processor's redelivery horizon.
	Retention     time.Duration `envconfig:"LEDGER_RETENTION" default:"720h"`
	PruneInterval time.Duration `envconfig:"LEDGER_PRUNE_INTERVAL" default:"1h"`
}

type TelemetryConfig struct {
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"development"`
	Release     string `envconfig:"SENTRY_RELEASE"`
}

type TracingConfig struct {
	Enabled       bool    `envconfig:"OTEL_TRACING_ENABLED" default:"false"`
	ServiceName   string  `envconfig:"OTEL_SERVICE_NAME" default:"rental-settlement"`
	CollectorAddr string  `envconfig:"OTEL_COLLECTOR_ADDR" default:"localhost:4317"`
	Insecure      bool    `envconfig:"OTEL_COLLECTOR_INSECURE" default:"true"`
	SampleRatio   float64 `envconfig:"OTEL_SAMPLE_RATIO" default:"1"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func (c *JWTConfig) TokenDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Duration)
	if err != nil {
		return 0, fmt.Errorf("invalid JWT_DURATION %q: %w", c.Duration, err)
	}
	return d, nil
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings that envconfig accepts but the service cannot run with.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Webhook.Secret) == "":
		return fmt.Errorf("WEBHOOK_SECRET must not be empty")
	case strings.TrimSpace(c.JWT.Secret) == "":
		return fmt.Errorf("JWT_SECRET must not be empty")
	case strings.TrimSpace(c.Payment.SecretKey) == "":
		return fmt.Errorf("PAYMENT_SECRET_KEY must not be empty")
	case c.Server.MaxBodyBytes <= 0:
		return fmt.Errorf("MAX_REQUEST_BODY_BYTES must be positive, got %d", c.Server.MaxBodyBytes)
	case c.Webhook.Tolerance <= 0:
		return fmt.Errorf("WEBHOOK_TOLERANCE must be positive, got %s", c.Webhook.Tolerance)
	case c.RateLimit.IntentPerUser <= 0 || c.RateLimit.IntentPerAddress <= 0 || c.RateLimit.WebhookLimit <= 0:
		return fmt.Errorf("rate limits must be positive")
	case c.RateLimit.IntentWindow <= 0 || c.RateLimit.WebhookWindow <= 0:
		return fmt.Errorf("rate limit windows must be positive")
	case c.Ledger.Retention < 0:
		return fmt.Errorf("LEDGER_RETENTION must not be negative, got %s", c.Ledger.Retention)
	}
	if _, err := c.JWT.TokenDuration(); err != nil {
		return err
	}
	return nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8889", // Test port
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: time.Second,
			MaxBodyBytes:    128 << 10,
		},
		DB: DBConfig{
			Host:                            "localhost",
			Port:                            "15433", // Test DB port
			User:                            "test",
			Password:                        "test",
			DBName:                          "test_db",
			SSLMode:                         "disable",
			TimeZone:                        "UTC",
			MaxConns:                        10,
			MinConns:                        1,
			MaxConnLifetime:                 time.Hour,
			MaxConnIdleTime:                 time.Minute,
			ConnectTimeout:                  5 * time.Second,
			LockTimeout:                     2 * time.Second,
			StatementTimeout:                5 * time.Second,
			IdleInTransactionSessionTimeout: 10 * time.Second,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"http://localhost:3000"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
			MaxAge:       time.Hour,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "UTC",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 0,
		},
		JWT: JWTConfig{
			Secret:   "test-jwt-secret",
			Duration: "1h",
		},
		Payment: PaymentConfig{
			SecretKey:         "sk_test_dummy",
			APITimeout:        2 * time.Second,
			MaxNetworkRetries: 0,
		},
		Webhook: WebhookConfig{
			Secret:          "whsec_test_secret",
			SignatureHeader: "Stripe-Signature",
			Tolerance:       300 * time.Second,
		},
		RateLimit: RateLimitConfig{
			IntentPerUser:    10,
			IntentPerAddress: 60,
			IntentWindow:     time.Minute,
			WebhookLimit:     120,
			WebhookWindow:    time.Minute,
			KeyPrefix:        "ratelimit:test:",
			SweepInterval:    time.Minute,
		},
		Ledger: LedgerConfig{
			Retention:     720 * time.Hour,
			PruneInterval: time.Hour,
		},
		Telemetry: TelemetryConfig{
			Environment: "test",
		},
		Tracing: TracingConfig{
			ServiceName: "rental-settlement-test",
			SampleRatio: 1,
		},
	}
}
