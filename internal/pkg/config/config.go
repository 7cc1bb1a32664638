package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	CORS      CORSConfig
	Log       LogConfig
	JWT       JWTConfig
	Panel     PanelConfig
	PayPal    PayPalConfig
	Redis     RedisConfig
	Billing   BillingConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port    string `envconfig:"PORT" required:"true"`
	GinMode string `envconfig:"GIN_MODE" default:"release"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"20"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
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
	Issuer   string `envconfig:"JWT_ISSUER" default:""`
	Duration string `envconfig:"JWT_DURATION" default:"24h"`
}

// PanelConfig points at the hosting panel's application API.
type PanelConfig struct {
	BaseURL        string        `envconfig:"PANEL_URL" required:"true"`
	APIKey         string        `envconfig:"PANEL_API_KEY" required:"true"`
	RequestTimeout time.Duration `envconfig:"PANEL_REQUEST_TIMEOUT" default:"20s"`
	MaxRetries     uint64        `envconfig:"PANEL_MAX_RETRIES" default:"2"`
	RetryBase      time.Duration `envconfig:"PANEL_RETRY_BASE" default:"500ms"`
	Concurrency    int           `envconfig:"PANEL_RECONCILE_CONCURRENCY" default:"4"`
}

// WorstCaseCall is how long one panel operation can take with every retry exhausted.
func (c PanelConfig) WorstCaseCall() time.Duration {
	total := c.RequestTimeout * time.Duration(c.MaxRetries+1)
	wait := c.RetryBase
	for range c.MaxRetries {
		total += wait
		wait *= 2
	}
	return total
}

type PayPalConfig struct {
	BaseURL        string        `envconfig:"PAYPAL_BASE_URL" default:"https://api-m.sandbox.paypal.com"`
	ClientID       string        `envconfig:"PAYPAL_CLIENT_ID" required:"true"`
	ClientSecret   string        `envconfig:"PAYPAL_CLIENT_SECRET" required:"true"`
	WebhookID      string        `envconfig:"PAYPAL_WEBHOOK_ID" default:""`
	ReturnURL      string        `envconfig:"PAYPAL_RETURN_URL" default:"http://localhost:3000/billing/success"`
	CancelURL      string        `envconfig:"PAYPAL_CANCEL_URL" default:"http://localhost:3000/billing/cancel"`
	RequestTimeout time.Duration `envconfig:"PAYPAL_REQUEST_TIMEOUT" default:"20s"`
}

// RedisConfig enables the distributed provisioning lock. Empty Addr falls back to an
// in-process lock.
type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR" default:""`
	Password string        `envconfig:"REDIS_PASSWORD" default:""`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	LockTTL  time.Duration `envconfig:"REDIS_LOCK_TTL" default:"3m"`
}

// BillingConfig holds defaults used when the settings table has no value.
type BillingConfig struct {
	Currency              string          `envconfig:"BILLING_CURRENCY" default:"USD"`
	TaxPercent            decimal.Decimal `envconfig:"BILLING_TAX_PERCENT" default:"0"`
	ReferralReferrerCoins int64           `envconfig:"REFERRAL_REFERRER_COINS" default:"100"`
	ReferralRefereeCoins  int64           `envconfig:"REFERRAL_REFEREE_COINS" default:"50"`
	SettingsCacheTTL      time.Duration   `envconfig:"SETTINGS_CACHE_TTL" default:"30s"`
	EffectTimeout         time.Duration   `envconfig:"EFFECT_TIMEOUT" default:"5s"`
}

type SchedulerConfig struct {
	Enabled         bool   `envconfig:"SCHEDULER_ENABLED" default:"true"`
	GrantExpirySpec string `envconfig:"GRANT_EXPIRY_CRON" default:"@every 5m"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

// LoadConfig reads an optional .env file, then the process environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Panel.RequestTimeout < 15*time.Second || c.Panel.RequestTimeout > 30*time.Second {
		return fmt.Errorf("PANEL_REQUEST_TIMEOUT must be between 15s and 30s, got %s", c.Panel.RequestTimeout)
	}
	// a create holds the lock across the panel create and a possible compensating delete
	if minTTL := 2 * c.Panel.WorstCaseCall(); c.Redis.Addr != "" && c.Redis.LockTTL < minTTL {
		return fmt.Errorf("REDIS_LOCK_TTL must be at least %s, got %s", minTTL, c.Redis.LockTTL)
	}
	return nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:    "8889", // Test port
			GinMode: "test",
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
			MaxConns: 5,
		},
		Log: LogConfig{
			Level:      "error", // Error level only for tests
			TimeZone:   "UTC",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		JWT: JWTConfig{
			Secret:   "test-secret-key-for-hostdash",
			Issuer:   "hostdash-test",
			Duration: "1h",
		},
		Panel: PanelConfig{
			BaseURL:        "http://localhost:18080",
			APIKey:         "test-panel-key",
			RequestTimeout: 15 * time.Second,
			MaxRetries:     2,
			RetryBase:      time.Millisecond,
			Concurrency:    4,
		},
		PayPal: PayPalConfig{
			BaseURL:        "http://localhost:18081",
			ClientID:       "test-client",
			ClientSecret:   "test-secret",
			WebhookID:      "WH-TEST",
			RequestTimeout: 15 * time.Second,
		},
		Redis: RedisConfig{
			LockTTL: 3 * time.Minute,
		},
		Billing: BillingConfig{
			Currency:              "USD",
			TaxPercent:            decimal.Zero,
			ReferralReferrerCoins: 100,
			ReferralRefereeCoins:  50,
			EffectTimeout:         2 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:         false,
			GrantExpirySpec: "@every 5m",
		},
	}
}
