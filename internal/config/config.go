// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL"`   // trace|debug|info|warn|error
	Format   string `yaml:"format" env:"LOG_FORMAT"` // json|console
	Sampling bool   `yaml:"sampling"`                // enable sampling in prod
}

type DatabaseConfig struct {
	URL         string        `yaml:"url" env:"DATABASE_URL"`
	MaxConns    int32         `yaml:"max_conns"`
	MinConns    int32         `yaml:"min_conns"`
	MaxConnIdle time.Duration `yaml:"max_conn_idle"`
}

// RedisConfig is optional; an empty URL disables caching, rate limiting and
// the reconciler lock.
type RedisConfig struct {
	URL       string        `yaml:"url" env:"REDIS_URL"`
	Password  string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB        int           `yaml:"db"`
	CourseTTL time.Duration `yaml:"course_ttl"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type PaymentConfig struct {
	Gateway   string `yaml:"gateway"`
	KeyID     string `yaml:"key_id" env:"PAYMENT_KEY_ID"`
	KeySecret string `yaml:"key_secret" env:"PAYMENT_KEY_SECRET"`
	Currency  string `yaml:"currency" env:"PAYMENT_CURRENCY"`
}

type BusinessConfig struct {
	// TimeZone decides which calendar day "today" is for coupon windows.
	TimeZone string `yaml:"time_zone" env:"BUSINESS_TIME_ZONE"`
}

type RateLimitConfig struct {
	PurchasePerWindow int           `yaml:"purchase_per_window"`
	Window            time.Duration `yaml:"window"`
}

type ReconcilerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
	BatchSize  int           `yaml:"batch_size"`
}

type NotifyConfig struct {
	Enabled         bool          `yaml:"enabled" env:"NOTIFY_ENABLED"`
	CredentialsFile string        `yaml:"credentials_file" env:"GOOGLE_APPLICATION_CREDENTIALS"`
	ProjectID       string        `yaml:"project_id" env:"FIREBASE_PROJECT_ID"`
	Workers         int           `yaml:"workers"`
	QueueSize       int           `yaml:"queue_size"`
	MaxAttempts     int           `yaml:"max_attempts"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Payment    PaymentConfig    `yaml:"payment"`
	Business   BusinessConfig   `yaml:"business"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	Notify     NotifyConfig     `yaml:"notify"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig parses -config and -dev from the command line and loads the file.
func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()
	return Load(configPath, dev)
}

// Load reads the YAML file at path (a missing file is allowed), loads .env when
// present and lets environment variables override file values.
func Load(path string, dev bool) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			// env-only deployment
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	cfg.Server.ReadTimeout = orDuration(cfg.Server.ReadTimeout, 10*time.Second)
	cfg.Server.WriteTimeout = orDuration(cfg.Server.WriteTimeout, 15*time.Second)
	cfg.Server.RequestTimeout = orDuration(cfg.Server.RequestTimeout, 10*time.Second)
	cfg.Server.ShutdownTimeout = orDuration(cfg.Server.ShutdownTimeout, 10*time.Second)

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.CourseTTL = orDuration(cfg.Redis.CourseTTL, 5*time.Minute)

	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "course-purchase"
	}
	cfg.Auth.TokenTTL = orDuration(cfg.Auth.TokenTTL, 24*time.Hour)

	if cfg.Payment.Gateway == "" {
		cfg.Payment.Gateway = "simulated"
	}
	if cfg.Payment.Currency == "" {
		cfg.Payment.Currency = "INR"
	}
	if cfg.Business.TimeZone == "" {
		cfg.Business.TimeZone = "UTC"
	}

	if cfg.RateLimit.PurchasePerWindow <= 0 {
		cfg.RateLimit.PurchasePerWindow = 10
	}
	cfg.RateLimit.Window = orDuration(cfg.RateLimit.Window, time.Minute)

	cfg.Reconciler.Interval = orDuration(cfg.Reconciler.Interval, 5*time.Minute)
	cfg.Reconciler.StaleAfter = orDuration(cfg.Reconciler.StaleAfter, 2*time.Hour)
	if cfg.Reconciler.BatchSize <= 0 {
		cfg.Reconciler.BatchSize = 100
	}

	if cfg.Notify.Workers <= 0 {
		cfg.Notify.Workers = 2
	}
	if cfg.Notify.QueueSize <= 0 {
		cfg.Notify.QueueSize = 256
	}
	if cfg.Notify.MaxAttempts <= 0 {
		cfg.Notify.MaxAttempts = 3
	}
	cfg.Notify.RetryBackoff = orDuration(cfg.Notify.RetryBackoff, 500*time.Millisecond)
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Payment.KeySecret == "" {
		return errors.New("payment.key_secret is required")
	}
	if _, err := time.LoadLocation(c.Business.TimeZone); err != nil {
		return fmt.Errorf("business.time_zone: %w", err)
	}
	if c.Notify.Enabled && c.Notify.CredentialsFile == "" {
		return errors.New("notify.credentials_file is required when notify.enabled")
	}
	return nil
}

// Location returns the business time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Business.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func orDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
