// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Storage backend identifiers.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Base URL for links embedded in emails (dashboard, unsubscribe)
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Record store backend: file, postgres, or mongo
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"file"`
	DataDir        string `env:"DATA_DIR" envDefault:"data"`
	DatabaseURL    string `env:"DATABASE_URL"`
	MongoURL       string `env:"MONGO_URL"`
	MongoDatabase  string `env:"MONGO_DATABASE" envDefault:"finwell"`

	// Cache (Redis): flow drafts, reminder idempotency keys
	RedisURL string `env:"REDIS_URL,required"`

	// Draft TTL for abandoned multi-step flows
	DraftTTL time.Duration `env:"DRAFT_TTL" envDefault:"30m"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Email delivery. The API provider is tried first, SMTP second.
	// A provider with missing credentials is skipped.
	MailAPIToken  string `env:"MAILERSEND_API_TOKEN"`
	MailAPIURL    string `env:"MAILERSEND_API_URL" envDefault:"https://api.mailersend.com/v1/email"`
	MailFromEmail string `env:"MAILERSEND_FROM_EMAIL"`
	MailFromName  string `env:"MAIL_FROM_NAME" envDefault:"Finwell"`
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      int    `env:"SMTP_PORT" envDefault:"465"`
	SMTPUser      string `env:"SMTP_USER"`
	SMTPPassword  string `env:"SMTP_PASSWORD"`

	// Delivery audit log (Postgres). Empty disables it.
	DeliveryLogURL string `env:"DELIVERY_LOG_URL"`

	// CORS allow list for cross-origin frontends. Empty denies all
	// cross-origin requests.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Per-IP rate limit on the auth and unsubscribe endpoints.
	RateLimitEnabled   bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitPerMinute int  `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`

	// Scheduler
	SchedulerInterval   time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"24h"`
	DefaultReminderDays int           `env:"DEFAULT_REMINDER_DAYS" envDefault:"7"`

	// Default language for notifications when none is recorded
	DefaultLang string `env:"DEFAULT_LANG" envDefault:"en"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate enforces cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendFile:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the file backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case BackendMongo:
		if c.MongoURL == "" {
			return fmt.Errorf("MONGO_URL is required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.DefaultReminderDays < 1 || c.DefaultReminderDays > 30 {
		return fmt.Errorf("DEFAULT_REMINDER_DAYS must be between 1 and 30, got %d", c.DefaultReminderDays)
	}
	return nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or inconsistent.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
