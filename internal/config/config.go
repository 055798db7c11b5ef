// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Supported notification channels.
const (
	ChannelDisplay = "display"
	ChannelSMTP    = "smtp"
	ChannelSNS     = "sns"
	ChannelWebhook = "webhook"
)

// Config holds all application configuration.
// All fields are populated from environment variables and are static for the
// lifetime of the process.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Persistent store. DATABASE_URL is a file path for sqlite and a
	// connection URL for postgres.
	DBDriver      string        `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseURL   string        `env:"DATABASE_URL" envDefault:"data/db.sqlite3"`
	DBPoolSize    int           `env:"DB_POOL_SIZE" envDefault:"5"`
	DBBusyTimeout time.Duration `env:"DB_BUSY_TIMEOUT" envDefault:"30s"`

	// Redis is optional. Without it sessions and rate limits stay in process.
	RedisURL string `env:"REDIS_URL"`

	// Budget
	TotalBudget int64 `env:"TOTAL_BUDGET" envDefault:"5000000"`
	MaxProjects int   `env:"MAX_PROJECTS" envDefault:"293"`

	// Verification
	TokenExpiryHours        int           `env:"TOKEN_EXPIRY_HOURS" envDefault:"24"`
	MaxVerificationAttempts int           `env:"MAX_VERIFICATION_ATTEMPTS" envDefault:"5"`
	VerificationCooldown    time.Duration `env:"VERIFICATION_COOLDOWN" envDefault:"15m"`
	AllowedEmails           []string      `env:"ALLOWED_EMAILS" envSeparator:"," envDefault:"test@example.com"`
	VerifyURL               string        `env:"VERIFY_URL" envDefault:"http://localhost:8080/api/v1/verify"`

	// Notification
	NotifyChannel string `env:"NOTIFY_CHANNEL" envDefault:"display"`
	EmailFrom     string `env:"EMAIL_FROM" envDefault:"noreply@political-awards.org"`
	EmailSubject  string `env:"EMAIL_SUBJECT" envDefault:"Verify your Political Awards allocation account"`
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername  string `env:"SMTP_USERNAME"`
	SMTPPassword  string `env:"SMTP_PASSWORD"`
	SNSTopicARN   string `env:"SNS_TOPIC_ARN"`
	WebhookURL    string `env:"WEBHOOK_URL"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`

	// AWS (S3 catalog sources and SNS notifications)
	AWSRegion      string `env:"AWS_REGION" envDefault:"eu-west-2"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"`
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`

	// Catalogs: local paths or s3://bucket/key URIs
	ProjectsSource string `env:"PROJECTS_SOURCE" envDefault:"data/projects.csv"`
	WebsitesSource string `env:"WEBSITES_SOURCE" envDefault:"data/website_data.csv"`

	// Sessions
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	DemoUserEmail string        `env:"DEMO_USER_EMAIL"`

	// Rate limiting (per client IP)
	RateLimitEnabled     bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	MaxRequestsPerMinute int  `env:"MAX_REQUESTS_PER_MINUTE" envDefault:"60"`
	RateLimitBurst       int  `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// TokenTTL returns the verification token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenExpiryHours) * time.Hour
}

// DemoUser returns the demo user email. It is only honoured in development.
func (c *Config) DemoUser() string {
	if !c.IsDevelopment() {
		return ""
	}
	return strings.TrimSpace(c.DemoUserEmail)
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

// Validate checks values that env parsing cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL must not be empty"))
	}

	switch c.NotifyChannel {
	case ChannelDisplay:
	case ChannelSMTP:
		if c.SMTPHost == "" {
			errs = append(errs, errors.New("SMTP_HOST is required for the smtp channel"))
		}
	case ChannelSNS:
		if c.SNSTopicARN == "" {
			errs = append(errs, errors.New("SNS_TOPIC_ARN is required for the sns channel"))
		}
	case ChannelWebhook:
		if c.WebhookURL == "" || c.WebhookSecret == "" {
			errs = append(errs, errors.New("WEBHOOK_URL and WEBHOOK_SECRET are required for the webhook channel"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported NOTIFY_CHANNEL %q", c.NotifyChannel))
	}

	if c.TotalBudget <= 0 {
		errs = append(errs, errors.New("TOTAL_BUDGET must be positive"))
	}
	if c.MaxProjects <= 0 {
		errs = append(errs, errors.New("MAX_PROJECTS must be positive"))
	}
	if c.TokenExpiryHours <= 0 {
		errs = append(errs, errors.New("TOKEN_EXPIRY_HOURS must be positive"))
	}
	if c.MaxVerificationAttempts <= 0 {
		errs = append(errs, errors.New("MAX_VERIFICATION_ATTEMPTS must be positive"))
	}
	if c.DBPoolSize <= 0 {
		errs = append(errs, errors.New("DB_POOL_SIZE must be positive"))
	}

	return errors.Join(errs...)
}

// Load reads an optional .env file from the working directory, then parses
// environment variables and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return parse()
}

// LoadFile is like Load but reads the given env file, which must exist.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return parse()
}

func parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.AllowedEmails = normalizeList(cfg.AllowedEmails)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	return normalizeList(strings.Split(raw, ","))
}

func normalizeList(items []string) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
