// Package app assembles the components shared by the API server and the
// budgetctl operator CLI from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/penshort/budgetdesk/internal/auth"
	"github.com/penshort/budgetdesk/internal/awsconf"
	"github.com/penshort/budgetdesk/internal/catalog"
	"github.com/penshort/budgetdesk/internal/config"
	"github.com/penshort/budgetdesk/internal/notify"
	"github.com/penshort/budgetdesk/internal/repository"
	"github.com/penshort/budgetdesk/internal/service"
)

// NewLogger initializes the slog logger based on configuration and installs
// it as the default.
func NewLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: ParseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// ParseLogLevel converts string log level to slog.Level.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OpenStore opens and migrates the repository. Connection details are
// redacted from errors.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repository.Repository, error) {
	repo, err := repository.Open(ctx, repository.Options{
		Driver:      cfg.DBDriver,
		URL:         cfg.DatabaseURL,
		PoolSize:    cfg.DBPoolSize,
		BusyTimeout: cfg.DBBusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store %s: %s", cfg.DBDriver, RedactURL(cfg.DatabaseURL), SanitizeError(err, cfg.DatabaseURL))
	}

	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	logger.Info("store_ready",
		slog.String("driver", cfg.DBDriver),
		slog.String("database_url", RedactURL(cfg.DatabaseURL)),
	)
	return repo, nil
}

// AWS lazily loads the shared AWS configuration. Only the S3 catalog
// source and the SNS channel need it.
type AWS struct {
	opts   awsconf.Options
	cfg    aws.Config
	loaded bool
}

// NewAWS creates an AWS loader from configuration.
func NewAWS(cfg *config.Config) *AWS {
	return &AWS{opts: awsconf.Options{
		Region:      cfg.AWSRegion,
		EndpointURL: cfg.AWSEndpointURL,
		AccessKeyID: cfg.AWSAccessKeyID,
		SecretKey:   cfg.AWSSecretKey,
	}}
}

func (a *AWS) config(ctx context.Context) (aws.Config, error) {
	if a.loaded {
		return a.cfg, nil
	}
	cfg, err := awsconf.Load(ctx, a.opts)
	if err != nil {
		return aws.Config{}, err
	}
	a.cfg, a.loaded = cfg, true
	return cfg, nil
}

// NewNotifier returns the notifier for the configured channel.
func NewNotifier(ctx context.Context, cfg *config.Config, awsLoader *AWS, logger *slog.Logger) (notify.Notifier, error) {
	switch cfg.NotifyChannel {
	case config.ChannelSMTP:
		return notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}), nil
	case config.ChannelWebhook:
		return notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:    cfg.WebhookURL,
			Secret: cfg.WebhookSecret,
		}), nil
	case config.ChannelSNS:
		awsCfg, err := awsLoader.config(ctx)
		if err != nil {
			return nil, err
		}
		return notify.NewSNSNotifier(awsconf.NewSNSClient(awsCfg, awsLoader.opts), cfg.SNSTopicARN), nil
	default:
		return notify.NewDisplayNotifier(logger), nil
	}
}

// Catalogs are the read-only datasets.
type Catalogs struct {
	Projects *catalog.Projects
	Websites *catalog.Websites
}

// LoadCatalogs loads both datasets. A source that cannot be read yields an
// empty dataset and a warning.
func LoadCatalogs(ctx context.Context, cfg *config.Config, awsLoader *AWS, logger *slog.Logger) Catalogs {
	return Catalogs{
		Projects: LoadProjects(ctx, cfg, awsLoader, logger),
		Websites: catalog.LoadWebsitesOrEmpty(ctx, source(ctx, cfg.WebsitesSource, awsLoader, logger), logger),
	}
}

// LoadProjects loads only the project catalog.
func LoadProjects(ctx context.Context, cfg *config.Config, awsLoader *AWS, logger *slog.Logger) *catalog.Projects {
	return catalog.LoadProjectsOrEmpty(ctx, source(ctx, cfg.ProjectsSource, awsLoader, logger), logger)
}

func source(ctx context.Context, location string, awsLoader *AWS, logger *slog.Logger) catalog.Source {
	var client catalog.S3Getter
	if catalog.IsS3(location) {
		awsCfg, err := awsLoader.config(ctx)
		if err != nil {
			logger.Warn("aws_config_unavailable", slog.String("error", err.Error()))
		} else {
			client = awsconf.NewS3Client(awsCfg, awsLoader.opts)
		}
	}

	src, err := catalog.ParseSource(location, client)
	if err != nil {
		logger.Warn("catalog_source_invalid",
			slog.String("source", location),
			slog.String("error", err.Error()),
		)
		return catalog.FileSource{Path: location}
	}
	return src
}

// VerificationConfig derives the verification policy from configuration.
func VerificationConfig(cfg *config.Config) service.VerificationConfig {
	return service.VerificationConfig{
		AllowList:   auth.NewAllowList(cfg.AllowedEmails),
		MaxAttempts: cfg.MaxVerificationAttempts,
		TokenTTL:    cfg.TokenTTL(),
		VerifyURL:   cfg.VerifyURL,
		Envelope: notify.Envelope{
			From:    cfg.EmailFrom,
			Subject: cfg.EmailSubject,
		},
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

// RedactURL strips the password from a connection URL. Plain paths are
// returned unchanged.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return passwordPattern.ReplaceAllString(parsed.String(), "password=redacted")
}

// SanitizeError renders err with every secret replaced by its redacted form.
func SanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := RedactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
