package config

import (
	"fmt"
	"time"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultBaseURL    = "https://api.routeway.ai/v1"
	DefaultTimeout    = 120 * time.Second
	DefaultMaxRetries = 3
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultUsagePath  = "routeway-usage.db"
)

// Config is the client configuration, typically loaded from a YAML
// file. Zero values mean "use the default".
type Config struct {
	// APIKey authenticates against the API. Usually left empty in the
	// file and supplied via ROUTEWAY_API_KEY instead.
	APIKey string `yaml:"api_key"`

	// BaseURL is the API endpoint base URL.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single blocking request attempt.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the retry budget after the first attempt. Nil
	// means the default; an explicit 0 disables retrying.
	MaxRetries *int `yaml:"max_retries"`

	// DefaultHeaders are extra headers applied to every request.
	DefaultHeaders map[string]string `yaml:"default_headers"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Usage configures the local token-usage ledger.
	Usage UsageConfig `yaml:"usage"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn, or error.
	Level string `yaml:"level"`

	// Format is the output format: json or text.
	Format string `yaml:"format"`
}

// UsageConfig configures the local usage ledger.
type UsageConfig struct {
	// Enabled turns the ledger on.
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file.
	Path string `yaml:"path"`

	// RetentionDays is how long records are kept. Zero keeps forever.
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for scheduled pruning, for
	// example "0 3 * * *". Empty disables the scheduler.
	PruneSchedule string `yaml:"prune_schedule"`
}

// ApplyDefaults fills in defaults for every field the file omitted.
func ApplyDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries == nil {
		retries := DefaultMaxRetries
		cfg.MaxRetries = &retries
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Usage.Path == "" {
		cfg.Usage.Path = DefaultUsagePath
	}
}

// Validate reports the first inconsistency found in cfg.
func Validate(cfg *Config) error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("base_url must be non-empty")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.MaxRetries != nil && *cfg.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative, got %d", *cfg.MaxRetries)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", cfg.Logging.Format)
	}

	if cfg.Usage.RetentionDays < 0 {
		return fmt.Errorf("usage retention_days must be non-negative, got %d", cfg.Usage.RetentionDays)
	}

	return nil
}
