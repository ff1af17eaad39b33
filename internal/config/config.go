// Package config loads the gcal configuration from a YAML file and GCAL_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teemow/gcal/internal/instrumentation"
	"github.com/teemow/gcal/internal/logging"
)

// Default locations of the credential files.
const (
	DefaultCredentialsPath = "~/secrets/google-oauth/credentials.json"
	DefaultTokenPath       = "~/secrets/google-oauth/token.json"
)

// Page size bounds. The upper bound is the largest page the events
// collection accepts.
const (
	DefaultPageSize = 250
	MaxPageSize     = 2500
)

// Retry defaults.
const (
	DefaultRetryAttempts     = 3
	DefaultRetryInitialDelay = 500 * time.Millisecond
	DefaultRetryMaxDelay     = 10 * time.Second
)

// Config is the complete gcal configuration.
type Config struct {
	CredentialsPath string                `yaml:"credentials_path"`
	TokenPath       string                `yaml:"token_path"`
	PageSize        int64                 `yaml:"page_size"`
	Logging         LoggingConfig         `yaml:"logging"`
	Retry           RetryConfig           `yaml:"retry"`
	Instrumentation InstrumentationConfig `yaml:"instrumentation"`
}

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RetryConfig controls retries of idempotent remote calls. MaxAttempts
// counts the first call; 1 disables retries.
type RetryConfig struct {
	MaxAttempts  uint          `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// InstrumentationConfig mirrors instrumentation.Config for the config file.
type InstrumentationConfig struct {
	Enabled           bool    `yaml:"enabled"`
	MetricsExporter   string  `yaml:"metrics_exporter"`
	TracingExporter   string  `yaml:"tracing_exporter"`
	OTLPEndpoint      string  `yaml:"otlp_endpoint"`
	OTLPInsecure      bool    `yaml:"otlp_insecure"`
	TraceSamplingRate float64 `yaml:"trace_sampling_rate"`
}

// Default returns the configuration used when no file is given. Telemetry
// defaults honour the standard OpenTelemetry environment variables.
func Default() *Config {
	otel := instrumentation.DefaultConfig()
	return &Config{
		CredentialsPath: DefaultCredentialsPath,
		TokenPath:       DefaultTokenPath,
		PageSize:        DefaultPageSize,
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
		Retry: RetryConfig{
			MaxAttempts:  DefaultRetryAttempts,
			InitialDelay: DefaultRetryInitialDelay,
			MaxDelay:     DefaultRetryMaxDelay,
		},
		Instrumentation: InstrumentationConfig{
			Enabled:           otel.Enabled,
			MetricsExporter:   otel.MetricsExporter,
			TracingExporter:   otel.TracingExporter,
			OTLPEndpoint:      otel.OTLPEndpoint,
			OTLPInsecure:      otel.OTLPInsecure,
			TraceSamplingRate: otel.TraceSamplingRate,
		},
	}
}

// DefaultPath returns the config file looked up when none is given:
// gcal/config.yaml under the user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "gcal", "config.yaml")
}

// Load builds the configuration from the defaults, the YAML file at path and
// the GCAL_* environment, in that order of precedence. An empty path reads
// DefaultPath if that file exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		data, err := os.ReadFile(ExpandPath(path))
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case explicit || !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("GCAL_CREDENTIALS_PATH"); v != "" {
		c.CredentialsPath = v
	}
	if v := os.Getenv("GCAL_TOKEN_PATH"); v != "" {
		c.TokenPath = v
	}
	if v := os.Getenv("GCAL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GCAL_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("GCAL_PAGE_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("GCAL_PAGE_SIZE: %w", err)
		}
		c.PageSize = n
	}
	if v := os.Getenv("GCAL_RETRY_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("GCAL_RETRY_MAX_ATTEMPTS: %w", err)
		}
		c.Retry.MaxAttempts = uint(n)
	}
	return nil
}

// Validate fills unset values with defaults, expands ~ in paths and rejects
// values that cannot work.
func (c *Config) Validate() error {
	if c.CredentialsPath == "" {
		c.CredentialsPath = DefaultCredentialsPath
	}
	if c.TokenPath == "" {
		c.TokenPath = DefaultTokenPath
	}
	c.CredentialsPath = ExpandPath(c.CredentialsPath)
	c.TokenPath = ExpandPath(c.TokenPath)

	switch {
	case c.PageSize == 0:
		c.PageSize = DefaultPageSize
	case c.PageSize < 0 || c.PageSize > MaxPageSize:
		return fmt.Errorf("page_size must be between 1 and %d, got %d", MaxPageSize, c.PageSize)
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	if c.Logging.Format == "" {
		c.Logging.Format = logging.FormatText
	}
	if f := strings.ToLower(c.Logging.Format); f != logging.FormatText && f != logging.FormatJSON {
		return fmt.Errorf("invalid log format %q, must be one of: text, json", c.Logging.Format)
	}

	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = DefaultRetryAttempts
	}
	if c.Retry.InitialDelay < 0 || c.Retry.MaxDelay < 0 {
		return fmt.Errorf("retry delays must not be negative")
	}
	if c.Retry.InitialDelay == 0 {
		c.Retry.InitialDelay = DefaultRetryInitialDelay
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = DefaultRetryMaxDelay
	}

	telemetry := c.Telemetry("")
	return telemetry.Validate()
}

// Telemetry returns the instrumentation settings for the given build version.
func (c *Config) Telemetry(version string) instrumentation.Config {
	cfg := instrumentation.DefaultConfig()
	if version != "" {
		cfg.ServiceVersion = version
	}
	cfg.Enabled = c.Instrumentation.Enabled
	cfg.MetricsExporter = c.Instrumentation.MetricsExporter
	cfg.TracingExporter = c.Instrumentation.TracingExporter
	cfg.OTLPEndpoint = c.Instrumentation.OTLPEndpoint
	cfg.OTLPInsecure = c.Instrumentation.OTLPInsecure
	cfg.TraceSamplingRate = c.Instrumentation.TraceSamplingRate
	return cfg
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
