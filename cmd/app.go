package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/gcal/internal/calendar"
	"github.com/teemow/gcal/internal/config"
	"github.com/teemow/gcal/internal/google"
	"github.com/teemow/gcal/internal/instrumentation"
	"github.com/teemow/gcal/internal/logging"
	"github.com/teemow/gcal/internal/retry"
)

// app carries what the commands share once the configuration is loaded.
type app struct {
	opts rootOptions

	cfg      *config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider

	// clientOptions is applied to every calendar client; tests point it at
	// a fake service.
	clientOptions calendar.Options
	// authorized means clientOptions already carries an authenticated
	// HTTP client, so the credential store is skipped.
	authorized bool
}

func newApp() *app {
	return &app{}
}

// setup loads the configuration, applies the persistent flags and starts
// logging and instrumentation.
func (a *app) setup(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("credentials") {
		cfg.CredentialsPath = a.opts.credentialsPath
	}
	if flags.Changed("token") {
		cfg.TokenPath = a.opts.tokenPath
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = a.opts.logFormat
	}
	if flags.Changed("retries") {
		if a.opts.retries == 0 {
			return errors.New("--retries must be at least 1")
		}
		cfg.Retry.MaxAttempts = a.opts.retries
	}
	if a.opts.metricsTextfile != "" || a.opts.metricsAddr != "" {
		cfg.Instrumentation.Enabled = true
		cfg.Instrumentation.MetricsExporter = instrumentation.ExporterPrometheus
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	// stdout carries command output and the MCP stdio stream.
	a.logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(a.logger)

	a.provider, err = instrumentation.NewProvider(ctx, cfg.Telemetry(version))
	if err != nil {
		return fmt.Errorf("failed to initialize instrumentation: %w", err)
	}

	return nil
}

// newClient builds a calendar client from the credential store, refreshing
// the token if it has expired.
func (a *app) newClient(ctx context.Context) (*calendar.Client, error) {
	opts := a.clientOptions
	opts.Logger = a.logger
	opts.Metrics = a.provider.Metrics()
	opts.PageSize = a.cfg.PageSize
	opts.Retry = retry.New(retry.Config{
		MaxAttempts:  a.cfg.Retry.MaxAttempts,
		InitialDelay: a.cfg.Retry.InitialDelay,
		MaxDelay:     a.cfg.Retry.MaxDelay,
		Logger:       a.logger,
		Metrics:      opts.Metrics,
	})

	if a.authorized {
		return calendar.NewClient(ctx, opts)
	}

	store, err := google.NewCredentialStore(google.Config{
		CredentialsPath: a.cfg.CredentialsPath,
		TokenPath:       a.cfg.TokenPath,
		Logger:          a.logger,
		Metrics:         opts.Metrics,
	})
	if err != nil {
		return nil, err
	}

	if !store.HasToken() {
		return nil, fmt.Errorf("%w (looked for %s; set --token or GCAL_TOKEN_PATH)", google.ErrCredentialsNotFound, store.TokenPath())
	}
	return calendar.NewClientFromStore(ctx, store, opts)
}

// close writes the metrics textfile and flushes telemetry. It is safe to
// call when setup never ran.
func (a *app) close() {
	if a.provider == nil {
		return
	}

	if a.opts.metricsTextfile != "" {
		if err := a.provider.WriteTextfile(config.ExpandPath(a.opts.metricsTextfile)); err != nil {
			a.logger.Warn("failed to write metrics textfile", logging.Err(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.provider.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error during instrumentation shutdown: %v\n", err)
	}
}
