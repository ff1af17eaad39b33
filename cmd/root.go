package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version reported by the CLI and the MCP server
func SetVersion(v string) {
	version = v
}

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath      string
	credentialsPath string
	tokenPath       string
	logLevel        string
	logFormat       string
	retries         uint
	metricsTextfile string

	// metricsAddr is set by serve.
	metricsAddr string
}

// newRootCmd builds the command tree around a.
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gcal",
		Short: "Google Calendar from the command line",
		Long: `gcal is a typed client for the Google Calendar API.

It reads an OAuth token from disk, refreshes it when it has expired and
writes the refreshed token back. It can run as:
  - A command line tool for events, calendars and free/busy queries
  - An MCP (Model Context Protocol) server for AI assistants`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context(), cmd)
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "gcal version %s\n" .Version}}`)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.opts.configPath, "config", "", "Config file (default: gcal/config.yaml in the user config directory)")
	flags.StringVar(&a.opts.credentialsPath, "credentials", "", "OAuth client credentials file. Can also use GCAL_CREDENTIALS_PATH env var.")
	flags.StringVar(&a.opts.tokenPath, "token", "", "OAuth token file. Can also use GCAL_TOKEN_PATH env var.")
	flags.StringVar(&a.opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&a.opts.logFormat, "log-format", "", "Log format: text or json")
	flags.UintVar(&a.opts.retries, "retries", 0, "Attempts for idempotent calls including the first one; 1 disables retries")
	flags.StringVar(&a.opts.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file when the command finishes")

	rootCmd.AddCommand(newEventsCmd(a))
	rootCmd.AddCommand(newCalendarsCmd(a))
	rootCmd.AddCommand(newFreeBusyCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())

	return rootCmd
}

// Execute is the main entry point for the CLI application
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := newApp()
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	stop()

	if err != nil {
		os.Exit(1)
	}
}
