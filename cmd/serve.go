package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/gcal/internal/logging"
	"github.com/teemow/gcal/internal/resources"
	"github.com/teemow/gcal/internal/server"
	"github.com/teemow/gcal/internal/tools/calendar_tools"
)

func newServeCmd(a *app) *cobra.Command {
	var yolo bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server on standard input/output to
provide Google Calendar tools for AI assistants.

Safety Mode:
  By default, the server operates in read-only mode, providing only tools that
  read events, calendars and availability. Use --yolo to enable the tools that
  create, change or delete events and calendars.

Credentials:
  The OAuth token is read from --token (or GCAL_TOKEN_PATH) on the first tool
  call, so the server starts even before a token has been provisioned.

Resources:
  calendar://calendars lists the calendars and calendar://events/upcoming the
  events of the primary calendar in the next 24 hours.

Metrics:
  --metrics-addr serves Prometheus metrics on /metrics and a liveness probe
  on /healthz.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a, !yolo)
		},
	}

	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (creating, changing and deleting events and calendars). Default is read-only mode.")
	cmd.Flags().StringVar(&a.opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. "+server.DefaultMetricsAddr)

	return cmd
}

func runServe(ctx context.Context, a *app, readOnly bool) error {
	serverContext, err := server.NewServerContext(ctx, server.Options{
		NewClient: a.newClient,
		Logger:    a.logger,
		Metrics:   a.provider.Metrics(),
		ReadOnly:  readOnly,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			a.logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	if a.opts.metricsAddr != "" {
		metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
			Addr:     a.opts.metricsAddr,
			Provider: a.provider,
			Logger:   a.logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	mcpSrv := newMCPServer()
	if err := calendar_tools.RegisterCalendarTools(mcpSrv, serverContext); err != nil {
		return err
	}
	if err := resources.RegisterCalendarResources(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register resources: %w", err)
	}

	if readOnly {
		a.logger.Info("starting MCP server in read-only mode (use --yolo to enable write operations)")
	} else {
		a.logger.Info("starting MCP server with write operations enabled")
	}

	return runStdioServer(mcpSrv)
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("gcal", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
