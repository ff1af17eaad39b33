// Package instrumentation provides OpenTelemetry metrics and tracing for gcal.
//
// # Metrics
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Google API operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of Google API operation durations
//   - calendar_pages_fetched_total: Counter of list pages fetched by operation
//   - google_api_retries_total: Counter of retried operations
//
// OAuth Metrics:
//   - oauth_token_refresh_total: Counter of token refresh attempts by result
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for Google API calls (google.<service>.<operation>),
// token refreshes (oauth.refresh) and MCP tool invocations (tool.<name>).
//
// # Configuration
//
// Instrumentation is off by default. DefaultConfig reads:
//   - GCAL_INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: false)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: gcal)
//
// With the prometheus exporter, a one-shot CLI run can persist its metrics
// through Provider.WriteTextfile.
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
//		ServiceName:     "gcal",
//		ServiceVersion:  "0.1.0",
//		Enabled:         true,
//		MetricsExporter: instrumentation.ExporterPrometheus,
//	})
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordGoogleAPIOperation(ctx, "calendar", "events.list", "success", time.Since(start))
package instrumentation
