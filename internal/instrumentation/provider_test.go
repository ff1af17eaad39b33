package instrumentation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewProvider_Disabled(t *testing.T) {
	config := Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        false,
	}

	provider, err := NewProvider(context.Background(), config)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}

	if provider.Metrics() == nil {
		t.Error("expected metrics to be non-nil even when disabled")
	}

	if provider.Registry() != nil {
		t.Error("expected no registry for disabled provider")
	}

	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
}

func TestNewProvider_PrometheusExporter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	if !provider.Enabled() {
		t.Error("expected provider to be enabled")
	}

	if provider.Registry() == nil {
		t.Error("expected registry to be non-nil for prometheus exporter")
	}

	if provider.Tracer("test") == nil {
		t.Error("expected tracer to be non-nil")
	}
}

func TestNewProvider_StdoutExporter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterStdout,
		TracingExporter: ExporterStdout,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	if provider.Registry() != nil {
		t.Error("expected registry to be nil for stdout exporter")
	}

	err = provider.WriteTextfile(filepath.Join(t.TempDir(), "gcal.prom"))
	if !errors.Is(err, ErrNoPrometheusRegistry) {
		t.Errorf("expected ErrNoPrometheusRegistry, got %v", err)
	}
}

func TestNewProvider_InvalidExporters(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{
			name: "invalid metrics exporter",
			config: Config{
				Enabled:         true,
				MetricsExporter: "invalid",
				TracingExporter: ExporterNone,
			},
		},
		{
			name: "invalid tracing exporter",
			config: Config{
				Enabled:         true,
				MetricsExporter: ExporterPrometheus,
				TracingExporter: "invalid",
			},
		},
		{
			name: "otlp tracing without endpoint",
			config: Config{
				Enabled:         true,
				MetricsExporter: ExporterPrometheus,
				TracingExporter: ExporterOTLP,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tt.config.ServiceName = "test-service"
			if _, err := NewProvider(ctx, tt.config); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestProvider_WriteTextfile(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	provider.Metrics().RecordGoogleAPIOperation(ctx, ServiceCalendar, "events.list", StatusSuccess, 120*time.Millisecond)
	provider.Metrics().RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)

	path := filepath.Join(t.TempDir(), "gcal.prom")
	if err := provider.WriteTextfile(path); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "google_api_operations_total") {
		t.Errorf("expected google_api_operations_total in textfile, got:\n%s", out)
	}
	if !strings.Contains(out, `operation="events.list"`) {
		t.Errorf("expected events.list operation label in textfile, got:\n%s", out)
	}
	if !strings.Contains(out, "oauth_token_refresh_total") {
		t.Errorf("expected oauth_token_refresh_total in textfile, got:\n%s", out)
	}
}

func TestProvider_Tracer_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        false,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if provider.Tracer("test") == nil {
		t.Error("expected tracer to be non-nil (no-op)")
	}
}
