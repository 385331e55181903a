// Package observability provides OpenTelemetry integration for distributed tracing.
//
// # Architecture Decision: Local Collector Mode
//
// Traces are exported over OTLP/HTTP to a local collector or agent instead
// of a remote API endpoint. This decision was made because:
//
//   - A local collector provides better reliability with buffering and retry
//   - Lower latency (localhost vs internet roundtrip)
//   - The collector handles backend authentication - no API keys in the app
//   - The same pipeline works with any OTLP-compatible backend
//
// # Verify the Collector
//
// Test the OTLP endpoint:
//
//	curl -v http://localhost:4318/v1/traces
//
// # Configuration
//
// Environment variables (optional):
//   - LESSONBANK_OTLP_ENDPOINT: Override collector endpoint (default: localhost:4318)
//   - LESSONBANK_ENVIRONMENT: Environment tag (default: dev)
//
// Config file (~/.lessonbank/config.yaml):
//
//	tracing:
//	  endpoint: "localhost:4318"
//	  environment: "dev"
//	  service_name: "lessonbank"
package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// Config for OTLP trace export setup.
type Config struct {
	// Endpoint is the OTLP/HTTP collector endpoint (default: localhost:4318)
	Endpoint string
	// Environment is the deployment environment (dev, staging, prod)
	Environment string
	// ServiceName is the service name reported on spans
	ServiceName string
}

// DefaultEndpoint is the default OTLP/HTTP collector endpoint.
const DefaultEndpoint = "localhost:4318"

// DefaultServiceName is reported when Config.ServiceName is empty.
const DefaultServiceName = "lessonbank"

// Setup installs a global TracerProvider exporting to the configured
// OTLP endpoint. Traces are batched and sent over OTLP HTTP protocol.
//
// Returns a shutdown function that flushes pending spans.
// A collector that cannot be reached disables tracing instead of
// failing startup.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (shutdown func(context.Context) error, err error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Create OTLP HTTP exporter pointing to the local collector
	// Collector handles authentication and forwarding to the backend
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(), // localhost doesn't need TLS
	)
	if err != nil {
		logger.Warn("failed to create trace exporter, tracing disabled", "error", err)
		return func(context.Context) error { return nil }, nil
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceName(serviceName),
	}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentName(cfg.Environment))
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(semconv.SchemaURL, attrs...))
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	logger.Debug("tracing enabled",
		"endpoint", endpoint,
		"service", serviceName,
		"environment", cfg.Environment,
	)

	return provider.Shutdown, nil
}
