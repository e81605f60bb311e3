// Package observability wires OpenTelemetry trace export into Genkit.
//
// Genkit already records spans for every flow, model call, and tool call
// on its own TracerProvider. This package attaches an OTLP/HTTP exporter
// to that provider so the spans reach whatever collector the operator
// runs (an otel-collector, Jaeger, a Datadog agent in OTLP mode). Nothing
// is exported unless observability.otlp_endpoint is set in the config.
//
// Genkit constructs the provider itself, so service name and environment
// cannot be passed as resource options; they travel through the standard
// OTEL_SERVICE_NAME and OTEL_RESOURCE_ATTRIBUTES variables, which the
// provider reads at initialization. Setup must therefore run before
// genkit.Init.
package observability

import (
	"context"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/movitransit/movi/internal/log"
)

// Config for trace export.
type Config struct {
	// Endpoint is the OTLP/HTTP collector address as host:port, no scheme.
	// Empty disables tracing entirely.
	Endpoint string
	// ServiceName tags the spans in the collector (default: movi).
	ServiceName string
	// Environment becomes the deployment.environment resource attribute.
	Environment string

	Logger log.Logger
}

// DefaultServiceName tags spans when the config does not override it.
const DefaultServiceName = "movi"

// Setup registers an OTLP/HTTP exporter with Genkit's TracerProvider.
//
// Returns a shutdown function that flushes pending spans. With an empty
// endpoint, or when the exporter cannot be built, tracing stays off and
// the returned shutdown is a no-op; span export failures at runtime are
// never fatal to the application.
func Setup(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	noop := func(context.Context) error { return nil }

	if cfg.Endpoint == "" {
		logger.Debug("tracing disabled, no OTLP endpoint configured")
		return noop, nil
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	_ = os.Setenv("OTEL_SERVICE_NAME", serviceName)
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	// Collectors sit next to the service; plain HTTP keeps the local
	// loop free of certificate management.
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("creating OTLP exporter, tracing disabled", "error", err)
		return noop, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("tracing enabled",
		"endpoint", cfg.Endpoint,
		"service", serviceName,
		"environment", cfg.Environment,
	)

	// One span up front so a misconfigured endpoint shows up in the logs
	// at startup rather than after the first chat.
	tracer := tracing.TracerProvider().Tracer("movi-init")
	_, span := tracer.Start(ctx, "movi.init")
	span.End()

	return tracing.TracerProvider().Shutdown, nil
}
