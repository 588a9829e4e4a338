// Package trace exports Genkit spans over OTLP HTTP when tracing is
// enabled. The agent's generate and tool spans then show up in whatever
// collector the endpoint points at; without the flag everything stays a
// no-op.
package trace

import (
	"context"
	"log/slog"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/deskmate-ai/deskmate/internal/config"
)

// serviceName labels exported spans.
const serviceName = "deskmate"

// Setup registers an OTLP span exporter on Genkit's tracer provider if
// the config enables tracing. The returned shutdown flushes pending
// spans; it is always safe to call.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if logger == nil {
		logger = slog.Default()
	}

	if !cfg.Tracing() {
		logger.Debug("tracing disabled")
		return noop, nil
	}

	// Genkit's TracerProvider reads service identity from the OTEL env.
	_ = os.Setenv("OTEL_SERVICE_NAME", serviceName)
	if cfg.TracingProject != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "project.name="+cfg.TracingProject)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(cfg.TracingEndpoint),
		otlptracehttp.WithHeaders(map[string]string{
			"x-api-key": cfg.TracingAPIKey,
		}),
	)
	if err != nil {
		logger.Warn("creating trace exporter failed, tracing disabled", "error", err)
		return noop, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Info("tracing enabled",
		"endpoint", cfg.TracingEndpoint,
		"project", cfg.TracingProject,
	)

	return tracing.TracerProvider().Shutdown, nil
}
