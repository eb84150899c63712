// Package tracing wires an OpenTelemetry tracer provider for fetch runs.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config governs how tracing is initialised.
type Config struct {
	Enabled     bool
	ServiceName string
	SampleRatio float64

	// Output receives exported spans as JSON (default: os.Stderr)
	Output io.Writer
}

// DefaultConfig returns tracing disabled with full sampling once enabled.
func DefaultConfig() Config {
	return Config{
		ServiceName: "horizons-fetch",
		SampleRatio: 1.0,
		Output:      os.Stderr,
	}
}

// Init installs a global tracer provider. With tracing disabled a noop
// provider is installed. The returned function flushes pending spans.
func Init(ctx context.Context, cfg Config, logger zerolog.Logger) (func(context.Context) error, error) {
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		logger.Debug().Msg("Tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return nil, fmt.Errorf("create stdout exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", cfg.ServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	ratio := cfg.SampleRatio
	if ratio < 0 || ratio > 1 {
		ratio = 1
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(ratio)),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Info().
		Str("service_name", cfg.ServiceName).
		Float64("sample_ratio", ratio).
		Msg("Tracing enabled")

	return tp.Shutdown, nil
}
