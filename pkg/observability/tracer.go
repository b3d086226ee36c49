// Package observability wires OpenTelemetry tracing and metrics.
//
// Tracing is an optional capability: when disabled, or when the exporter
// cannot be constructed at startup, everything degrades to no-op providers
// and the rest of the process is unaffected.
package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerConfig configures span export.
type TracerConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"` // "otlp" or "stdout"
	Endpoint     string  `yaml:"endpoint" json:"endpoint"` // OTLP gRPC endpoint
	SamplingRate float64 `yaml:"sampling_rate" json:"sampling_rate"`
	ServiceName  string  `yaml:"service_name" json:"service_name"`
}

// InitTracer builds a tracer provider from cfg and installs it globally.
// Disabled tracing and an unreachable exporter both yield a no-op
// provider, never an error; only misconfiguration (an unknown exporter
// name) errors out.
func InitTracer(ctx context.Context, cfg TracerConfig) (trace.TracerProvider, error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider(), nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}
	if cfg.SamplingRate <= 0 {
		cfg.SamplingRate = 1.0
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		if errors.Is(err, errUnknownExporter) {
			return nil, err
		}
		// Tracing is an optional capability: a dead collector must not
		// take the process down with it.
		slog.Warn("Trace exporter unavailable, continuing without tracing",
			"exporter", cfg.Exporter,
			"error", err)
		return noop.NewTracerProvider(), nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SamplingRate)),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}

var errUnknownExporter = errors.New("unknown trace exporter")

// newExporter is a variable so tests can exercise the degraded path.
var newExporter = func(ctx context.Context, cfg TracerConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp", "":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("%w %q", errUnknownExporter, cfg.Exporter)
	}
}

// Shutdown flushes and stops a provider returned by InitTracer. No-op
// providers have no Shutdown and are skipped.
func Shutdown(ctx context.Context, tp trace.TracerProvider) error {
	if sp, ok := tp.(interface{ Shutdown(context.Context) error }); ok {
		return sp.Shutdown(ctx)
	}
	return nil
}
