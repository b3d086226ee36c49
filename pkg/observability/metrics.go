package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig configures metric export.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// Metrics records counters and histograms through the otel metric SDK,
// exported in Prometheus format. A nil *Metrics is valid and records
// nothing, so callers never branch on whether metrics are enabled.
type Metrics struct {
	provider *sdkmetric.MeterProvider

	httpRequests metric.Int64Counter
	httpDuration metric.Float64Histogram
	toolCalls    metric.Int64Counter
	llmCalls     metric.Int64Counter
	relayRounds  metric.Int64Counter
}

// InitMetrics builds the metric pipeline. Returns nil when disabled.
func InitMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	exporter, err := otelprom.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(DefaultServiceName)

	m := &Metrics{provider: provider}
	if m.httpRequests, err = meter.Int64Counter("http_server_requests_total",
		metric.WithDescription("Inbound HTTP requests")); err != nil {
		return nil, err
	}
	if m.httpDuration, err = meter.Float64Histogram("http_server_duration_seconds",
		metric.WithDescription("Inbound HTTP request duration")); err != nil {
		return nil, err
	}
	if m.toolCalls, err = meter.Int64Counter("tool_calls_total",
		metric.WithDescription("Tool executions")); err != nil {
		return nil, err
	}
	if m.llmCalls, err = meter.Int64Counter("llm_calls_total",
		metric.WithDescription("LLM completion calls")); err != nil {
		return nil, err
	}
	if m.relayRounds, err = meter.Int64Counter("relay_rounds_total",
		metric.WithDescription("Completed relay rounds")); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", statusCode),
	)
	ctx := context.Background()
	m.httpRequests.Add(ctx, 1, attrs)
	m.httpDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *Metrics) RecordToolCall(toolName string, success bool) {
	if m == nil {
		return
	}
	m.toolCalls.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("tool", toolName),
		attribute.Bool("success", success),
	))
}

func (m *Metrics) RecordLLMCall(model string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.llmCalls.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordRelayRound(outcome string) {
	if m == nil {
		return
	}
	m.relayRounds.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// Shutdown flushes and stops the metric pipeline.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}

// Handler serves the Prometheus scrape endpoint. A nil receiver answers
// 503 so the route can be registered unconditionally.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics not enabled"))
		})
	}
	return promhttp.Handler()
}
