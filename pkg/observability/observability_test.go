package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestInitTracer_Disabled(t *testing.T) {
	tp, err := InitTracer(context.Background(), TracerConfig{Enabled: false})
	if err != nil {
		t.Fatalf("InitTracer failed: %v", err)
	}
	if tp == nil {
		t.Fatal("expected noop provider, got nil")
	}
	// noop provider has no Shutdown; must not error
	if err := Shutdown(context.Background(), tp); err != nil {
		t.Errorf("Shutdown of noop provider failed: %v", err)
	}
}

func TestInitTracer_Stdout(t *testing.T) {
	tp, err := InitTracer(context.Background(), TracerConfig{Enabled: true, Exporter: "stdout"})
	if err != nil {
		t.Fatalf("InitTracer failed: %v", err)
	}
	defer func() { _ = Shutdown(context.Background(), tp) }()

	_, span := tp.Tracer("test").Start(context.Background(), "test.span")
	span.End()
}

func TestInitTracer_UnknownExporter(t *testing.T) {
	if _, err := InitTracer(context.Background(), TracerConfig{Enabled: true, Exporter: "carrier-pigeon"}); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}

func TestInitTracer_ExporterFailureDegradesToNoop(t *testing.T) {
	orig := newExporter
	newExporter = func(ctx context.Context, cfg TracerConfig) (sdktrace.SpanExporter, error) {
		return nil, errors.New("collector unreachable")
	}
	defer func() { newExporter = orig }()

	tp, err := InitTracer(context.Background(), TracerConfig{Enabled: true, Exporter: "otlp"})
	if err != nil {
		t.Fatalf("InitTracer should degrade, got error: %v", err)
	}
	if _, ok := tp.(noop.TracerProvider); !ok {
		t.Errorf("expected noop provider after exporter failure, got %T", tp)
	}

	// degraded provider must still hand out working tracers
	_, span := tp.Tracer("test").Start(context.Background(), "test.span")
	span.End()
	if err := Shutdown(context.Background(), tp); err != nil {
		t.Errorf("Shutdown of degraded provider failed: %v", err)
	}
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordHTTPRequest("POST", "/", 200, 0)
	m.RecordToolCall("calculate", true)
	m.RecordLLMCall("gpt-4o", nil)
	m.RecordRelayRound("completed")
	if err := m.Shutdown(context.Background()); err != nil {
		t.Errorf("nil Shutdown failed: %v", err)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("nil metrics handler status = %d, want 503", rec.Code)
	}
}

func TestHTTPMiddleware(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")

	handler := HTTPMiddleware(tracer, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
