package observability

import (
	"context"
	"testing"
)

func TestTracingConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("AERO_TRACING_ENABLED", "")
	t.Setenv("AERO_TRACING_EXPORTER", "")
	t.Setenv("AERO_TRACING_SERVICE_NAME", "")
	t.Setenv("AERO_TRACING_SAMPLE_RATIO", "")
	t.Setenv("AERO_OTLP_ENDPOINT", "")

	cfg := TracingConfigFromEnv()
	if cfg.Enabled {
		t.Fatalf("Enabled = true, want false")
	}
	if cfg.Exporter != "stdout" {
		t.Fatalf("Exporter = %q, want stdout", cfg.Exporter)
	}
	if cfg.ServiceName != "aero-overlay" {
		t.Fatalf("ServiceName = %q, want aero-overlay", cfg.ServiceName)
	}
	if cfg.SampleRatio != 1 {
		t.Fatalf("SampleRatio = %v, want 1", cfg.SampleRatio)
	}
}

func TestTracingConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("AERO_TRACING_ENABLED", "TRUE")
	t.Setenv("AERO_TRACING_EXPORTER", "OTLP")
	t.Setenv("AERO_TRACING_SERVICE_NAME", "wind-tunnel")
	t.Setenv("AERO_TRACING_SAMPLE_RATIO", "0.25")
	t.Setenv("AERO_OTLP_ENDPOINT", "collector:4317")

	cfg := TracingConfigFromEnv()
	if !cfg.Enabled || cfg.Exporter != "otlp" || cfg.ServiceName != "wind-tunnel" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.SampleRatio != 0.25 || cfg.Endpoint != "collector:4317" {
		t.Fatalf("unexpected sampling/endpoint: %+v", cfg)
	}

	t.Setenv("AERO_TRACING_SAMPLE_RATIO", "1.5")
	if got := TracingConfigFromEnv().SampleRatio; got != 1 {
		t.Fatalf("out-of-range ratio = %v, want fallback 1", got)
	}
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin", SampleRatio: 1}, nil)
	if err == nil {
		t.Fatalf("expected error for unsupported exporter")
	}
}

func TestShutdownWithTimeoutNil(t *testing.T) {
	ShutdownWithTimeout(context.Background(), nil, nil)
}
