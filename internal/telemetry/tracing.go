// Package telemetry configures OpenTelemetry tracing for the service spans.
//
// Tracing is opt-in through the standard OTEL_* environment variables. When
// OTEL_ENABLED is unset the global no-op provider stays in place.
package telemetry

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const defaultSampleRatio = 0.1

// Config identifies the service in exported spans.
type Config struct {
	ServiceName string
	Environment string
	Version     string
}

// Settings are read from the environment.
type Settings struct {
	Enabled     bool
	Endpoint    string
	Headers     map[string]string
	Insecure    bool
	SampleRatio float64
}

// SettingsFromEnv reads OTEL_ENABLED, OTEL_EXPORTER_OTLP_ENDPOINT,
// OTEL_EXPORTER_OTLP_HEADERS, OTEL_EXPORTER_OTLP_INSECURE and OTEL_SAMPLER_RATIO.
func SettingsFromEnv() Settings {
	return Settings{
		Enabled:     truthy(os.Getenv("OTEL_ENABLED")),
		Endpoint:    strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		Headers:     parseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Insecure:    truthy(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")),
		SampleRatio: parseRatio(os.Getenv("OTEL_SAMPLER_RATIO")),
	}
}

// Init installs a global tracer provider and returns its shutdown function.
// With tracing disabled the returned function is a no-op.
func Init(ctx context.Context, log *slog.Logger, cfg Config, s Settings) (func(context.Context) error, error) {
	if !s.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.Version),
		attribute.String("deployment.environment", cfg.Environment),
	)

	exporter, err := newExporter(ctx, s)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(s.SampleRatio))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if s.Endpoint == "" {
		log.Warn("tracing to stdout, no OTLP endpoint configured")
	}
	log.Info("tracing initialized", "service", cfg.ServiceName, "endpoint", s.Endpoint, "sample_ratio", s.SampleRatio)

	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, s Settings) (sdktrace.SpanExporter, error) {
	if s.Endpoint == "" {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(s.Endpoint)}
	if s.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(s.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(s.Headers))
	}
	return otlptracehttp.New(ctx, opts...)
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// parseRatio clamps to [0,1] and falls back to the default on garbage.
func parseRatio(v string) float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return defaultSampleRatio
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultSampleRatio
	}
	return min(max(f, 0), 1)
}

// parseHeaders reads "k1=v1,k2=v2", skipping malformed pairs.
func parseHeaders(raw string) map[string]string {
	var headers map[string]string
	for part := range strings.SplitSeq(raw, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !ok || key == "" || val == "" {
			continue
		}
		if headers == nil {
			headers = make(map[string]string)
		}
		headers[key] = val
	}
	return headers
}
