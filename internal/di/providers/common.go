package providers

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"

	"github.com/spellbee/spellbee-server/internal/config"
	"github.com/spellbee/spellbee-server/internal/logger"
	"github.com/spellbee/spellbee-server/internal/metrics"
	"github.com/spellbee/spellbee-server/internal/telemetry"
)

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second
)

// ProvideMetricsRegistry provides the Prometheus registry served on /metrics.
func ProvideMetricsRegistry(i do.Injector) (*prometheus.Registry, error) {
	return metrics.NewRegistry(), nil
}

// ProvideMetrics provides the game metrics registered on the shared registry.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	reg := do.MustInvoke[*prometheus.Registry](i)
	return metrics.New(reg), nil
}

// TracingHandle owns the tracer provider installed at startup.
type TracingHandle struct {
	shutdown func(context.Context) error
}

// Shutdown implements do.Shutdownable and flushes pending spans.
func (h *TracingHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.shutdown(ctx)
}

// ProvideTracing installs the OpenTelemetry tracer provider when enabled.
func ProvideTracing(i do.Injector) (*TracingHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	shutdown, err := telemetry.Init(context.Background(), log.Component("tracing"), telemetry.Config{
		ServiceName: "spellbee-server",
		Environment: cfg.App.Environment,
		Version:     apiVersion,
	}, telemetry.SettingsFromEnv())
	if err != nil {
		return nil, err
	}
	return &TracingHandle{shutdown: shutdown}, nil
}
