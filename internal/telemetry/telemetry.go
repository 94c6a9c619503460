// Package telemetry wires the OpenTelemetry metrics pipeline for tubefocusd.
//
// Counters recorded through the otel API (coach events, HTTP requests) are
// exported through a Prometheus bridge and served on the /metrics endpoint.
// Telemetry failures do not crash the application; they degrade gracefully.
package telemetry

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

const serviceName = "tubefocusd"

// Telemetry owns the process-wide MeterProvider.
type Telemetry struct {
	logger        *zap.Logger
	meterProvider *sdkmetric.MeterProvider

	degraded atomic.Bool
}

// New installs a Prometheus-backed MeterProvider as the global otel provider.
//
// Setup errors leave the default no-op provider in place and mark the
// instance degraded instead of failing startup.
func New(version string, logger *zap.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &Telemetry{logger: logger}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	)

	// Registers on the default registry, which promhttp.Handler serves.
	exporter, err := prometheus.New()
	if err != nil {
		t.setDegraded("creating prometheus exporter", err)
		return t, nil
	}

	t.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(t.meterProvider)

	logger.Info("telemetry initialized", zap.String("exporter", "prometheus"))
	return t, nil
}

func (t *Telemetry) setDegraded(stage string, err error) {
	t.degraded.Store(true)
	t.logger.Warn("telemetry degraded, metrics will not be exported",
		zap.String("stage", stage),
		zap.Error(err))
}

// Degraded reports whether metric export is unavailable.
func (t *Telemetry) Degraded() bool {
	return t.degraded.Load()
}

// Shutdown flushes and stops the metrics pipeline.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.meterProvider == nil {
		return nil
	}
	if err := t.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down meter provider: %w", err)
	}
	return nil
}
