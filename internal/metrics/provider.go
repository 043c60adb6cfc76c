// Package metrics exports OpenTelemetry instruments in Prometheus format: tier
// operation counters, per-tier record counts, HTTP request metrics and gauges
// such as the vault seal queue depth.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Provider owns the meter provider and the private Prometheus registry it exports to.
type Provider struct {
	meterProvider *metric.MeterProvider
	registry      *prometheus.Registry
}

// NewProvider creates a meter provider backed by a fresh registry. The registry also
// carries the Go runtime and process collectors, and namespace doubles as the
// service.name of the exported target_info.
func NewProvider(namespace string) (*Provider, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register go collector: %w", err)
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
		Namespace: namespace,
	})); err != nil {
		return nil, fmt.Errorf("failed to register process collector: %w", err)
	}

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", namespace))

	return &Provider{
		meterProvider: metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res)),
		registry:      registry,
	}, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// MeterProvider returns the provider instruments are created from.
func (p *Provider) MeterProvider() *metric.MeterProvider {
	return p.meterProvider
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}
