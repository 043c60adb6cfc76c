package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CountsFunc reports a set of counts keyed by status. It runs on every scrape.
type CountsFunc func(ctx context.Context) (map[string]int64, error)

// RegisterStatusGauge registers an observable gauge named <namespace>_<name> that
// reports one series per status returned by fn. A failing fn skips the observation.
func RegisterStatusGauge(
	meterProvider metric.MeterProvider,
	namespace, name, description string,
	fn CountsFunc,
) error {
	meter := meterProvider.Meter(namespace)

	_, err := meter.Int64ObservableGauge(
		fmt.Sprintf("%s_%s", namespace, name),
		metric.WithDescription(description),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			counts, err := fn(ctx)
			if err != nil {
				return nil
			}
			for status, n := range counts {
				o.Observe(n, metric.WithAttributes(attribute.String("status", status)))
			}
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s gauge: %w", name, err)
	}
	return nil
}
