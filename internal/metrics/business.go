package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Record outcomes reported through RecordRecords.
const (
	OutcomeDeleted   = "deleted"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
	OutcomeSealed    = "sealed"
	OutcomeClaimed   = "claimed"
	OutcomeDestroyed = "destroyed"
)

// BusinessMetrics records what the pipeline tiers do. Labels never carry record
// identifiers, IPs or user agents.
type BusinessMetrics interface {
	// RecordOperation counts one use case call. domain is the tier ("pipeline",
	// "analytics", "compliance", "vault"), status is "success" or "error".
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration observes the latency of one use case call in seconds.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)

	// RecordRecords adds n to the per-tier record counter for outcome. Zero is ignored.
	RecordRecords(ctx context.Context, tier, outcome string, n int64)
}

type businessMetrics struct {
	operations metric.Int64Counter
	durations  metric.Float64Histogram
	records    metric.Int64Counter
}

// NewBusinessMetrics registers the business instruments on meterProvider, prefixing
// every name with namespace (e.g. "viewvault").
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operations, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of tier operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durations, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of tier operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	records, err := meter.Int64Counter(
		fmt.Sprintf("%s_tier_records_total", namespace),
		metric.WithDescription("Records reaped, sealed or destroyed per tier"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create record counter: %w", err)
	}

	return &businessMetrics{
		operations: operations,
		durations:  durations,
		records:    records,
	}, nil
}

func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operations.Add(ctx, 1, metric.WithAttributes(operationAttrs(domain, operation, status)...))
}

func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.durations.Record(ctx, duration.Seconds(), metric.WithAttributes(operationAttrs(domain, operation, status)...))
}

func (b *businessMetrics) RecordRecords(ctx context.Context, tier, outcome string, n int64) {
	if n <= 0 {
		return
	}
	b.records.Add(ctx, n, metric.WithAttributes(
		attribute.String("tier", tier),
		attribute.String("outcome", outcome),
	))
}

func operationAttrs(domain, operation, status string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("domain", domain),
		attribute.String("operation", operation),
		attribute.String("status", status),
	}
}

// NoOpBusinessMetrics discards everything; used when METRICS_ENABLED is false.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

func (n *NoOpBusinessMetrics) RecordOperation(context.Context, string, string, string) {}

func (n *NoOpBusinessMetrics) RecordDuration(context.Context, string, string, time.Duration, string) {}

func (n *NoOpBusinessMetrics) RecordRecords(context.Context, string, string, int64) {}
