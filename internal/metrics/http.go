package metrics

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// unmatchedRoute labels requests that hit no route.
const unmatchedRoute = "unmatched"

// HTTPMetricsMiddleware records request counts and latencies per route pattern and
// status class. Raw paths carry profile and case ids, so they never become labels;
// requests that match no route share one series.
func HTTPMetricsMiddleware(meterProvider metric.MeterProvider, namespace string) gin.HandlerFunc {
	requests, durations, err := newHTTPInstruments(meterProvider, namespace)
	if err != nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", routeLabel(c.FullPath())),
			attribute.String("status_class", statusClass(c.Writer.Status())),
		)
		requests.Add(c.Request.Context(), 1, attrs)
		durations.Record(c.Request.Context(), time.Since(start).Seconds(), attrs)
	}
}

func newHTTPInstruments(
	meterProvider metric.MeterProvider,
	namespace string,
) (metric.Int64Counter, metric.Float64Histogram, error) {
	meter := meterProvider.Meter(namespace)

	requests, err := meter.Int64Counter(
		fmt.Sprintf("%s_http_requests_total", namespace),
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, nil, err
	}

	durations, err := meter.Float64Histogram(
		fmt.Sprintf("%s_http_request_duration_seconds", namespace),
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, nil, err
	}
	return requests, durations, nil
}

func routeLabel(fullPath string) string {
	if fullPath == "" {
		return unmatchedRoute
	}
	return fullPath
}

// statusClass folds a status code into "2xx", "4xx" and so on.
func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return fmt.Sprintf("%dxx", code/100)
}
