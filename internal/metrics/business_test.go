package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMetricLine matches one exposition line; the exporter adds otel_scope labels
// between ours, so labels is a partial regex.
func assertMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	assert.Regexp(t, name+`\{[^}]*`+labels+`[^}]*\} `+value, output)
}

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func newBusinessMetrics(t *testing.T, namespace string) (*Provider, BusinessMetrics) {
	t.Helper()
	provider, err := NewProvider(namespace)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	})

	bm, err := NewBusinessMetrics(provider.MeterProvider(), namespace)
	require.NoError(t, err)
	return provider, bm
}

func TestBusinessMetrics_Operations(t *testing.T) {
	provider, bm := newBusinessMetrics(t, "ops_test")
	ctx := context.Background()

	bm.RecordOperation(ctx, "pipeline", "pipeline_record", "success")
	bm.RecordOperation(ctx, "pipeline", "pipeline_record", "success")
	bm.RecordOperation(ctx, "pipeline", "pipeline_record", "error")
	bm.RecordOperation(ctx, "vault", "vault_export", "success")

	bm.RecordDuration(ctx, "pipeline", "pipeline_record", 50*time.Millisecond, "success")
	bm.RecordDuration(ctx, "pipeline", "pipeline_record", 60*time.Millisecond, "success")
	bm.RecordDuration(ctx, "compliance", "compliance_sweep", 2*time.Second, "error")

	output := scrape(t, provider)

	assertMetricLine(t, output, `ops_test_operations_total`,
		`domain="pipeline".*operation="pipeline_record".*status="success"`, `2`)
	assertMetricLine(t, output, `ops_test_operations_total`,
		`domain="pipeline".*operation="pipeline_record".*status="error"`, `1`)
	assertMetricLine(t, output, `ops_test_operations_total`,
		`domain="vault".*operation="vault_export".*status="success"`, `1`)
	assertMetricLine(t, output, `ops_test_operation_duration_seconds_count`,
		`domain="pipeline".*operation="pipeline_record".*status="success"`, `2`)
	assertMetricLine(t, output, `ops_test_operation_duration_seconds_count`,
		`domain="compliance".*operation="compliance_sweep".*status="error"`, `1`)
}

func TestBusinessMetrics_RecordRecords(t *testing.T) {
	provider, bm := newBusinessMetrics(t, "records_test")
	ctx := context.Background()

	bm.RecordRecords(ctx, "compliance", OutcomeDeleted, 40)
	bm.RecordRecords(ctx, "compliance", OutcomeDeleted, 2)
	bm.RecordRecords(ctx, "compliance", OutcomeSkipped, 3)
	bm.RecordRecords(ctx, "vault", OutcomeDestroyed, 5)
	bm.RecordRecords(ctx, "compliance", OutcomeFailed, 0)

	output := scrape(t, provider)

	assertMetricLine(t, output, `records_test_tier_records_total`, `outcome="deleted".*tier="compliance"`, `42`)
	assertMetricLine(t, output, `records_test_tier_records_total`, `outcome="skipped".*tier="compliance"`, `3`)
	assertMetricLine(t, output, `records_test_tier_records_total`, `outcome="destroyed".*tier="vault"`, `5`)
	assert.NotContains(t, output, `outcome="failed"`)
}

func TestNoOpBusinessMetrics(t *testing.T) {
	bm := NewNoOpBusinessMetrics()
	require.IsType(t, &NoOpBusinessMetrics{}, bm)

	assert.NotPanics(t, func() {
		ctx := context.Background()
		bm.RecordOperation(ctx, "compliance", "compliance_query", "error")
		bm.RecordDuration(ctx, "vault", "vault_seal", 100*time.Millisecond, "success")
		bm.RecordRecords(ctx, "vault", OutcomeSealed, 7)
	})
}
