package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearlens/resolve/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{
		Namespace: "resolve",
		Subsystem: "test",
	}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrape(t *testing.T, collector MetricsCollector) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollectorRequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestCounterRoundTrip(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterCounter("widgets_total", "Widgets seen", "kind")
	vec.WithLabelValues("round").Inc()
	vec.WithLabelValues("round").Add(2)

	out := scrape(t, c)
	assert.Contains(t, out, "resolve_test_widgets_total")
	assert.Contains(t, out, `kind="round"`)
	assert.Contains(t, out, "3")
}

func TestGaugeRoundTrip(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterGauge("depth", "Queue depth")
	vec.WithLabelValues().Set(7)

	out := scrape(t, c)
	assert.Contains(t, out, "resolve_test_depth 7")
}

func TestHistogramRoundTrip(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterHistogram("latency_seconds", "Latency", []float64{0.1, 1}, "op")
	vec.WithLabelValues("save").Observe(0.05)

	out := scrape(t, c)
	assert.Contains(t, out, "resolve_test_latency_seconds_bucket")
	assert.Contains(t, out, `op="save"`)
}

func TestDuplicateRegistrationReturnsExisting(t *testing.T) {
	c := newTestCollector(t)
	first := c.RegisterCounter("dup_total", "Duplicate", "l")
	second := c.RegisterCounter("dup_total", "Duplicate", "l")

	first.WithLabelValues("x").Inc()
	second.WithLabelValues("x").Inc()

	out := scrape(t, c)
	assert.Contains(t, out, "2")
}

func TestNewAppMetricsRegistersEverything(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)
	require.NotNil(t, m)

	m.RecordsTotal.WithLabelValues("customer").Inc()
	m.DecisionsTotal.WithLabelValues("match").Inc()
	m.EntitiesResolved.WithLabelValues().Set(5)
	m.StageDuration.WithLabelValues("normalize").Observe(0.2)

	out := scrape(t, c)
	assert.Contains(t, out, "resolve_test_records_total")
	assert.Contains(t, out, "resolve_test_decisions_total")
	assert.Contains(t, out, "resolve_test_entities_resolved")
	assert.Contains(t, out, "resolve_test_stage_duration_seconds_bucket")
}

func TestNopMetricsNeverPanics(t *testing.T) {
	m := NewNopMetrics()
	m.RecordsTotal.WithLabelValues("customer").Inc()
	m.EntitiesResolved.WithLabelValues().Set(1)
	m.StageDuration.WithLabelValues("cluster").Observe(1)
}
