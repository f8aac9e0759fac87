package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCalculation(t *testing.T) {
	m := New(DefaultConfig("shipping"))

	m.RecordCalculation(true, false, false, 2*time.Millisecond)
	m.RecordCalculation(false, false, true, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CalculationsTotal.WithLabelValues("shipping", "true", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CalculationsTotal.WithLabelValues("shipping", "false", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackZoneTotal))
}

func TestRecordCalculationLog(t *testing.T) {
	m := New(DefaultConfig("shipping"))

	m.RecordCalculationLog(true)
	m.RecordCalculationLog(false)
	m.RecordCalculationLog(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CalculationLogWrites))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CalculationLogFailures))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
		m.RecordCalculation(true, true, false, time.Millisecond)
		m.RecordCalculationFailure("BRANCH_NOT_FOUND")
		m.RecordZoneCacheLookup(true)
		m.RecordCalculationLog(false)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(DefaultConfig("shipping"))
	m.RecordZoneCacheLookup(false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "bakery_shipping_zone_cache_lookups_total"))
}
