package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics_IsolatedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.ProviderCalls.WithLabelValues("tiingo", "prices", "ok").Inc()
	m.UnavailableMetrics.WithLabelValues("dvi").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderCalls.WithLabelValues("tiingo", "prices", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.UnavailableMetrics.WithLabelValues("dvi")))
}

func TestRecordSyncRun(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.SyncRuns.WithLabelValues("partial"))

	RecordSyncRun(3, 1, 1700000000)

	assert.Equal(t, before+1, testutil.ToFloat64(DefaultMetrics.SyncRuns.WithLabelValues("partial")))

	RecordSyncRun(4, 0, 1700000100)
	assert.Equal(t, 1700000100.0, testutil.ToFloat64(DefaultMetrics.LastSuccessfulSync))
}

func TestRecordProviderCall(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.ProviderCalls.WithLabelValues("alphavantage", "dividends", "error"))

	RecordProviderCall("alphavantage", "dividends", errors.New("boom"), 0.2)

	assert.Equal(t, before+1, testutil.ToFloat64(DefaultMetrics.ProviderCalls.WithLabelValues("alphavantage", "dividends", "error")))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(200))
	assert.Equal(t, "3xx", statusClass(304))
	assert.Equal(t, "4xx", statusClass(404))
	assert.Equal(t, "5xx", statusClass(503))
}
