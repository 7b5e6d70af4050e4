// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Provider metrics
	ProviderCalls        *prometheus.CounterVec
	ProviderCallDuration *prometheus.HistogramVec

	// Pipeline metrics
	SyncRuns             *prometheus.CounterVec
	TickersSynced        *prometheus.CounterVec
	MetricsRecomputed    *prometheus.CounterVec
	UnavailableMetrics   *prometheus.CounterVec
	LastSuccessfulSync   prometheus.Gauge
	LastMetricsRecompute prometheus.Gauge
}

// NewMetrics registers every metric under namespace on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "yield_ranker"
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		ProviderCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "Total number of market data provider calls by provider, endpoint and outcome",
		}, []string{"provider", "endpoint", "outcome"}),
		ProviderCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "call_duration_seconds",
			Help:      "Market data provider call latency",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"provider"}),

		SyncRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "sync_runs_total",
			Help:      "Total number of sync runs by status",
		}, []string{"status"}),
		TickersSynced: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "tickers_synced_total",
			Help:      "Total number of ticker syncs by status",
		}, []string{"status"}),
		MetricsRecomputed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "metrics_recomputed_total",
			Help:      "Total number of metrics snapshot recomputations by status",
		}, []string{"status"}),
		UnavailableMetrics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "unavailable_metrics_total",
			Help:      "Total number of metrics that could not be computed, by metric",
		}, []string{"metric"}),
		LastSuccessfulSync: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "last_successful_sync_timestamp_seconds",
			Help:      "Unix time of the last sync run without failures",
		}),
		LastMetricsRecompute: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "last_metrics_recompute_timestamp_seconds",
			Help:      "Unix time of the last full metrics recomputation",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the process-wide instance registered on the default registry.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(route, method string, status int, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, method, statusClass(status)).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(route).Observe(seconds)
}

// RecordProviderCall records one provider round trip.
func RecordProviderCall(provider, endpoint string, err error, seconds float64) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	DefaultMetrics.ProviderCalls.WithLabelValues(provider, endpoint, outcome).Inc()
	DefaultMetrics.ProviderCallDuration.WithLabelValues(provider).Observe(seconds)
}

// RecordSyncRun records a finished SyncAll run.
func RecordSyncRun(succeeded, failed int, unixTime float64) {
	DefaultMetrics.TickersSynced.WithLabelValues("ok").Add(float64(succeeded))
	DefaultMetrics.TickersSynced.WithLabelValues("error").Add(float64(failed))
	if failed > 0 {
		DefaultMetrics.SyncRuns.WithLabelValues("partial").Inc()
		return
	}
	DefaultMetrics.SyncRuns.WithLabelValues("ok").Inc()
	DefaultMetrics.LastSuccessfulSync.Set(unixTime)
}

// RecordMetricsComputed records one snapshot computation.
func RecordMetricsComputed(err error) {
	if err != nil {
		DefaultMetrics.MetricsRecomputed.WithLabelValues("error").Inc()
		return
	}
	DefaultMetrics.MetricsRecomputed.WithLabelValues("ok").Inc()
}

// RecordRecomputeAll marks a finished full recomputation.
func RecordRecomputeAll(unixTime float64) {
	DefaultMetrics.LastMetricsRecompute.Set(unixTime)
}

// RecordUnavailable counts a metric left null, such as "dvi" or "zscore".
func RecordUnavailable(metric string) {
	DefaultMetrics.UnavailableMetrics.WithLabelValues(metric).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
