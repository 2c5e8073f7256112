// Package observability holds the Prometheus metrics for the conversion service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters, histograms, and gauges for conversions.
type Metrics struct {
	ConversionsTotal   *prometheus.CounterVec // labels: status={OK,NG,error}
	RowsTotal          *prometheus.CounterVec // labels: outcome={converted,failed}
	ConversionDuration prometheus.Histogram
	ActiveConversions  prometheus.Gauge
	LimiterRejections  prometheus.Counter
	RateLimited        prometheus.Counter
}

// NewMetrics creates and registers all conversion metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ConversionsTotal,
		m.RowsTotal,
		m.ConversionDuration,
		m.ActiveConversions,
		m.LimiterRejections,
		m.RateLimited,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many services as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ConversionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adifgen",
			Name:      "conversions_total",
			Help:      "Log conversions by final batch status.",
		}, []string{"status"}),
		RowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adifgen",
			Name:      "rows_total",
			Help:      "Log rows processed by outcome.",
		}, []string{"outcome"}),
		ConversionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "adifgen",
			Name:      "conversion_duration_seconds",
			Help:      "Time from decoded upload to assembled batch.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		ActiveConversions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "adifgen",
			Name:      "active_conversions",
			Help:      "Conversions currently holding a limiter slot.",
		}),
		LimiterRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adifgen",
			Name:      "limiter_rejections_total",
			Help:      "Conversions rejected because no slot freed up in time.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adifgen",
			Name:      "rate_limited_requests_total",
			Help:      "API requests refused by the per-client rate limit.",
		}),
	}
}
