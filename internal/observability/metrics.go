package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// refresh pipeline.
type Metrics struct {
	FetchesTotal    *prometheus.CounterVec   // labels: source, outcome={success,error}
	FetchDuration   *prometheus.HistogramVec // labels: source
	RefreshDuration prometheus.Histogram
	ActiveAlerts    prometheus.Gauge
	Notifications   *prometheus.CounterVec // labels: kind={new,escalated,resolved}
	LastRefreshUnix prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchesTotal,
		m.FetchDuration,
		m.RefreshDuration,
		m.ActiveAlerts,
		m.Notifications,
		m.LastRefreshUnix,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "norway_alerts",
			Name:      "fetches_total",
			Help:      "Upstream fetch attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "norway_alerts",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream fetch duration per source.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "norway_alerts",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-diff refresh cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ActiveAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "norway_alerts",
			Name:      "active_alerts",
			Help:      "Active alerts (severity yellow or above) in the current snapshot.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "norway_alerts",
			Name:      "notifications_total",
			Help:      "Notifications emitted by kind.",
		}, []string{"kind"}),
		LastRefreshUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "norway_alerts",
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Unix time of the last completed refresh.",
		}),
	}
}
