// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for the simulator's control API and engine.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus metric exported by the simulator: the HTTP
// control surface, per-simulation engine counters, and link-layer
// aggregates.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	SimulationsActive prometheus.Gauge
	SimulationTicks    *prometheus.CounterVec

	BundlesGenerated *prometheus.CounterVec
	BundlesDelivered *prometheus.CounterVec
	BundlesDropped   *prometheus.CounterVec
	BufferEvictions  *prometheus.CounterVec

	ContactsOpened  *prometheus.CounterVec
	LinkRateMbps    *prometheus.HistogramVec
	LinkSNRDb       *prometheus.HistogramVec
}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// GetMetrics returns the process-wide metrics instance, initializing it on
// first use.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = initializeMetrics()
	})
	return globalMetrics
}

func initializeMetrics() *Metrics {
	m := &Metrics{}

	m.HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dtnsim",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of control-API HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	m.HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dtnsim",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Control-API HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	m.SimulationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dtnsim",
			Subsystem: "engine",
			Name:      "simulations_active",
			Help:      "Number of simulations not in a terminal state",
		},
	)

	m.SimulationTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dtnsim",
			Subsystem: "engine",
			Name:      "ticks_total",
			Help:      "Total simulation ticks advanced, by simulation id",
		},
		[]string{"simulation_id"},
	)

	m.BundlesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dtnsim",
			Subsystem: "bundle",
			Name:      "generated_total",
			Help:      "Total bundles synthesized by source ingestion",
		},
		[]string{"simulation_id"},
	)

	m.BundlesDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dtnsim",
			Subsystem: "bundle",
			Name:      "delivered_total",
			Help:      "Total bundles delivered to their destination",
		},
		[]string{"simulation_id"},
	)

	m.BundlesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dtnsim",
			Subsystem: "bundle",
			Name:      "dropped_total",
			Help:      "Total bundles dropped, by reason",
		},
		[]string{"simulation_id", "reason"},
	)

	m.BufferEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dtnsim",
			Subsystem: "buffer",
			Name:      "evictions_total",
			Help:      "Total bundles evicted from a node buffer to free capacity",
		},
		[]string{"simulation_id", "node_id"},
	)

	m.ContactsOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dtnsim",
			Subsystem: "contact",
			Name:      "opened_total",
			Help:      "Total contact windows opened",
		},
		[]string{"simulation_id"},
	)

	m.LinkRateMbps = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dtnsim",
			Subsystem: "contact",
			Name:      "link_rate_mbps",
			Help:      "Achievable data rate of active contacts in Mbps",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		},
		[]string{"simulation_id"},
	)

	m.LinkSNRDb = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dtnsim",
			Subsystem: "contact",
			Name:      "link_snr_db",
			Help:      "Signal-to-noise ratio of active contacts in dB",
			Buckets:   []float64{-10, -5, 0, 5, 10, 15, 20, 25, 30, 40, 50},
		},
		[]string{"simulation_id"},
	)

	return m
}
