package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the assembly pipeline.
type Metrics struct {
	StageDuration *prometheus.HistogramVec // labels: stage
	AssembliesRun *prometheus.CounterVec   // labels: outcome={packaged,failed}

	TileFetches   *prometheus.CounterVec // labels: source, outcome={success,error}
	CacheLookups  *prometheus.CounterVec // labels: store, result={hit,miss}
	RetryAttempts *prometheus.CounterVec // labels: source

	StationsConsidered prometheus.Gauge
	StationsSelected   prometheus.Gauge
	PartialCoverage    prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "a3dshell",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"stage"}),
		AssembliesRun: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "a3dshell",
			Name:      "assemblies_total",
			Help:      "Completed assembly runs by outcome.",
		}, []string{"outcome"}),
		TileFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "a3dshell",
			Name:      "source_fetches_total",
			Help:      "Upstream fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "a3dshell",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by store and result.",
		}, []string{"store", "result"}),
		RetryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "a3dshell",
			Name:      "retry_attempts_total",
			Help:      "Retry attempts beyond the first, per source.",
		}, []string{"source"}),
		StationsConsidered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "a3dshell",
			Name:      "stations_considered",
			Help:      "Catalog candidates within the search radius for the last run.",
		}),
		StationsSelected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "a3dshell",
			Name:      "stations_selected",
			Help:      "Stations selected for the last run.",
		}),
		PartialCoverage: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "a3dshell",
			Name:      "partial_coverage_total",
			Help:      "Runs whose elevation grid fell below the coverage threshold.",
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.StageDuration,
		m.AssembliesRun,
		m.TileFetches,
		m.CacheLookups,
		m.RetryAttempts,
		m.StationsConsidered,
		m.StationsSelected,
		m.PartialCoverage,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already
// registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
