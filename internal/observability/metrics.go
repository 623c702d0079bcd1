package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "floodwave"

// Metrics holds the Prometheus counters, histograms, and gauges for wave
// extraction runs.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec   // labels: outcome={success,error}
	StageDuration   *prometheus.HistogramVec // labels: stage
	PipelineRunning prometheus.Gauge
	LastRunSuccess  prometheus.Gauge

	// Graph size of the latest run.
	PeaksDetected  prometheus.Counter
	EdgesBuilt     prometheus.Counter
	Components     prometheus.Gauge
	WavesExtracted prometheus.Counter

	// Sink metrics.
	WavesPublished *prometheus.CounterVec // labels: sink
	SinkErrors     *prometheus.CounterVec // labels: sink
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.StageDuration,
		m.PipelineRunning,
		m.LastRunSuccess,
		m.PeaksDetected,
		m.EdgesBuilt,
		m.Components,
		m.WavesExtracted,
		m.WavesPublished,
		m.SinkErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed extraction runs by outcome.",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"stage"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		PeaksDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "peaks_detected_total",
			Help:      "Delta-peaks detected across all stations.",
		}),
		EdgesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_built_total",
			Help:      "Candidate edges between adjacent stations.",
		}),
		Components: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_components",
			Help:      "Weakly connected components of the last analysed graph.",
		}),
		WavesExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waves_extracted_total",
			Help:      "Flood waves extracted.",
		}),
		WavesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waves_published_total",
			Help:      "Waves written to a result sink.",
		}, []string{"sink"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed writes to a result sink.",
		}, []string{"sink"}),
	}
}
