package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// analysis pipeline.
type Metrics struct {
	TafsParsed        prometheus.Counter
	ParseErrors       prometheus.Counter
	GroupsWindowed    prometheus.Counter
	StationsCompleted prometheus.Counter
	PipelineRunning   prometheus.Gauge
	StationDuration   prometheus.Histogram

	// Archive download metrics.
	DownloadRequests *prometheus.CounterVec // labels: outcome={success,error,cached}
	DownloadDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		TafsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "artaf",
			Name:      "tafs_parsed_total",
			Help:      "Total TAF messages run through the parser.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "artaf",
			Name:      "parse_errors_total",
			Help:      "Total messages rejected by the parser or a later stage.",
		}),
		GroupsWindowed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "artaf",
			Name:      "groups_windowed_total",
			Help:      "Total hourly groups emitted by the windower.",
		}),
		StationsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "artaf",
			Name:      "stations_completed_total",
			Help:      "Total stations fully processed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "artaf",
			Name:      "pipeline_running",
			Help:      "1 when the analysis pipeline is active, 0 when shut down.",
		}),
		StationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "artaf",
			Name:      "station_duration_seconds",
			Help:      "Duration of one station's full parse-to-histogram pass.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		DownloadRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artaf",
			Name:      "download_requests_total",
			Help:      "Archive download attempts by outcome.",
		}, []string{"outcome"}),
		DownloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "artaf",
			Name:      "download_duration_seconds",
			Help:      "Archive HTTP request duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}

	prometheus.MustRegister(
		m.TafsParsed,
		m.ParseErrors,
		m.GroupsWindowed,
		m.StationsCompleted,
		m.PipelineRunning,
		m.StationDuration,
		m.DownloadRequests,
		m.DownloadDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		TafsParsed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "artaf", Name: "tafs_parsed_total"}),
		ParseErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "artaf", Name: "parse_errors_total"}),
		GroupsWindowed:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "artaf", Name: "groups_windowed_total"}),
		StationsCompleted: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "artaf", Name: "stations_completed_total"}),
		PipelineRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "artaf", Name: "pipeline_running"}),
		StationDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "artaf", Name: "station_duration_seconds"}),
		DownloadRequests:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "artaf", Name: "download_requests_total"}, []string{"outcome"}),
		DownloadDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "artaf", Name: "download_duration_seconds"}),
	}
}
