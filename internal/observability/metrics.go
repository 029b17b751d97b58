package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// forecast pipeline.
type Metrics struct {
	DownloadsCompleted *prometheus.CounterVec // labels: kind={pf,cf}, outcome={success,error,cached}
	GridsLoaded        prometheus.Counter
	LoadErrors         prometheus.Counter
	ShapeErrors        prometheus.Counter
	ExtractionsTotal   prometheus.Counter
	SummariesPublished prometheus.Counter
	ArtifactsRendered  *prometheus.CounterVec // labels: kind={timeseries,heatmap}
	PipelineRunning    prometheus.Gauge

	// Per-date processing metrics.
	DateProcessingDuration prometheus.Histogram
	DownloadDuration       prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		DownloadsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ensemble_forecast",
			Name:      "downloads_total",
			Help:      "Archive downloads by forecast kind and outcome.",
		}, []string{"kind", "outcome"}),
		GridsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ensemble_forecast",
			Name:      "grids_loaded_total",
			Help:      "Total NetCDF archives decoded into grids.",
		}),
		LoadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ensemble_forecast",
			Name:      "load_errors_total",
			Help:      "Total NetCDF archives that failed to decode.",
		}),
		ShapeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ensemble_forecast",
			Name:      "shape_errors_total",
			Help:      "Total subsetting or extraction failures.",
		}),
		ExtractionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ensemble_forecast",
			Name:      "extractions_total",
			Help:      "Total point extractions performed.",
		}),
		SummariesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ensemble_forecast",
			Name:      "summaries_published_total",
			Help:      "Total forecast summaries written to the sink topic.",
		}),
		ArtifactsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ensemble_forecast",
			Name:      "artifacts_rendered_total",
			Help:      "Rendered output artifacts by kind.",
		}, []string{"kind"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ensemble_forecast",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		DateProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ensemble_forecast",
			Name:      "date_processing_duration_seconds",
			Help:      "Duration of a complete fetch-load-shape-publish cycle for one forecast date.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		DownloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ensemble_forecast",
			Name:      "download_duration_seconds",
			Help:      "Duration of a single archive download.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}

	prometheus.MustRegister(
		m.DownloadsCompleted,
		m.GridsLoaded,
		m.LoadErrors,
		m.ShapeErrors,
		m.ExtractionsTotal,
		m.SummariesPublished,
		m.ArtifactsRendered,
		m.PipelineRunning,
		m.DateProcessingDuration,
		m.DownloadDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DownloadsCompleted:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "ensemble_forecast", Name: "downloads_total"}, []string{"kind", "outcome"}),
		GridsLoaded:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ensemble_forecast", Name: "grids_loaded_total"}),
		LoadErrors:             prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ensemble_forecast", Name: "load_errors_total"}),
		ShapeErrors:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ensemble_forecast", Name: "shape_errors_total"}),
		ExtractionsTotal:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ensemble_forecast", Name: "extractions_total"}),
		SummariesPublished:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ensemble_forecast", Name: "summaries_published_total"}),
		ArtifactsRendered:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "ensemble_forecast", Name: "artifacts_rendered_total"}, []string{"kind"}),
		PipelineRunning:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "ensemble_forecast", Name: "pipeline_running"}),
		DateProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "ensemble_forecast", Name: "date_processing_duration_seconds"}),
		DownloadDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "ensemble_forecast", Name: "download_duration_seconds"}),
	}
}
