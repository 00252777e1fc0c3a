package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "disaster_ml"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Inference metrics.
	ModelsLoaded        *prometheus.GaugeVec     // labels: model={disaster,severity,ner}
	ClassifierResults   *prometheus.CounterVec   // labels: classifier={disaster,severity}, outcome={ok,unavailable}
	InferenceDuration   *prometheus.HistogramVec // labels: classifier={disaster,severity,ner}
	SeverityOverrides   *prometheus.CounterVec   // labels: from, to
	LocationResolutions *prometheus.CounterVec   // labels: outcome={resolved,absent}
	PipelineDuration    prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: provider, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: provider

	// Report sinks.
	ReportsStored    *prometheus.CounterVec // labels: outcome={success,error}
	ReportsPublished prometheus.Counter
	AlertsSent       *prometheus.CounterVec // labels: outcome={success,error}

	// Stream metrics.
	MessagesConsumed        prometheus.Counter
	TransformErrors         prometheus.Counter
	PipelineRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Live feed metrics.
	FeedItemsFetched   *prometheus.CounterVec // labels: source
	FeedItemsSubmitted *prometheus.CounterVec // labels: outcome={success,error,duplicate}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ModelsLoaded,
		m.ClassifierResults,
		m.InferenceDuration,
		m.SeverityOverrides,
		m.LocationResolutions,
		m.PipelineDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.ReportsStored,
		m.ReportsPublished,
		m.AlertsSent,
		m.MessagesConsumed,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.FeedItemsFetched,
		m.FeedItemsSubmitted,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already registered"
// panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ModelsLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_loaded",
			Help:      "1 when the named model loaded at startup, 0 otherwise.",
		}, []string{"model"}),
		ClassifierResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_results_total",
			Help:      "Classifier invocations by classifier and outcome.",
		}, []string{"classifier", "outcome"}),
		InferenceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Model inference duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"classifier"}),
		SeverityOverrides: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "severity_overrides_total",
			Help:      "Severity labels replaced by the keyword correction, by original and corrected label.",
		}, []string{"from", "to"}),
		LocationResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_resolutions_total",
			Help:      "Location resolution attempts by outcome.",
		}, []string{"outcome"}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of one combined classification and location run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		ReportsStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_stored_total",
			Help:      "Report writes to the store by outcome.",
		}, []string{"outcome"}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      "Reports written to the sink topic.",
		}),
		AlertsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_sent_total",
			Help:      "High-severity alert notifications by outcome.",
		}, []string{"outcome"}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the source topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Source messages that could not be analyzed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_running",
			Help:      "1 when the stream consumer is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch analyze-and-record cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FeedItemsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_items_fetched_total",
			Help:      "Items fetched from live feed sources.",
		}, []string{"source"}),
		FeedItemsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_items_submitted_total",
			Help:      "Live feed items by submission outcome.",
		}, []string{"outcome"}),
	}
}
