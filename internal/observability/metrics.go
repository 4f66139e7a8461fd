package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "surf_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	MessagesConsumed   prometheus.Counter
	ConditionsProduced prometheus.Counter
	DecodeErrors       prometheus.Counter
	PipelineRunning    prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Aggregation metrics.
	Aggregations   *prometheus.CounterVec // labels: outcome={ok,no_data,invalid,error}
	Likelihood     *prometheus.CounterVec // labels: likelihood={Flat,Maybe Surf,Good,Firing}
	SourcesDropped *prometheus.CounterVec // labels: reason={offline,stale,unreliable,unit,invalid_value}
	AggregateCache *prometheus.CounterVec // labels: result={hit,miss}
	OpenBuckets    prometheus.Gauge

	// Sink and catalogue health.
	BreakerState     prometheus.Gauge       // 0 closed, 1 half-open, 2 open
	CatalogueReloads *prometheus.CounterVec // labels: outcome={ok,error}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.MessagesConsumed,
		m.ConditionsProduced,
		m.DecodeErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.Aggregations,
		m.Likelihood,
		m.SourcesDropped,
		m.AggregateCache,
		m.OpenBuckets,
		m.BreakerState,
		m.CatalogueReloads,
	)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      help("Total observation messages read from the source topic."),
		}),
		ConditionsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conditions_produced_total",
			Help:      help("Total aggregated conditions written to the sink topic."),
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      help("Total observation messages that could not be decoded."),
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 when the pipeline is active, 0 when shut down."),
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      help("Number of messages per batch extracted from Kafka."),
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      help("Duration of a complete batch extract-aggregate-load cycle."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		Aggregations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregations_total",
			Help:      help("Spot aggregations by outcome."),
		}, []string{"outcome"}),
		Likelihood: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "surf_likelihood_total",
			Help:      help("Aggregated conditions by surf likelihood."),
		}, []string{"likelihood"}),
		SourcesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sources_dropped_total",
			Help:      help("Source reports excluded from a blend, by reason."),
		}, []string{"reason"}),
		AggregateCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_cache_total",
			Help:      help("Aggregation cache lookups by result."),
		}, []string{"result"}),
		OpenBuckets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_buckets",
			Help:      help("(spot, hour) buckets currently held in the observation window."),
		}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sink_breaker_state",
			Help:      help("Sink writer circuit breaker state: 0 closed, 1 half-open, 2 open."),
		}),
		CatalogueReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spot_catalogue_reloads_total",
			Help:      help("Spot catalogue reloads by outcome."),
		}, []string{"outcome"}),
	}
}
