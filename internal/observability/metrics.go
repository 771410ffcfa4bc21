package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "osm_etl"

// Drop reasons used as the "reason" label of TagsDropped.
const (
	DropProblemChars    = "problem_chars"
	DropStreetDetail    = "street_detail"
	DropInvalidPostcode = "invalid_postcode"
	DropReservedKey     = "reserved_key"
)

// Metrics holds the Prometheus counters, histograms, and gauges for a conversion run.
type Metrics struct {
	ElementsRead     *prometheus.CounterVec // labels: kind={node,way}
	DocumentsWritten prometheus.Counter
	TagsDropped      *prometheus.CounterVec // labels: reason
	PipelineRunning  prometheus.Gauge

	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		ElementsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elements_read_total",
			Help:      "Node and way elements read from the input.",
		}, []string{"kind"}),
		DocumentsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_written_total",
			Help:      "Shaped documents written to the output.",
		}),
		TagsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tags_dropped_total",
			Help:      "Tags and attributes left out of documents, by reason.",
		}, []string{"reason"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a conversion is in progress, 0 otherwise.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of elements per extracted batch.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100, 250, 500},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete extract-shape-load cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ElementsRead,
		m.DocumentsWritten,
		m.TagsDropped,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
