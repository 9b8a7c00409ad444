package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ozonesonde_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	FlightsRead            prometheus.Counter
	FlightsRegularized     prometheus.Counter
	MalformedFlights       prometheus.Counter
	FailedFlights          prometheus.Counter
	RepeatedFlightsSkipped prometheus.Counter
	FlightsOutOfRange      prometheus.Counter
	PipelineRunning        prometheus.Gauge

	// Regularization and load metrics.
	FlightDuration    prometheus.Histogram
	CorpusRows        prometheus.Gauge
	ProfilesPublished prometheus.Counter
	LoadErrors        prometheus.Counter

	// API metrics.
	APIRequests *prometheus.CounterVec // labels: route, code
	APICache    *prometheus.CounterVec // labels: result={hit,miss}
}

func newMetrics() *Metrics {
	return &Metrics{
		FlightsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flights_read_total",
			Help:      "Total flights read from the sounding table.",
		}),
		FlightsRegularized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flights_regularized_total",
			Help:      "Total flights regularized onto the altitude grid.",
		}),
		MalformedFlights: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_flights_total",
			Help:      "Flights with too few ascending samples or mismatched series.",
		}),
		FailedFlights: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failed_flights_total",
			Help:      "Flights whose regularization failed for any other reason.",
		}),
		RepeatedFlightsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repeated_flights_skipped_total",
			Help:      "Flights flagged as repeated soundings and left out of the corpus.",
		}),
		FlightsOutOfRange: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flights_out_of_range_total",
			Help:      "Flights launched outside the configured year range.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a corpus run is in progress, 0 otherwise.",
		}),
		FlightDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flight_duration_seconds",
			Help:      "Time to regularize one flight.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		CorpusRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_rows",
			Help:      "Number of (launch, altitude) rows in the loaded corpus.",
		}),
		ProfilesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profiles_published_total",
			Help:      "Gridded profiles handed to the loaders.",
		}),
		LoadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Failed load attempts, including retried ones.",
		}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Corpus API requests by route and status code.",
		}, []string{"route", "code"}),
		APICache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_cache_total",
			Help:      "Encoded profile cache lookups by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FlightsRead,
		m.FlightsRegularized,
		m.MalformedFlights,
		m.FailedFlights,
		m.RepeatedFlightsSkipped,
		m.FlightsOutOfRange,
		m.PipelineRunning,
		m.FlightDuration,
		m.CorpusRows,
		m.ProfilesPublished,
		m.LoadErrors,
		m.APIRequests,
		m.APICache,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// NewMetricsWithRegistry registers the metrics with reg instead of the
// default registry.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}
