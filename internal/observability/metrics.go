package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "snana_etl"

// Metrics holds the Prometheus counters and gauges for one ETL run.
type Metrics struct {
	SupernovaeProcessed prometheus.Counter
	FilesParsed         *prometheus.CounterVec // labels: parser
	ParseFailures       prometheus.Counter
	ParserAttempts      *prometheus.CounterVec // labels: parser, outcome={success,mismatch,empty,error}
	RecordsWritten      prometheus.Counter
	UnknownBands        prometheus.Counter
	OutputsWritten      prometheus.Counter
	RunDuration         prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers all run metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(m.collectors()...)
	return m
}

func newMetrics() *Metrics {
	return &Metrics{
		SupernovaeProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "supernovae_processed_total",
			Help:      "Supernovae visited by the run.",
		}),
		FilesParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_parsed_total",
			Help:      "Raw files parsed, by the parser that succeeded.",
		}, []string{"parser"}),
		ParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Raw files no parser could read.",
		}),
		ParserAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parser_attempts_total",
			Help:      "Parser attempts by parser and outcome.",
		}, []string{"parser", "outcome"}),
		RecordsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Observations written to SNANA files.",
		}),
		UnknownBands: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_band_records_total",
			Help:      "Records written with band UNKNOWN.",
		}),
		OutputsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outputs_written_total",
			Help:      "SNANA files written.",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.SupernovaeProcessed,
		m.FilesParsed,
		m.ParseFailures,
		m.ParserAttempts,
		m.RecordsWritten,
		m.UnknownBands,
		m.OutputsWritten,
		m.RunDuration,
	}
}

// WriteTextfile writes every metric in the Prometheus text format, for
// collection by the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	var g prometheus.Gatherer = prometheus.DefaultGatherer
	if m.registry != nil {
		g = m.registry
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
