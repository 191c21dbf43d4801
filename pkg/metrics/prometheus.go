package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder implements domain.repository.Metrics using Prometheus. The batch
// job has no HTTP listener, so metrics live in a private registry that can be
// pushed to a Pushgateway after the run.
type Recorder struct {
	registry      *prometheus.Registry
	rowsWritten   *prometheus.CounterVec
	symbols       *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		rowsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twstock_feature_rows_written_total",
				Help: "Rows written per feature table",
			},
			[]string{"table"},
		),
		symbols: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twstock_feature_symbols_total",
				Help: "Symbols handled per phase and outcome",
			},
			[]string{"phase", "status"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twstock_feature_errors_total",
				Help: "Errors encountered, by kind",
			},
			[]string{"type"},
		),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "twstock_feature_phase_duration_seconds",
				Help:    "Duration of engine phases in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"phase"},
		),
	}
	reg.MustRegister(r.rowsWritten, r.symbols, r.errorsTotal, r.phaseDuration)
	return r
}

// RecordRowsWritten records rows written to a feature table.
func (r *Recorder) RecordRowsWritten(table string, n int) {
	r.rowsWritten.WithLabelValues(table).Add(float64(n))
}

// RecordSymbols records processed/skipped symbol counts for a phase.
func (r *Recorder) RecordSymbols(phase, status string, n int) {
	r.symbols.WithLabelValues(phase, status).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordPhaseDuration records a phase duration in seconds.
func (r *Recorder) RecordPhaseDuration(phase string, seconds float64) {
	r.phaseDuration.WithLabelValues(phase).Observe(seconds)
}

// Push sends the collected metrics to a Pushgateway under the given job name.
func (r *Recorder) Push(gatewayURL, job string) error {
	return push.New(gatewayURL, job).Gatherer(r.registry).Push()
}
