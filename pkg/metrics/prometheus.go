package metrics

import (
	"AlphaFusion/internal/domain/models"
	"AlphaFusion/internal/domain/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ repository.Metrics = (*Recorder)(nil)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	analyses     *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	rawScore     *prometheus.GaugeVec
	smoothScore  *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
	degraded     *prometheus.CounterVec
	nonFinite    prometheus.Counter
	messagesSent *prometheus.CounterVec
}

// New creates a recorder registered on the default Prometheus registry.
// It must be called once per process.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		analyses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphafusion_analyses_total",
				Help: "Completed analyses by symbol and signal",
			},
			[]string{"symbol", "signal"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphafusion_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		rawScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "alphafusion_score",
				Help: "Latest composite score for a symbol",
			},
			[]string{"symbol"},
		),
		smoothScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "alphafusion_smoothed_score",
				Help: "Latest EWMA-smoothed score for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alphafusion_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		degraded: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphafusion_degraded_features_total",
				Help: "Features that fell back to the neutral value",
			},
			[]string{"feature"},
		),
		nonFinite: f.NewCounter(
			prometheus.CounterOpts{
				Name: "alphafusion_nonfinite_scores_total",
				Help: "Scores recovered to neutral after non-finite arithmetic",
			},
		),
		messagesSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphafusion_messages_sent_total",
				Help: "Total number of results sent to a backend",
			},
			[]string{"backend"},
		),
	}
}

// RecordAnalysis counts a completed analysis.
func (r *Recorder) RecordAnalysis(symbol string, signal models.Signal) {
	r.analyses.WithLabelValues(symbol, signal.String()).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordScore records the latest raw and smoothed scores.
func (r *Recorder) RecordScore(symbol string, raw, smoothed float64) {
	r.rawScore.WithLabelValues(symbol).Set(raw)
	r.smoothScore.WithLabelValues(symbol).Set(smoothed)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordDegraded(feature string) {
	r.degraded.WithLabelValues(feature).Inc()
}

func (r *Recorder) RecordNonFiniteScore() {
	r.nonFinite.Inc()
}

// RecordMessageSent records a result delivered to a backend.
func (r *Recorder) RecordMessageSent(backend string) {
	r.messagesSent.WithLabelValues(backend).Inc()
}
