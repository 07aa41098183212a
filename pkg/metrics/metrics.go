package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's prometheus collectors
type Metrics struct {
	recordingTransitions *prometheus.CounterVec
	providerCalls        *prometheus.CounterVec
	providerFailures     *prometheus.CounterVec
	providerDuration     *prometheus.HistogramVec
	translationFailures  prometheus.Counter
	processingJobs       *prometheus.GaugeVec
}

// New creates and registers the pipeline metrics
func New() *Metrics {
	return &Metrics{
		recordingTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recording_status_transitions_total",
				Help: "Total number of recording status transitions",
			},
			[]string{"to_status"},
		),
		providerCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transcription_provider_calls_total",
				Help: "Total number of transcription provider calls",
			},
			[]string{"provider", "language"},
		),
		providerFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transcription_provider_failures_total",
				Help: "Total number of failed transcription provider calls",
			},
			[]string{"provider", "language"},
		),
		providerDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transcription_provider_duration_seconds",
				Help:    "Transcription provider call duration in seconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"provider"},
		),
		translationFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "translation_failures_total",
				Help: "Total number of failed translation attempts",
			},
		),
		processingJobs: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "recording_processing_jobs",
				Help: "Number of recording processing jobs by state",
			},
			[]string{"state"},
		),
	}
}

// RecordTransition counts a recording status transition
func (m *Metrics) RecordTransition(toStatus string) {
	if m == nil {
		return
	}
	m.recordingTransitions.WithLabelValues(toStatus).Inc()
}

// RecordProviderCall counts a provider attempt
func (m *Metrics) RecordProviderCall(provider, language string) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(provider, language).Inc()
}

// RecordProviderFailure counts a failed provider attempt
func (m *Metrics) RecordProviderFailure(provider, language string) {
	if m == nil {
		return
	}
	m.providerFailures.WithLabelValues(provider, language).Inc()
}

// ObserveProviderDuration records how long a provider call took
func (m *Metrics) ObserveProviderDuration(provider string, seconds float64) {
	if m == nil {
		return
	}
	m.providerDuration.WithLabelValues(provider).Observe(seconds)
}

// RecordTranslationFailure counts a failed translation attempt
func (m *Metrics) RecordTranslationFailure() {
	if m == nil {
		return
	}
	m.translationFailures.Inc()
}

// SetProcessingJobs sets the gauge for jobs in a given state
func (m *Metrics) SetProcessingJobs(state string, n float64) {
	if m == nil {
		return
	}
	m.processingJobs.WithLabelValues(state).Set(n)
}
