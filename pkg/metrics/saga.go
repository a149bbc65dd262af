package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SagaMetrics records outcomes of multi-step fulfillment workflows.
type SagaMetrics struct {
	outcomes  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	retries   *prometheus.CounterVec
	outboxLag prometheus.Gauge
}

// NewSagaMetrics registers the saga metrics on the provided registerer.
func NewSagaMetrics(reg prometheus.Registerer) *SagaMetrics {
	if reg == nil {
		return &SagaMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_outcomes_total",
		Help: "Terminal saga outcomes by workflow and result.",
	}, []string{"saga", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "saga_duration_seconds",
		Help:    "Wall time of saga runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"saga"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_exhaustions_total",
		Help: "Operations that exhausted their retry policy.",
	}, []string{"operation"})
	outboxLag := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_unpublished_events",
		Help: "Outbox events waiting to be published.",
	})
	reg.MustRegister(outcomes, duration, retries, outboxLag)
	return &SagaMetrics{
		outcomes:  outcomes,
		duration:  duration,
		retries:   retries,
		outboxLag: outboxLag,
	}
}

// IncOutcome increments the terminal outcome counter for the named saga.
func (s *SagaMetrics) IncOutcome(saga, outcome string) {
	if s == nil || s.outcomes == nil {
		return
	}
	s.outcomes.WithLabelValues(normalizeLabel(saga), normalizeLabel(outcome)).Inc()
}

// ObserveDuration records the wall time of a saga run.
func (s *SagaMetrics) ObserveDuration(saga string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(saga)).Observe(duration.Seconds())
}

// IncRetryExhausted increments the exhaustion counter for the named operation.
func (s *SagaMetrics) IncRetryExhausted(operation string) {
	if s == nil || s.retries == nil {
		return
	}
	s.retries.WithLabelValues(normalizeLabel(operation)).Inc()
}

// SetOutboxLag reports the number of unpublished outbox events.
func (s *SagaMetrics) SetOutboxLag(count int) {
	if s == nil || s.outboxLag == nil {
		return
	}
	s.outboxLag.Set(float64(count))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
