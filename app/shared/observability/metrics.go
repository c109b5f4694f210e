package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationMetrics records the lifecycle of service operations.
type OperationMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

type prometheusOperationMetrics struct {
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewPrometheusOperationMetrics registers operation counters and a duration
// histogram under the given subsystem. Registering the same subsystem twice on
// one registry reuses the existing collectors.
func NewPrometheusOperationMetrics(reg prometheus.Registerer, subsystem string) OperationMetrics {
	labels := []string{"operation", "service"}
	m := &prometheusOperationMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, labels),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "operation_success_total",
			Help:      "Service operations that completed without an infrastructure error.",
		}, labels),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "operation_failures_total",
			Help:      "Service operations that failed with an infrastructure error or panic.",
		}, labels),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, labels),
	}

	if reg != nil {
		m.attempts = registerOrExisting(reg, m.attempts)
		m.successes = registerOrExisting(reg, m.successes)
		m.failures = registerOrExisting(reg, m.failures)
		m.durations = registerOrExisting(reg, m.durations)
	}
	return m
}

func registerOrExisting[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func (m *prometheusOperationMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *prometheusOperationMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *prometheusOperationMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *prometheusOperationMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.durations.WithLabelValues(operation, service).Observe(duration.Seconds())
}

// NoopOperationMetrics discards everything.
type NoopOperationMetrics struct{}

func (NoopOperationMetrics) RecordOperationAttempt(context.Context, string, string) {}
func (NoopOperationMetrics) RecordOperationSuccess(context.Context, string, string) {}
func (NoopOperationMetrics) RecordOperationFailure(context.Context, string, string) {}
func (NoopOperationMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {
}
