// Package observability bundles the logger, tracer and metrics registry shared
// by every module.
package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	ServiceName      = "geoguessr-bot"
	metricsNamespace = "geoguessr"
)

// Observability is handed to every module constructor.
type Observability struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Registry *prometheus.Registry
}

// Config selects the logger configuration.
type Config struct {
	LogLevel    string
	Environment string
}

// New builds the process-wide observability bundle. Tracing goes through the
// global OpenTelemetry provider so an exporter can be installed by the
// deployment without code changes.
func New(cfg Config) Observability {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return Observability{
		Logger:   NewLogger(cfg.LogLevel, cfg.Environment),
		Tracer:   otel.Tracer(ServiceName),
		Registry: reg,
	}
}

// NewNoop returns a bundle suitable for tests and CLIs.
func NewNoop() Observability {
	return Observability{
		Logger:   slog.Default(),
		Tracer:   noop.NewTracerProvider().Tracer("test"),
		Registry: prometheus.NewRegistry(),
	}
}

// Metrics returns operation metrics registered on the bundle's registry.
func (o Observability) Metrics(subsystem string) OperationMetrics {
	if o.Registry == nil {
		return NoopOperationMetrics{}
	}
	return NewPrometheusOperationMetrics(o.Registry, subsystem)
}
