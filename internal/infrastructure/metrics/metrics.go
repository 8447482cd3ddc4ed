package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Generation run results
const (
	ResultOK    = "ok"
	ResultNoop  = "noop"
	ResultError = "error"
)

// Generation holds the recurring generation metrics
type Generation struct {
	InstancesCreated prometheus.Counter
	Conflicts        prometheus.Counter
	Runs             *prometheus.CounterVec
	Duration         prometheus.Histogram
}

// NewGeneration creates and registers generation metrics
func NewGeneration(reg prometheus.Registerer) *Generation {
	m := &Generation{
		InstancesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recurring_instances_created_total",
			Help: "Total number of recurring task instances created",
		}),
		Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recurring_instance_conflicts_total",
			Help: "Instances already materialized by a concurrent caller",
		}),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recurring_generation_runs_total",
				Help: "Total number of template generation runs by result",
			},
			[]string{"result"},
		),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "recurring_generation_duration_seconds",
			Help:    "Template generation duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.InstancesCreated, m.Conflicts, m.Runs, m.Duration)
	return m
}

// ObserveRun records one template generation run
func (m *Generation) ObserveRun(result string, created int, duration time.Duration) {
	m.Runs.WithLabelValues(result).Inc()
	m.InstancesCreated.Add(float64(created))
	m.Duration.Observe(duration.Seconds())
}

// HTTP holds the request metrics
type HTTP struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewHTTP creates and registers request metrics
func NewHTTP(reg prometheus.Registerer) *HTTP {
	m := &HTTP{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration)
	return m
}

// NewRegistry returns a registry carrying the process and Go runtime collectors
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}
