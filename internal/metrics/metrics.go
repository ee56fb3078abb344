// Package metrics collects and exposes Prometheus metrics for the
// sprog check harness.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all sprog-specific Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	// Per-run metrics.
	RunsTotal     *prometheus.CounterVec
	RunViolations *prometheus.CounterVec
	RunDuration   prometheus.Histogram

	// Harness-level metrics.
	SpawnFailuresTotal prometheus.Counter
	RunsInFlight       prometheus.Gauge
	BuildInfo          *prometheus.GaugeVec
}

// New creates and registers all sprog metrics.
func New() *Collector {
	reg := prometheus.NewRegistry()

	// Register default Go runtime metrics.
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &Collector{
		registry: reg,

		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sprog_check_runs_total",
				Help: "Total number of check runs by verdict.",
			},
			[]string{"verdict"},
		),

		RunViolations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sprog_check_violations_total",
				Help: "Total number of property violations by property.",
			},
			[]string{"property"},
		),

		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sprog_check_run_duration_seconds",
				Help:    "Wall clock duration of individual check runs.",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			},
		),

		SpawnFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sprog_spawn_failures_total",
				Help: "Total number of runs that failed to duplicate.",
			},
		),

		RunsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sprog_check_runs_in_flight",
				Help: "Number of check runs currently executing.",
			},
		),

		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sprog_info",
				Help: "Build information about sprog.",
			},
			[]string{"version", "go_version"},
		),
	}

	reg.MustRegister(
		c.RunsTotal,
		c.RunViolations,
		c.RunDuration,
		c.SpawnFailuresTotal,
		c.RunsInFlight,
		c.BuildInfo,
	)

	return c
}

// Handler returns an http.Handler that serves the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// SetBuildInfo sets the constant build info gauge.
func (c *Collector) SetBuildInfo(version, goVersion string) {
	c.BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// ObserveRun records a finished run with its verdict and duration.
func (c *Collector) ObserveRun(verdict string, seconds float64) {
	c.RunsTotal.WithLabelValues(verdict).Inc()
	c.RunDuration.Observe(seconds)
}

// IncViolation increments the violation counter for a property.
func (c *Collector) IncViolation(property string) {
	c.RunViolations.WithLabelValues(property).Inc()
}

// IncSpawnFailure increments the spawn failure counter.
func (c *Collector) IncSpawnFailure() {
	c.SpawnFailuresTotal.Inc()
}

// RunStarted marks a run as in flight.
func (c *Collector) RunStarted() {
	c.RunsInFlight.Inc()
}

// RunFinished marks a run as no longer in flight.
func (c *Collector) RunFinished() {
	c.RunsInFlight.Dec()
}
