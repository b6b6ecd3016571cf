package report

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sak85/API-Automation-POC/apiclient"
	"github.com/sak85/API-Automation-POC/framework"
	"github.com/sak85/API-Automation-POC/framework/scenario"
)

// MetricsFileName is the name of the metrics textfile within the report directory.
const MetricsFileName = "metrics.prom"

const metricsNamespace = "harness"

// Metrics collects counters for API attempts and scenario outcomes on a private registry, and
// writes them in the Prometheus textfile format when the run ends. It implements both
// apiclient.AttemptObserver and scenario.ReportWriter, and is safe for concurrent use.
type Metrics struct {
	registry          *prometheus.Registry
	apiRequests       *prometheus.CounterVec
	apiRequestLatency *prometheus.HistogramVec
	apiFailures       *prometheus.CounterVec
	scenarios         *prometheus.CounterVec
	scenarioDuration  *prometheus.HistogramVec
	dir               string
}

// NewMetrics creates a Metrics that writes metrics.prom into dir at the end of the run. If dir is
// empty, nothing is written.
func NewMetrics(dir string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total number of HTTP request attempts",
			},
			[]string{"method", "status"},
		),
		apiRequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "HTTP request attempt latency in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
			},
			[]string{"method"},
		),
		apiFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "api",
				Name:      "failed_attempts_total",
				Help:      "Total number of HTTP request attempts that failed",
			},
			[]string{"method"},
		),
		scenarios: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "scenario",
				Name:      "results_total",
				Help:      "Total number of scenarios by outcome",
			},
			[]string{"status"},
		),
		scenarioDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "scenario",
				Name:      "duration_seconds",
				Help:      "Scenario duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
			},
			[]string{"status"},
		),
		dir: dir,
	}
	m.registry.MustRegister(m.apiRequests, m.apiRequestLatency, m.apiFailures, m.scenarios, m.scenarioDuration)
	return m
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveAttempt records one HTTP request attempt. A status of 0 means no response was received.
func (m *Metrics) ObserveAttempt(a apiclient.Attempt) {
	status := "none"
	if a.StatusCode > 0 {
		status = strconv.Itoa(a.StatusCode)
	}
	m.apiRequests.WithLabelValues(a.Method, status).Inc()
	m.apiRequestLatency.WithLabelValues(a.Method).Observe(a.Elapsed.Seconds())
	if a.Err != nil {
		m.apiFailures.WithLabelValues(a.Method).Inc()
	}
}

func (m *Metrics) ScenarioStarted(scenario.ID)        {}
func (m *Metrics) ScenarioError(scenario.ID, error)   {}
func (m *Metrics) ScenarioSkipped(scenario.ID, string) {
	m.scenarios.WithLabelValues(StatusSkipped).Inc()
}

func (m *Metrics) ScenarioFinished(_ scenario.ID, result scenario.Result, _ framework.CapturedOutput) {
	status := StatusOf(result)
	m.scenarios.WithLabelValues(status).Inc()
	m.scenarioDuration.WithLabelValues(status).Observe(result.Duration.Seconds())
}

// EndLog writes the metrics textfile.
func (m *Metrics) EndLog(scenario.Results) error {
	if m.dir == "" {
		return nil
	}
	if err := EnsureDirs(m.dir); err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(filepath.Join(m.dir, MetricsFileName), m.registry); err != nil {
		return fmt.Errorf("could not write metrics: %w", err)
	}
	return nil
}
