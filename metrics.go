package libpython

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "libpython"

	StageDurationKey = "stage_duration_seconds"
	ClangProbesKey   = "clang_probes_total"
	BuildsKey        = "builds_total"
)

// Probe outcome label values.
const (
	probeNotAttempted = "not_attempted"
	probeFailed       = "failed"
	probeResolved     = "resolved"
)

// Metrics collects pipeline metrics into its own registry.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	clangProbes   *prometheus.CounterVec
	builds        *prometheus.CounterVec
}

// NewMetrics creates and registers the pipeline collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      StageDurationKey,
			Help:      "How long a single pipeline stage takes in seconds.",
		}, []string{"stage"}),
		clangProbes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      ClangProbesKey,
			Help:      "Outcomes of the clang runtime library search path probe.",
		}, []string{"outcome"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      BuildsKey,
			Help:      "Finished pipeline invocations by target and result.",
		}, []string{"target", "result"}),
	}
	m.Registry.MustRegister(m.stageDuration, m.clangProbes, m.builds)
	return m
}

func (m *Metrics) observeStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (m *Metrics) recordProbe(probe ClangProbe) {
	if m == nil {
		return
	}
	m.clangProbes.WithLabelValues(probeOutcome(probe)).Inc()
}

func (m *Metrics) recordBuild(target string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.builds.WithLabelValues(target, result).Inc()
}

// WriteTextfile writes all collected metrics in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

func probeOutcome(probe ClangProbe) string {
	switch {
	case !probe.Attempted:
		return probeNotAttempted
	case probe.Resolved():
		return probeResolved
	default:
		return probeFailed
	}
}
