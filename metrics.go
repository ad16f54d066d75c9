package logpipe

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts pipeline activity. A nil *Metrics is valid and records
// nothing, so sinks and services can be built without instrumentation.
type Metrics struct {
	entries   *prometheus.CounterVec
	failures  *prometheus.CounterVec
	rotations *prometheus.CounterVec
	pruned    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logpipe",
			Name:      "entries_written_total",
			Help:      "Entries accepted by a sink.",
		}, []string{"sink", "level"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logpipe",
			Name:      "sink_failures_total",
			Help:      "Formatting or write failures per sink.",
		}, []string{"sink"}),
		rotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logpipe",
			Name:      "file_rotations_total",
			Help:      "Files opened by file sinks.",
		}, []string{"sink"}),
		pruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logpipe",
			Name:      "files_pruned_total",
			Help:      "Old log files deleted by retention pruning.",
		}, []string{"sink"}),
	}

	for _, c := range []prometheus.Collector{m.entries, m.failures, m.rotations, m.pruned} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) entryWritten(sink string, level Level) {
	if m == nil {
		return
	}
	m.entries.WithLabelValues(sink, level.String()).Inc()
}

func (m *Metrics) sinkFailed(sink string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(sink).Inc()
}

func (m *Metrics) fileRotated(sink string) {
	if m == nil {
		return
	}
	m.rotations.WithLabelValues(sink).Inc()
}

func (m *Metrics) filesPruned(sink string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.pruned.WithLabelValues(sink).Add(float64(n))
}
