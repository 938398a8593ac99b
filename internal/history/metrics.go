package history

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// WithPrometheus registers history counters on reg.
func WithPrometheus(reg *prometheus.Registry, namespace, subsystem string) Option {
	if reg == nil {
		return nil
	}
	if subsystem == "" {
		subsystem = "history"
	}
	namespace = strings.ReplaceAll(namespace, ".", "_")
	subsystem = strings.ReplaceAll(subsystem, ".", "_")

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}

	return func(s *Store) {
		s.metrics = &metrics{
			captures:   counter("captures", "snapshots appended"),
			suppressed: counter("suppressed", "captures ignored during restore"),
			undos:      counter("undos", "undo restores started"),
			redos:      counter("redos", "redo restores started"),
			failures:   counter("restore_failures", "restores rolled back"),
			rejected:   counter("rejected", "undo/redo rejected while restoring"),
			length: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "length",
				Help:      "snapshots held",
			}, func() float64 {
				return float64(s.Len())
			}),
		}
		reg.MustRegister(
			s.metrics.captures,
			s.metrics.suppressed,
			s.metrics.undos,
			s.metrics.redos,
			s.metrics.failures,
			s.metrics.rejected,
			s.metrics.length,
		)
	}
}

type metrics struct {
	captures   prometheus.Counter
	suppressed prometheus.Counter
	undos      prometheus.Counter
	redos      prometheus.Counter
	failures   prometheus.Counter
	rejected   prometheus.Counter
	length     prometheus.GaugeFunc
}

// inc is nil-safe so the store can count without checking for metrics.
func (m *metrics) inc(pick func(*metrics) prometheus.Counter) {
	if m == nil {
		return
	}
	pick(m).Inc()
}
