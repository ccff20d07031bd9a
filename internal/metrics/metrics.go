// Package metrics holds the prometheus collectors the engine reports
// into. Hosts pass their own registerer; a nil registerer yields a
// no-op set so library users without prometheus pay nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Set bundles the engine's collectors.
type Set struct {
	Passes               prometheus.Counter
	CellsEvaluated       prometheus.Counter
	CyclesDetected       prometheus.Counter
	NotificationsDropped prometheus.Counter
	PassDuration         prometheus.Histogram
}

// New builds the collector set and registers it with reg. A nil reg
// returns unregistered collectors, which still accept observations.
func New(reg prometheus.Registerer) *Set {
	s := &Set{
		Passes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellgrid_passes_total",
			Help: "Completed evaluation passes.",
		}),
		CellsEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellgrid_cells_evaluated_total",
			Help: "Cells evaluated across all passes.",
		}),
		CyclesDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellgrid_cycles_detected_total",
			Help: "Cells marked with a circular reference error.",
		}),
		NotificationsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellgrid_notifications_dropped_total",
			Help: "Change sets dropped because a subscriber's buffer was full.",
		}),
		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cellgrid_pass_duration_seconds",
			Help:    "Wall time of one evaluation pass.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(s.Passes, s.CellsEvaluated, s.CyclesDetected, s.NotificationsDropped, s.PassDuration)
	}
	return s
}
