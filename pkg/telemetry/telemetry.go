// Package telemetry provides the engine's structured logging and the
// small numeric helpers used to summarize a run's progress: per-epoch
// reductions over engine.Stats and a moving average for throughput.
package telemetry

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kargakis/vowmitm/pkg/engine"
)

// Logger wraps logrus with the JSON formatter the rest of the fleet
// expects to pipe into a log aggregator, and the field names every
// call site in this module shares.
type Logger struct {
	*logrus.Logger
}

// New builds a Logger at the given level, logging structured fields
// to stderr as JSON.
func New(level logrus.Level) *Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	l.SetLevel(level)
	return &Logger{Logger: l}
}

// WorkerStarted logs a worker/rank coming online.
func (l *Logger) WorkerStarted(rank int, role string) {
	l.WithFields(logrus.Fields{"rank": rank, "role": role}).Info("worker started")
}

// EpochComplete logs the cumulative stats at the end of a dictionary
// epoch, the point where version increments and the table clears.
func (l *Logger) EpochComplete(version uint64, stats engine.Stats) {
	l.WithFields(logrus.Fields{
		"version":        version,
		"chains":         stats.Chains,
		"collisions":     stats.Collisions,
		"robin_hood":     stats.RobinHoodEvictions,
		"same_branch":    stats.SameBranchRejections,
		"predicate_fail": stats.PredicateRejections,
		"too_long":       stats.TooLong,
		"evaluations":    stats.Evaluations,
	}).Info("epoch complete")
}

// GoldenFound logs a confirmed result.
func (l *Logger) GoldenFound(x0, x1 uint64, stats engine.Stats) {
	l.WithFields(logrus.Fields{
		"x0":          x0,
		"x1":          x1,
		"evaluations": stats.Evaluations,
		"versions":    stats.Versions,
	}).Info("golden pair found")
}

// Reduce combines per-worker or per-epoch stats into a single total:
// counters are summed and Versions takes the maximum.
func Reduce(all ...engine.Stats) engine.Stats {
	var total engine.Stats
	for _, s := range all {
		total.Chains += s.Chains
		total.Collisions += s.Collisions
		total.SameBranchRejections += s.SameBranchRejections
		total.PredicateRejections += s.PredicateRejections
		total.RobinHoodEvictions += s.RobinHoodEvictions
		total.TooLong += s.TooLong
		total.Evaluations += s.Evaluations
		if s.Versions > total.Versions {
			total.Versions = s.Versions
		}
	}
	return total
}

// MovingAverage tracks an exponentially weighted average of a
// per-tick rate so a single slow tick doesn't make the reported
// throughput jump around.
type MovingAverage struct {
	alpha float64
	value float64
	init  bool
}

// NewMovingAverage builds a tracker with the given smoothing factor
// in (0, 1]; smaller alpha weighs history more heavily.
func NewMovingAverage(alpha float64) *MovingAverage {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.2
	}
	return &MovingAverage{alpha: alpha}
}

// Update folds in a new sample and returns the updated average.
func (m *MovingAverage) Update(sample float64) float64 {
	if !m.init {
		m.value = sample
		m.init = true
		return m.value
	}
	m.value = m.alpha*sample + (1-m.alpha)*m.value
	return m.value
}

// Value returns the current average without updating it.
func (m *MovingAverage) Value() float64 {
	return m.value
}
