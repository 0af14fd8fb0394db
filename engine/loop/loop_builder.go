package loop

import (
	"time"

	"github.com/Carmen-Shannon/oxy-space/engine/profiler"
	"go.uber.org/zap"
)

// LoopBuilderOption is a functional option applied to a loop during NewLoop.
type LoopBuilderOption func(*loopImpl)

// WithLogger sets the logger receiving draw errors and recovered panics.
//
// Parameters:
//   - log: the logger
//
// Returns:
//   - LoopBuilderOption: a function that applies the logger option to a loop
func WithLogger(log *zap.Logger) LoopBuilderOption {
	return func(l *loopImpl) {
		if log != nil {
			l.log = log
		}
	}
}

// WithProfiler ticks p once per completed step.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - LoopBuilderOption: a function that applies the profiler option to a loop
func WithProfiler(p *profiler.Profiler) LoopBuilderOption {
	return func(l *loopImpl) {
		l.profiler = p
	}
}

// WithClock replaces time.Now as the source of the loop's start time.
//
// Parameters:
//   - clock: the clock
//
// Returns:
//   - LoopBuilderOption: a function that applies the clock option to a loop
func WithClock(clock func() time.Time) LoopBuilderOption {
	return func(l *loopImpl) {
		if clock != nil {
			l.clock = clock
		}
	}
}
