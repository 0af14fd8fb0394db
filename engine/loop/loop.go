// Package loop drives a scene's frames: every step runs the animation callbacks,
// then draws.
package loop

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-space/engine/profiler"
	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned by Start on a running loop.
var ErrAlreadyRunning = errors.New("render loop already running")

// State is the run state of a Loop.
type State int

const (
	StateStopped State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "stopped"
}

// Target is what a loop draws. At most one running loop may claim a target.
type Target interface {
	Draw() error
	Claim(owner any) error
	Unclaim(owner any)
}

// Runner runs the per-frame callbacks.
type Runner interface {
	RunAll(elapsed float64)
}

type loopImpl struct {
	mu *sync.Mutex

	scheduler Scheduler
	log       *zap.Logger
	profiler  *profiler.Profiler
	clock     func() time.Time

	state      State
	generation uint64
	target     Target
	runner     Runner
	start      time.Time
	cancel     func()
	inFlight   int
	afterFrame []func()

	frames atomic.Uint64
}

// Loop is the single frame driver of a scene.
//
// Each step computes the seconds elapsed since Start, runs the Runner, then draws
// the Target. The next step is scheduled only after the current one finished, so
// draw N is issued before step N+1 begins. Stop cancels the pending step; a step
// already running finishes but schedules nothing; AfterFrame defers work until it
// has returned.
type Loop interface {
	// Start transitions to Running and schedules the first step.
	//
	// Parameters:
	//   - target: what to draw each frame
	//   - runner: the per-frame callbacks
	//
	// Returns:
	//   - error: ErrAlreadyRunning, or the target's claim error
	Start(target Target, runner Runner) error

	// Stop transitions to Stopped. Stopping a stopped loop is a no-op.
	Stop()

	// AfterFrame runs fn once no step is executing. When the loop is idle fn runs
	// immediately on the caller; otherwise it is queued and run by the step that
	// finishes last, after its draw.
	//
	// Parameters:
	//   - fn: the function to run
	//
	// Returns:
	//   - bool: true if fn already ran
	AfterFrame(fn func()) bool

	// State returns the current run state.
	//
	// Returns:
	//   - State: running or stopped
	State() State

	// Frames returns the number of completed steps since the loop was created.
	//
	// Returns:
	//   - uint64: the frame count
	Frames() uint64
}

var _ Loop = &loopImpl{}

// NewLoop creates a stopped Loop whose steps are scheduled through scheduler.
//
// Parameters:
//   - scheduler: the frame scheduler
//   - options: variadic list of LoopBuilderOption functions
//
// Returns:
//   - Loop: the loop
func NewLoop(scheduler Scheduler, options ...LoopBuilderOption) Loop {
	l := &loopImpl{
		mu:        &sync.Mutex{},
		scheduler: scheduler,
		log:       zap.NewNop(),
		clock:     time.Now,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *loopImpl) Start(target Target, runner Runner) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateRunning {
		return ErrAlreadyRunning
	}
	if err := target.Claim(l); err != nil {
		return fmt.Errorf("start render loop: %w", err)
	}

	l.generation++
	l.state = StateRunning
	l.target = target
	l.runner = runner
	l.start = l.clock()
	l.scheduleLocked(l.generation)
	l.log.Debug("render loop started", zap.Uint64("generation", l.generation))
	return nil
}

// scheduleLocked queues the next step of generation gen. Caller must hold the mutex.
func (l *loopImpl) scheduleLocked(gen uint64) {
	l.cancel = l.scheduler.Schedule(func(now time.Time) {
		l.step(gen, now)
	})
}

func (l *loopImpl) step(gen uint64, now time.Time) {
	l.mu.Lock()
	if l.state != StateRunning || gen != l.generation {
		// stale step from a stopped run
		l.mu.Unlock()
		return
	}
	target, runner := l.target, l.runner
	elapsed := now.Sub(l.start).Seconds()
	l.inFlight++
	l.mu.Unlock()

	if elapsed < 0 {
		elapsed = 0
	}
	l.runFrame(target, runner, elapsed)

	l.mu.Lock()
	l.inFlight--
	var hooks []func()
	if l.inFlight == 0 {
		hooks, l.afterFrame = l.afterFrame, nil
	}
	if l.state == StateRunning && gen == l.generation {
		l.scheduleLocked(gen)
	}
	l.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

func (l *loopImpl) runFrame(target Target, runner Runner, elapsed float64) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("render step recovered from panic", zap.Any("panic", r), zap.Float64("elapsed", elapsed))
		}
	}()

	if runner != nil {
		runner.RunAll(elapsed)
	}
	if err := target.Draw(); err != nil {
		l.log.Error("draw failed", zap.Float64("elapsed", elapsed), zap.Error(err))
	}
	l.frames.Add(1)
	if l.profiler != nil {
		l.profiler.Tick()
	}
}

func (l *loopImpl) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateStopped {
		return
	}
	l.state = StateStopped
	l.generation++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.target.Unclaim(l)
	l.target = nil
	l.runner = nil
	l.log.Debug("render loop stopped", zap.Uint64("frames", l.frames.Load()))
}

func (l *loopImpl) AfterFrame(fn func()) bool {
	l.mu.Lock()
	if l.inFlight > 0 {
		l.afterFrame = append(l.afterFrame, fn)
		l.mu.Unlock()
		return false
	}
	l.mu.Unlock()
	fn()
	return true
}

func (l *loopImpl) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *loopImpl) Frames() uint64 {
	return l.frames.Load()
}
