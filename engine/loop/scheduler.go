package loop

import (
	"context"
	"sync"
	"time"
)

// Step is one frame step. now is the time the scheduler runs it.
type Step func(now time.Time)

// Scheduler runs scheduled steps one at a time, never inside Schedule itself.
type Scheduler interface {
	// Schedule queues step to run on the scheduler's next frame.
	//
	// Parameters:
	//   - step: the step to run
	//
	// Returns:
	//   - cancel: removes the step if it has not started yet
	Schedule(step Step) (cancel func())
}

// StepSlot holds at most one pending step. Scheduling replaces the pending step.
// Message loops embed it and call Take once per iteration.
type StepSlot struct {
	mu   *sync.Mutex
	step Step
	seq  uint64
}

var _ Scheduler = &StepSlot{}

// NewStepSlot creates an empty slot.
func NewStepSlot() *StepSlot {
	return &StepSlot{mu: &sync.Mutex{}}
}

func (s *StepSlot) Schedule(step Step) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := s.seq
	s.step = step
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.seq == id {
			s.step = nil
		}
	}
}

// Take removes and returns the pending step, or nil.
func (s *StepSlot) Take() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	step := s.step
	s.step = nil
	return step
}

// Pending reports whether a step is waiting.
func (s *StepSlot) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step != nil
}

// ManualScheduler runs steps only when the caller says so. It replaces the display
// clock in tests.
type ManualScheduler struct {
	*StepSlot
}

// NewManualScheduler creates a ManualScheduler with nothing pending.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{StepSlot: NewStepSlot()}
}

// Step runs the pending step with the given time.
//
// Returns:
//   - bool: false if nothing was pending
func (m *ManualScheduler) Step(now time.Time) bool {
	step := m.Take()
	if step == nil {
		return false
	}
	step(now)
	return true
}

// Ticker runs pending steps at a fixed frame rate on the goroutine that calls Run.
type Ticker struct {
	*StepSlot
	interval time.Duration
	rate     chan time.Duration
}

// NewTicker creates a Ticker running at fps frames per second. Non-positive rates mean 60.
func NewTicker(fps float64) *Ticker {
	return &Ticker{
		StepSlot: NewStepSlot(),
		interval: frameInterval(fps),
		rate:     make(chan time.Duration, 1),
	}
}

func frameInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}

// SetRate changes the frame rate of a running or stopped Ticker.
func (t *Ticker) SetRate(fps float64) {
	d := frameInterval(fps)
	// keep only the newest rate
	select {
	case t.rate <- d:
	default:
		select {
		case <-t.rate:
		default:
		}
		t.rate <- d
	}
}

// Run ticks until ctx is done, running the pending step on every tick.
//
// Returns:
//   - error: ctx.Err() once ctx is done
func (t *Ticker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if step := t.Take(); step != nil {
				step(now)
			}
		case d := <-t.rate:
			t.interval = d
			ticker.Reset(d)
		}
	}
}
