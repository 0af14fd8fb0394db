package loop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-space/engine/profiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type target struct {
	mu      sync.Mutex
	events  *[]string
	drawErr error
	owner   any
}

func (t *target) Draw() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	*t.events = append(*t.events, "draw")
	return t.drawErr
}

func (t *target) Claim(owner any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.owner != nil && t.owner != owner {
		return errors.New("claimed")
	}
	t.owner = owner
	return nil
}

func (t *target) Unclaim(owner any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.owner == owner {
		t.owner = nil
	}
}

type runner struct {
	events  *[]string
	elapsed []float64
	onRun   func()
}

func (r *runner) RunAll(elapsed float64) {
	*r.events = append(*r.events, "run")
	r.elapsed = append(r.elapsed, elapsed)
	if r.onRun != nil {
		r.onRun()
	}
}

var epoch = time.Unix(1000, 0)

func newFixture(opts ...LoopBuilderOption) (*ManualScheduler, Loop, *target, *runner, *[]string) {
	var events []string
	sched := NewManualScheduler()
	l := NewLoop(sched, append([]LoopBuilderOption{WithClock(func() time.Time { return epoch })}, opts...)...)
	return sched, l, &target{events: &events}, &runner{events: &events}, &events
}

func TestStepRunsCallbacksThenDraws(t *testing.T) {
	sched, l, tgt, run, events := newFixture()
	require.NoError(t, l.Start(tgt, run))
	assert.Equal(t, StateRunning, l.State())

	assert.True(t, sched.Step(epoch.Add(500*time.Millisecond)))
	assert.True(t, sched.Step(epoch.Add(time.Second)))

	assert.Equal(t, []string{"run", "draw", "run", "draw"}, *events)
	assert.Equal(t, []float64{0.5, 1}, run.elapsed)
	assert.Equal(t, uint64(2), l.Frames())
}

func TestStopCancelsNextStep(t *testing.T) {
	sched, l, tgt, run, events := newFixture()
	require.NoError(t, l.Start(tgt, run))
	sched.Step(epoch)

	l.Stop()
	l.Stop()
	assert.Equal(t, StateStopped, l.State())
	assert.False(t, sched.Pending())
	assert.False(t, sched.Step(epoch))
	assert.Len(t, *events, 2)
	assert.Nil(t, tgt.owner)
}

func TestStopDuringStepFinishesInFlight(t *testing.T) {
	sched, l, tgt, run, events := newFixture()
	run.onRun = l.Stop
	require.NoError(t, l.Start(tgt, run))

	sched.Step(epoch)
	assert.Equal(t, []string{"run", "draw"}, *events)
	assert.False(t, sched.Pending())
	assert.Equal(t, StateStopped, l.State())
}

func TestStaleStepIsIgnored(t *testing.T) {
	_, l, tgt, run, events := newFixture()
	slot := NewStepSlot()
	var stale Step
	l.(*loopImpl).scheduler = schedulerFunc(func(step Step) func() {
		stale = step
		return slot.Schedule(step)
	})

	require.NoError(t, l.Start(tgt, run))
	first := stale
	l.Stop()
	require.NoError(t, l.Start(tgt, run))

	first(epoch)
	assert.Empty(t, *events)
	stale(epoch)
	assert.Equal(t, []string{"run", "draw"}, *events)
}

type schedulerFunc func(Step) func()

func (f schedulerFunc) Schedule(step Step) func() { return f(step) }

func TestStartTwice(t *testing.T) {
	_, l, tgt, run, _ := newFixture()
	require.NoError(t, l.Start(tgt, run))
	assert.ErrorIs(t, l.Start(tgt, run), ErrAlreadyRunning)
}

func TestOneLoopPerTarget(t *testing.T) {
	_, a, tgt, run, _ := newFixture()
	b := NewLoop(NewManualScheduler())

	require.NoError(t, a.Start(tgt, run))
	assert.Error(t, b.Start(tgt, run))
	assert.Equal(t, StateStopped, b.State())

	a.Stop()
	require.NoError(t, b.Start(tgt, run))
}

func TestDrawErrorsAndPanicsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	sched, l, tgt, run, events := newFixture(WithLogger(zap.New(core)))
	tgt.drawErr = errors.New("surface lost")
	require.NoError(t, l.Start(tgt, run))

	sched.Step(epoch)
	assert.Equal(t, 1, logs.FilterMessage("draw failed").Len())

	tgt.drawErr = nil
	run.onRun = func() { panic("bad frame") }
	sched.Step(epoch)
	assert.Equal(t, 1, logs.FilterMessage("render step recovered from panic").Len())

	// the loop keeps scheduling
	run.onRun = nil
	assert.True(t, sched.Step(epoch))
	assert.Equal(t, []string{"run", "draw", "run", "run", "draw"}, *events)
}

func TestNegativeElapsedIsClamped(t *testing.T) {
	sched, l, tgt, run, _ := newFixture()
	require.NoError(t, l.Start(tgt, run))
	sched.Step(epoch.Add(-time.Second))
	assert.Equal(t, []float64{0}, run.elapsed)
}

func TestProfilerTicksPerStep(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	now := epoch
	p := profiler.NewProfiler(
		profiler.WithLogger(zap.New(core)),
		profiler.WithInterval(time.Second),
		profiler.WithClock(func() time.Time { return now }),
	)
	sched, l, tgt, run, _ := newFixture(WithProfiler(p))
	require.NoError(t, l.Start(tgt, run))

	now = now.Add(2 * time.Second)
	sched.Step(now)
	assert.Equal(t, 1, logs.Len())
}

func TestStepSlotCancel(t *testing.T) {
	s := NewStepSlot()
	cancelOld := s.Schedule(func(time.Time) {})
	s.Schedule(func(time.Time) {})
	cancelOld()
	assert.True(t, s.Pending())
	assert.NotNil(t, s.Take())
	assert.Nil(t, s.Take())
}

func TestTickerRunsSteps(t *testing.T) {
	ticker := NewTicker(1000)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan struct{})
	ticker.Schedule(func(time.Time) { close(ran) })

	done := make(chan error, 1)
	go func() { done <- ticker.Run(ctx) }()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker did not run the pending step")
	}
	ticker.SetRate(500)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestAfterFrameRunsImmediatelyWhenIdle(t *testing.T) {
	sched, l, tgt, run, _ := newFixture()
	ran := false
	assert.True(t, l.AfterFrame(func() { ran = true }))
	assert.True(t, ran)

	require.NoError(t, l.Start(tgt, run))
	ran = false
	assert.True(t, l.AfterFrame(func() { ran = true }))
	assert.True(t, ran)
	assert.True(t, sched.Pending())
}

func TestAfterFrameFromCallbackWaitsForDraw(t *testing.T) {
	sched, l, tgt, run, events := newFixture()
	run.onRun = func() {
		l.Stop()
		assert.False(t, l.AfterFrame(func() { *events = append(*events, "after") }))
	}
	require.NoError(t, l.Start(tgt, run))

	sched.Step(epoch)
	assert.Equal(t, []string{"run", "draw", "after"}, *events)
	assert.True(t, l.AfterFrame(func() {}))
}

func TestAfterFrameFromAnotherGoroutine(t *testing.T) {
	sched, l, tgt, run, _ := newFixture()
	entered := make(chan struct{})
	unblock := make(chan struct{})
	run.onRun = func() {
		close(entered)
		<-unblock
	}
	require.NoError(t, l.Start(tgt, run))

	stepped := make(chan struct{})
	go func() {
		sched.Step(epoch)
		close(stepped)
	}()
	<-entered

	l.Stop()
	after := make(chan struct{})
	assert.False(t, l.AfterFrame(func() { close(after) }))

	select {
	case <-after:
		t.Fatal("ran while the frame was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(unblock)
	select {
	case <-after:
	case <-time.After(2 * time.Second):
		t.Fatal("queued function never ran")
	}
	<-stepped
	assert.Equal(t, uint64(1), l.Frames())
}
