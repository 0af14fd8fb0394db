package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-space/engine/animation"
	"github.com/Carmen-Shannon/oxy-space/engine/config"
	"github.com/Carmen-Shannon/oxy-space/engine/loop"
	"github.com/Carmen-Shannon/oxy-space/engine/particle"
	"github.com/Carmen-Shannon/oxy-space/engine/renderer"
	"github.com/Carmen-Shannon/oxy-space/engine/renderer/fake"
	"github.com/Carmen-Shannon/oxy-space/engine/resize"
	"github.com/Carmen-Shannon/oxy-space/engine/resource"
	"github.com/Carmen-Shannon/oxy-space/engine/starfield"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fixture struct {
	backend *fake.Backend
	mount   *resource.Mount
	sched   *loop.ManualScheduler
	view    *resize.Notifier
	scene   *SceneHandle
	epoch   time.Time
}

func newFixture(t *testing.T, opts ...SceneBuilderOption) *fixture {
	t.Helper()
	f := &fixture{
		backend: fake.New(),
		mount:   resource.NewMount(),
		sched:   loop.NewManualScheduler(),
		view:    resize.NewNotifier(),
		epoch:   time.Now(),
	}
	base := []SceneBuilderOption{WithBackend(f.backend), WithScheduler(f.sched), WithViewport(f.view)}
	scene, err := AcquireScene(f.mount, Size{Width: 800, Height: 600}, append(base, opts...)...)
	require.NoError(t, err)
	f.scene = scene
	t.Cleanup(scene.Release)
	return f
}

func (f *fixture) step(seconds float64) bool {
	return f.sched.Step(f.epoch.Add(time.Duration(seconds * float64(time.Second))))
}

func TestAcquireWithoutBackend(t *testing.T) {
	mount := resource.NewMount()
	scene, err := AcquireScene(mount, Size{Width: 800, Height: 600}, WithScheduler(loop.NewManualScheduler()))
	require.Error(t, err)
	assert.Nil(t, scene)
	assert.True(t, resource.IsResourceError(err))
	assert.ErrorIs(t, err, ErrNoRenderingContext)
	assert.Nil(t, mount.Child())

	scene.Release()
	assert.True(t, scene.Released())
	assert.Equal(t, animation.Token{}, scene.RegisterAnimation(func(float64) error { return nil }))
}

func TestAcquireMountsAndStarts(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.mount.Contains(f.scene.Pool().Surface()))
	assert.Equal(t, loop.StateRunning, f.scene.Loop().State())
	assert.Equal(t, float32(800)/float32(600), f.scene.Pool().Camera().Aspect())
	assert.True(t, f.sched.Pending())
}

func TestAcquireIntoOccupiedMount(t *testing.T) {
	f := newFixture(t)
	_, err := AcquireScene(f.mount, Size{Width: 10, Height: 10}, WithBackend(f.backend), WithScheduler(loop.NewManualScheduler()))
	assert.ErrorIs(t, err, resource.ErrMountOccupied)
	assert.True(t, f.mount.Contains(f.scene.Pool().Surface()))
}

func TestReleaseWithoutFramesIsLeakFree(t *testing.T) {
	f := newFixture(t)
	f.scene.Release()

	created, released := f.backend.Stats()
	assert.Equal(t, created, released)
	assert.Equal(t, 0, f.backend.Live())
	assert.Nil(t, f.mount.Child())
	assert.True(t, f.scene.Released())
	assert.Equal(t, loop.StateStopped, f.scene.Loop().State())
	assert.Equal(t, 0, f.view.Subscribers())
	assert.False(t, f.step(1))
}

func TestReleaseIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.scene.Release()
	events := f.backend.Events()
	f.scene.Release()
	assert.Equal(t, events, f.backend.Events())

	var nilScene *SceneHandle
	assert.NotPanics(t, nilScene.Release)
	<-nilScene.Done()
}

func TestReleaseFromCallbackDisposesAfterDraw(t *testing.T) {
	f := newFixture(t)
	disposedEarly := false
	f.scene.RegisterAnimation(func(float64) error {
		f.scene.Release()
		select {
		case <-f.scene.Done():
			disposedEarly = true
		default:
		}
		return nil
	})

	assert.True(t, f.step(0))
	assert.False(t, disposedEarly)
	<-f.scene.Done()
	assert.Equal(t, 1, f.backend.Surface().Frames())
	assert.Equal(t, uint64(1), f.scene.Loop().Frames())
	created, released := f.backend.Stats()
	assert.Equal(t, created, released)
	assert.False(t, f.sched.Pending())
}

func TestReleaseDuringTickerFrameWaitsForDraw(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	backend := fake.New()
	cfg := config.Default()
	cfg.Scene.FrameLimit = 200

	scene, err := AcquireScene(nil, Size{Width: 64, Height: 64}, WithBackend(backend), WithConfig(cfg), WithLogger(zap.New(core)))
	require.NoError(t, err)

	entered := make(chan struct{})
	unblock := make(chan struct{})
	var once sync.Once
	scene.RegisterAnimation(func(float64) error {
		once.Do(func() {
			close(entered)
			<-unblock
		})
		return nil
	})

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("no frame started")
	}
	scene.Release()

	select {
	case <-scene.Done():
		t.Fatal("disposed while a frame was in flight")
	default:
	}
	assert.Greater(t, backend.Live(), 0)

	close(unblock)
	select {
	case <-scene.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scene resources were never released")
	}

	assert.Equal(t, 0, logs.Len())
	created, released := backend.Stats()
	assert.Equal(t, created, released)
	assert.Equal(t, scene.Loop().Frames(), uint64(backend.Surface().Frames()))
}

func TestAnimationsRunBeforeDraw(t *testing.T) {
	f := newFixture(t)
	var seen []float64
	token := f.scene.RegisterAnimation(func(elapsed float64) error {
		seen = append(seen, elapsed)
		assert.Equal(t, len(seen)-1, f.backend.Surface().Frames())
		return nil
	})
	assert.NotEqual(t, animation.Token{}, token)

	require.True(t, f.step(0.5))
	require.True(t, f.step(1.25))
	f.scene.UnregisterAnimation(token)
	require.True(t, f.step(2))

	require.Len(t, seen, 2)
	assert.InDelta(t, 0.5, seen[0], 0.05)
	assert.InDelta(t, 1.25, seen[1], 0.05)
	assert.Equal(t, 3, f.backend.Surface().Frames())
}

func TestFailingAnimationIsIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	f := newFixture(t, WithLogger(zap.New(core)))

	calls := 0
	f.scene.RegisterAnimation(func(float64) error { return errors.New("boom") })
	f.scene.RegisterAnimation(func(float64) error { calls++; return nil })

	f.step(0.1)
	f.step(0.2)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, logs.FilterMessage("animation callback failed").Len())
	assert.Equal(t, 2, f.backend.Surface().Frames())
}

func TestRegisterAfterRelease(t *testing.T) {
	f := newFixture(t)
	f.scene.Release()

	called := false
	token := f.scene.RegisterAnimation(func(float64) error { called = true; return nil })
	assert.Equal(t, animation.Token{}, token)
	f.scene.UnregisterAnimation(token)
	f.step(1)
	assert.False(t, called)
}

func TestResizeKeepsAspectConsistent(t *testing.T) {
	f := newFixture(t)

	f.step(0.1)
	f.view.Notify(1024, 768)
	f.step(0.2)

	frame, ok := f.backend.Surface().LastFrame()
	require.True(t, ok)
	assert.Equal(t, float32(1024)/float32(768), frame.Camera.Aspect())
	w, h := f.scene.Pool().Surface().Size()
	assert.Equal(t, [2]int{1024, 768}, [2]int{w, h})

	f.view.Notify(0, 0)
	f.step(0.3)
	w, h = f.scene.Pool().Surface().Size()
	assert.Equal(t, [2]int{1024, 768}, [2]int{w, h})
}

func TestParticlesReleasedWithScene(t *testing.T) {
	f := newFixture(t)
	field, err := particle.New(3, 10, 42)
	require.NoError(t, err)
	_, err = field.Attach(f.scene.Pool())
	require.NoError(t, err)
	f.scene.RegisterAnimation(field.Callback())

	f.step(1.0)
	frame, ok := f.backend.Surface().LastFrame()
	require.True(t, ok)
	require.Len(t, frame.Drawables, 1)
	positions := frame.Drawables[0].Geometry.(*fake.Geometry).Positions()
	assert.InDelta(t, -2.534029756008666, positions[0], 1e-3)

	f.scene.Release()
	created, released := f.backend.Stats()
	assert.Equal(t, 3, created)
	assert.Equal(t, created, released)
}

func TestStarsBehindParticles(t *testing.T) {
	f := newFixture(t)
	stars, err := starfield.New(16, 100, 7, starfield.WithRate(0.5))
	require.NoError(t, err)
	_, err = stars.Attach(f.scene.Pool())
	require.NoError(t, err)
	field, err := particle.New(3, 10, 42)
	require.NoError(t, err)
	_, err = field.Attach(f.scene.Pool())
	require.NoError(t, err)
	f.scene.RegisterAnimation(stars.Callback())
	f.scene.RegisterAnimation(field.Callback())

	f.step(2.0)
	frame, ok := f.backend.Surface().LastFrame()
	require.True(t, ok)
	require.Len(t, frame.Drawables, 2)
	assert.Equal(t, 16, frame.Drawables[0].Geometry.Count())
	assert.InDelta(t, 1.0, stars.Angle(), 1e-3)

	f.scene.Release()
	created, released := f.backend.Stats()
	assert.Equal(t, 5, created)
	assert.Equal(t, created, released)
}

type windowLike struct {
	*resource.Mount
	*resize.Notifier
	*loop.ManualScheduler
}

func TestMountProvidesSchedulerAndViewport(t *testing.T) {
	backend := fake.New()
	host := &windowLike{Mount: resource.NewMount(), Notifier: resize.NewNotifier(), ManualScheduler: loop.NewManualScheduler()}

	scene, err := AcquireScene(host, Size{Width: 640, Height: 480}, WithBackend(backend))
	require.NoError(t, err)
	defer scene.Release()

	assert.True(t, host.Pending())
	assert.Equal(t, 1, host.Subscribers())
	host.Notify(320, 320)
	assert.Equal(t, float32(1), scene.Pool().Camera().Aspect())
	require.True(t, host.Step(time.Now()))
	assert.Equal(t, 1, backend.Surface().Frames())
}

func TestDefaultTickerDrivesFrames(t *testing.T) {
	backend := fake.New()
	cfg := config.Default()
	cfg.Scene.FrameLimit = 200

	scene, err := AcquireScene(nil, Size{Width: 64, Height: 64}, WithBackend(backend), WithConfig(cfg))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return scene.Loop().Frames() >= 3 }, 5*time.Second, 5*time.Millisecond)
	scene.Release()
	select {
	case <-scene.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scene resources were never released")
	}

	created, released := backend.Stats()
	assert.Equal(t, created, released)
	assert.Equal(t, [4]float32{0x0a / 255.0, 0x0a / 255.0, 0x0a / 255.0, 1}, backend.Surface().Background())
}

func TestWithConfigCamera(t *testing.T) {
	cfg := config.Default()
	cfg.Camera.Position = [3]float32{1, 2, 3}
	f := newFixture(t, WithConfig(cfg))

	cam := f.scene.Pool().Camera()
	x, y, z := cam.Position()
	assert.Equal(t, [3]float32{1, 2, 3}, [3]float32{x, y, z})
	assert.InDelta(t, 75*3.14159265/180, cam.Fov(), 1e-5)
	assert.Equal(t, float32(0.1), cam.Near())
}

func TestWithConfigFog(t *testing.T) {
	cfg := config.Default()
	cfg.Scene.FogColor = "#ff0000"
	density := 0.02
	cfg.Scene.FogDensity = &density
	f := newFixture(t, WithConfig(cfg))

	require.True(t, f.step(0))
	frame, ok := f.backend.Surface().LastFrame()
	require.True(t, ok)
	assert.Equal(t, renderer.Fog{Color: [3]float32{1, 0, 0}, Density: 0.02}, frame.Fog)
}
