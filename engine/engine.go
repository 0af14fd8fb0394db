// Package engine acquires and releases scenes: a resource pool mounted in a host,
// an animation registry, a render loop and a resize coordinator composed behind one handle.
package engine

import (
	"context"
	"sync"

	"github.com/Carmen-Shannon/oxy-space/engine/animation"
	"github.com/Carmen-Shannon/oxy-space/engine/loop"
	"github.com/Carmen-Shannon/oxy-space/engine/profiler"
	"github.com/Carmen-Shannon/oxy-space/engine/renderer"
	"github.com/Carmen-Shannon/oxy-space/engine/resize"
	"github.com/Carmen-Shannon/oxy-space/engine/resource"
	"go.uber.org/zap"
)

// ErrNoRenderingContext is wrapped by the error of AcquireScene when no backend is configured.
var ErrNoRenderingContext = renderer.ErrNoRenderingContext

// Size is a drawable size in pixels.
type Size struct {
	Width  int
	Height int
}

// SceneHandle is an acquired scene. Its methods are safe to call on a nil handle.
type SceneHandle struct {
	mu *sync.Mutex

	pool      resource.Pool
	registry  animation.Registry
	loop      loop.Loop
	unobserve func()
	stopTick  context.CancelFunc
	log       *zap.Logger
	done      chan struct{}

	released bool
}

// AcquireScene creates a scene in mount and starts rendering it.
//
// The surface is attached to mount, the camera aspect is size.Width/size.Height and
// the render loop is running when AcquireScene returns. With WithViewport the surface
// and camera follow the viewport's size. Without WithScheduler, mounts that schedule
// frames themselves are used as the scheduler, otherwise an internal ticker runs at
// the configured frame limit until Release.
//
// Parameters:
//   - mount: the host region, or nil for an offscreen scene
//   - size: the initial drawable size
//   - options: variadic list of SceneBuilderOption functions
//
// Returns:
//   - *SceneHandle: the running scene
//   - error: a *resource.ResourceError when no surface can be created or attached
func AcquireScene(mount resource.MountPoint, size Size, options ...SceneBuilderOption) (*SceneHandle, error) {
	o := newSceneOptions()
	for _, opt := range options {
		opt(o)
	}

	if o.scheduler == nil {
		if s, ok := mount.(loop.Scheduler); ok {
			o.scheduler = s
		}
	}
	if o.viewport == nil {
		if v, ok := mount.(resize.Viewport); ok {
			o.viewport = v
		}
	}

	pool, err := resource.Acquire(o.backend, mount, size.Width, size.Height, o.poolOptions()...)
	if err != nil {
		o.log.Error("scene acquisition failed", zap.Int("width", size.Width), zap.Int("height", size.Height), zap.Error(err))
		return nil, err
	}

	h := &SceneHandle{
		mu:       &sync.Mutex{},
		pool:     pool,
		registry: animation.NewRegistry(animation.WithLogger(o.log)),
		log:      o.log,
		done:     make(chan struct{}),
	}

	loopOpts := []loop.LoopBuilderOption{loop.WithLogger(o.log)}
	if o.profiling {
		loopOpts = append(loopOpts, loop.WithProfiler(profiler.NewProfiler(profiler.WithLogger(o.log))))
	}

	scheduler := o.scheduler
	if scheduler == nil {
		ticker := loop.NewTicker(o.frameLimit)
		ctx, cancel := context.WithCancel(context.Background())
		h.stopTick = cancel
		go ticker.Run(ctx)
		scheduler = ticker
	}
	h.loop = loop.NewLoop(scheduler, loopOpts...)

	if o.viewport != nil {
		h.unobserve = resize.Observe(o.viewport, pool, pool.Camera(), pool.Surface(), resize.WithLogger(o.log))
	}

	if err := h.loop.Start(pool, h.registry); err != nil {
		h.Release()
		return nil, err
	}

	o.log.Info("scene acquired", zap.Int("width", size.Width), zap.Int("height", size.Height))
	return h, nil
}

// RegisterAnimation adds cb to the scene's per-frame callbacks.
//
// Parameters:
//   - cb: the callback, receiving seconds elapsed since the scene started
//
// Returns:
//   - animation.Token: the token to unregister with, or the zero token once released
func (h *SceneHandle) RegisterAnimation(cb animation.Callback) animation.Token {
	if h == nil {
		return animation.Token{}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return animation.Token{}
	}
	return h.registry.Register(cb)
}

// UnregisterAnimation removes the callback registered under token. Unknown tokens are ignored.
func (h *SceneHandle) UnregisterAnimation(token animation.Token) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.registry.Unregister(token)
}

// Release stops the render loop, drops every callback and stops following the
// viewport. The scene's GPU resources are released and its surface detached once no
// frame is being drawn: immediately when idle, otherwise when the frame in flight
// returns. Done is closed after that. Later calls do nothing.
func (h *SceneHandle) Release() {
	if h == nil {
		return
	}
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	h.mu.Unlock()

	h.loop.Stop()
	dropped := h.registry.Clear()
	if h.unobserve != nil {
		h.unobserve()
	}
	h.loop.AfterFrame(func() { h.teardown(dropped) })
}

func (h *SceneHandle) teardown(dropped int) {
	h.pool.Dispose()
	if h.stopTick != nil {
		h.stopTick()
	}

	stats := h.pool.Stats()
	h.log.Info("scene released",
		zap.Int("callbacks", dropped),
		zap.Uint64("frames", h.loop.Frames()),
		zap.Int("created", stats.Created),
		zap.Int("released", stats.Released),
	)
	close(h.done)
}

// Done returns a channel closed once Release has disposed the scene's resources.
func (h *SceneHandle) Done() <-chan struct{} {
	if h == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return h.done
}

// Released reports whether Release has run.
func (h *SceneHandle) Released() bool {
	if h == nil {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Pool returns the scene's resource pool, where feature visuals create their resources.
func (h *SceneHandle) Pool() resource.Pool {
	if h == nil {
		return nil
	}
	return h.pool
}

// Loop returns the scene's render loop.
func (h *SceneHandle) Loop() loop.Loop {
	if h == nil {
		return nil
	}
	return h.loop
}
