// Package resize keeps a scene's surface size and camera aspect in step with its viewport.
package resize

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-space/engine/camera"
	"go.uber.org/zap"
)

// Viewport delivers host resize notifications.
type Viewport interface {
	// OnResize subscribes fn to size changes.
	//
	// Parameters:
	//   - fn: called with the new drawable size in pixels
	//
	// Returns:
	//   - unsubscribe: stops delivery; calling it more than once is a no-op
	OnResize(fn func(width, height int)) (unsubscribe func())
}

// Resizable is a drawable whose size can change.
type Resizable interface {
	Size() (width, height int)
	Resize(width, height int)
}

// Locker guards a frame. The coordinator mutates surface and camera only while holding it.
type Locker interface {
	Lock()
	Unlock()
}

// Observe subscribes to viewport and, on each size change, resizes surf and sets the
// camera aspect to float32(width)/float32(height) together under lock. Sizes with a
// non-positive dimension, such as a minimised window, and repeats of the current
// surface size are ignored.
//
// Parameters:
//   - viewport: the resize notification source
//   - lock: the frame lock, usually the resource pool
//   - cam: the camera whose aspect follows the viewport
//   - surf: the surface whose size follows the viewport
//   - options: variadic list of ObserveOption functions
//
// Returns:
//   - unsubscribe: stops observing; calling it more than once is a no-op
func Observe(viewport Viewport, lock Locker, cam camera.Camera, surf Resizable, options ...ObserveOption) (unsubscribe func()) {
	o := &observer{log: zap.NewNop()}
	for _, opt := range options {
		opt(o)
	}

	stop := viewport.OnResize(func(width, height int) {
		if width <= 0 || height <= 0 {
			o.log.Debug("ignoring degenerate viewport size", zap.Int("width", width), zap.Int("height", height))
			return
		}
		lock.Lock()
		defer lock.Unlock()
		if w, h := surf.Size(); w == width && h == height {
			return
		}
		surf.Resize(width, height)
		cam.Resize(width, height)
		o.log.Debug("viewport resized", zap.Int("width", width), zap.Int("height", height))
	})

	var once sync.Once
	return func() {
		once.Do(stop)
	}
}

type observer struct {
	log *zap.Logger
}

// ObserveOption is a functional option applied by Observe.
type ObserveOption func(*observer)

// WithLogger sets the logger for resize events.
func WithLogger(log *zap.Logger) ObserveOption {
	return func(o *observer) {
		if log != nil {
			o.log = log
		}
	}
}
