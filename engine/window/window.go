// Package window hosts a scene in a desktop window. The window is the scene's mount
// point, its viewport and, through its message loop, its frame scheduler.
package window

import (
	"fmt"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-space/engine/loop"
	"github.com/Carmen-Shannon/oxy-space/engine/resize"
	"github.com/Carmen-Shannon/oxy-space/engine/resource"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// Window provides a platform window that can host one rendering surface.
type Window interface {
	resource.MountPoint
	resize.Viewport
	loop.Scheduler

	// SetUpdateCallback sets the function called each message loop iteration,
	// before the pending frame step runs.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// ContentScale returns the ratio between framebuffer pixels and screen coordinates.
	//
	// Returns:
	//   - float32: the device pixel ratio, 1 on standard displays
	ContentScale() float32

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Each iteration polls events, calls the
	// update callback, then runs the pending frame step.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	*resource.Mount
	*resize.Notifier
	*loop.StepSlot

	title string

	// size limits applied to user resizes
	minWidth, minHeight int
	maxWidth, maxHeight int

	// width and height track the framebuffer, not the window, size
	width  int
	height int

	log *zap.Logger

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onUpdate func()
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a new Window. It must be called from the main goroutine.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the window
//   - error: error if the platform window cannot be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		Mount:     resource.NewMount(),
		Notifier:  resize.NewNotifier(),
		StepSlot:  loop.NewStepSlot(),
		title:     "oxy-space",
		minWidth:  320,
		minHeight: 200,
		width:     1280,
		height:    720,
		log:       zap.NewNop(),
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	w.log.Debug("window created", zap.String("title", w.title), zap.Int("width", w.width), zap.Int("height", w.height))
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) ContentScale() float32 {
	return platformContentScale(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		if step := w.Take(); step != nil {
			step(time.Now())
		}

		runtime.Gosched()
	}
}

// resized records the new framebuffer size and notifies viewport subscribers.
func (w *engineWindow) resized(width, height int) {
	w.width = width
	w.height = height
	w.log.Debug("framebuffer resized", zap.Int("width", width), zap.Int("height", height))
	w.Notify(width, height)
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
