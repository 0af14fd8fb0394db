package engine

import (
	"github.com/Carmen-Shannon/oxy-space/common"
	"github.com/Carmen-Shannon/oxy-space/engine/camera"
	"github.com/Carmen-Shannon/oxy-space/engine/config"
	"github.com/Carmen-Shannon/oxy-space/engine/light"
	"github.com/Carmen-Shannon/oxy-space/engine/loop"
	"github.com/Carmen-Shannon/oxy-space/engine/renderer"
	"github.com/Carmen-Shannon/oxy-space/engine/resize"
	"github.com/Carmen-Shannon/oxy-space/engine/resource"
	"go.uber.org/zap"
)

// sceneOptions collects the settings of AcquireScene.
type sceneOptions struct {
	backend    renderer.Backend
	scheduler  loop.Scheduler
	viewport   resize.Viewport
	log        *zap.Logger
	profiling  bool
	frameLimit float64

	label       string
	background  *[4]float32
	fog         *renderer.Fog
	pixelRatio  float32
	deviceRatio float32
	cameraOpts  []camera.CameraBuilderOption
	lights      *light.Rig
}

func newSceneOptions() *sceneOptions {
	return &sceneOptions{
		log:        zap.NewNop(),
		frameLimit: 60,
		label:      "scene",
	}
}

func (o *sceneOptions) poolOptions() []resource.PoolBuilderOption {
	opts := []resource.PoolBuilderOption{
		resource.WithLabel(o.label),
		resource.WithLogger(o.log),
		resource.WithCamera(o.cameraOpts...),
	}
	if o.background != nil {
		opts = append(opts, resource.WithBackground(*o.background))
	}
	if o.fog != nil {
		opts = append(opts, resource.WithFog(*o.fog))
	}
	if o.deviceRatio > 0 {
		opts = append(opts, resource.WithDevicePixelRatio(o.deviceRatio))
	}
	if o.pixelRatio > 0 {
		opts = append(opts, resource.WithPixelRatio(o.pixelRatio))
	}
	if o.lights != nil {
		opts = append(opts, resource.WithLights(o.lights))
	}
	return opts
}

// SceneBuilderOption is a functional option for configuring AcquireScene.
// Use the With* functions to create options.
type SceneBuilderOption func(*sceneOptions)

// WithBackend sets the rendering capability that creates the scene's GPU resources.
// Without a backend AcquireScene fails with ErrNoRenderingContext.
//
// Parameters:
//   - backend: the renderer backend
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithBackend(backend renderer.Backend) SceneBuilderOption {
	return func(o *sceneOptions) {
		o.backend = backend
	}
}

// WithScheduler sets the frame scheduler of the render loop.
//
// Parameters:
//   - scheduler: the scheduler, e.g. a window's message loop or a loop.ManualScheduler
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithScheduler(scheduler loop.Scheduler) SceneBuilderOption {
	return func(o *sceneOptions) {
		o.scheduler = scheduler
	}
}

// WithViewport makes the surface size and camera aspect follow viewport.
//
// Parameters:
//   - viewport: the resize notification source
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithViewport(viewport resize.Viewport) SceneBuilderOption {
	return func(o *sceneOptions) {
		o.viewport = viewport
	}
}

// WithLogger sets the logger shared by every component of the scene.
//
// Parameters:
//   - log: the logger
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLogger(log *zap.Logger) SceneBuilderOption {
	return func(o *sceneOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithProfiling enables or disables per-second frame rate logging.
//
// Parameters:
//   - enabled: if true, the render loop ticks a profiler
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithProfiling(enabled bool) SceneBuilderOption {
	return func(o *sceneOptions) {
		o.profiling = enabled
	}
}

// WithDevicePixelRatio derives the surface pixel ratio from the display: 2 above 1, else 1.
//
// Parameters:
//   - ratio: the display's device pixel ratio
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithDevicePixelRatio(ratio float32) SceneBuilderOption {
	return func(o *sceneOptions) {
		o.deviceRatio = ratio
	}
}

// WithLights replaces the default light rig.
//
// Parameters:
//   - rig: the light rig
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLights(rig *light.Rig) SceneBuilderOption {
	return func(o *sceneOptions) {
		o.lights = rig
	}
}

// WithFog sets the distance fog of the scene. A zero density disables it.
//
// Parameters:
//   - fog: the fog color and density
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithFog(fog renderer.Fog) SceneBuilderOption {
	return func(o *sceneOptions) {
		o.fog = &fog
	}
}

// WithConfig applies the scene and camera sections of cfg: background, fog, pixel
// ratio, frame limit, profiling and the camera's field of view, planes and position.
// Invalid colors keep the defaults.
//
// Parameters:
//   - cfg: the loaded configuration
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithConfig(cfg *config.Config) SceneBuilderOption {
	return func(o *sceneOptions) {
		if cfg == nil {
			return
		}
		if bg, err := common.ParseHexColor(cfg.Scene.Background); err == nil {
			o.background = &bg
		}
		if fc, err := common.ParseHexColor(cfg.Scene.FogColor); err == nil && cfg.Scene.FogDensity != nil {
			o.fog = &renderer.Fog{Color: [3]float32{fc[0], fc[1], fc[2]}, Density: float32(*cfg.Scene.FogDensity)}
		}
		o.pixelRatio = cfg.Scene.PixelRatio
		o.frameLimit = cfg.Scene.FrameLimit
		o.profiling = cfg.Scene.Profiling
		if cfg.Window.Title != "" {
			o.label = cfg.Window.Title
		}

		c := cfg.Camera
		o.cameraOpts = append(o.cameraOpts,
			camera.WithFovDegrees(c.Fov),
			camera.WithNear(c.Near),
			camera.WithFar(c.Far),
			camera.WithPosition(c.Position[0], c.Position[1], c.Position[2]),
		)
	}
}
