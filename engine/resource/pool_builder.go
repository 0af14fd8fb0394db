package resource

import (
	"github.com/Carmen-Shannon/oxy-space/engine/camera"
	"github.com/Carmen-Shannon/oxy-space/engine/light"
	"github.com/Carmen-Shannon/oxy-space/engine/renderer"
	"go.uber.org/zap"
)

// PoolBuilderOption is a functional option applied to a pool during Acquire.
type PoolBuilderOption func(*poolImpl)

// WithLabel sets the debug label of the pool and its surface.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - PoolBuilderOption: a function that applies the label option to a pool
func WithLabel(label string) PoolBuilderOption {
	return func(p *poolImpl) {
		if label != "" {
			p.label = label
		}
	}
}

// WithBackground sets the surface clear color.
//
// Parameters:
//   - rgba: the clear color with components in [0, 1]
//
// Returns:
//   - PoolBuilderOption: a function that applies the background option to a pool
func WithBackground(rgba [4]float32) PoolBuilderOption {
	return func(p *poolImpl) {
		p.background = rgba
	}
}

// WithFog sets the scene's distance fog. A zero density disables it.
//
// Parameters:
//   - fog: the fog color and density
//
// Returns:
//   - PoolBuilderOption: a function that applies the fog option to a pool
func WithFog(fog renderer.Fog) PoolBuilderOption {
	return func(p *poolImpl) {
		p.fog = fog
	}
}

// WithDevicePixelRatio derives the surface pixel ratio from the display's device pixel ratio.
//
// Parameters:
//   - ratio: the display's device pixel ratio
//
// Returns:
//   - PoolBuilderOption: a function that applies the pixel ratio option to a pool
func WithDevicePixelRatio(ratio float32) PoolBuilderOption {
	return func(p *poolImpl) {
		p.pixelRatio = renderer.PixelRatio(ratio)
	}
}

// WithPixelRatio sets the surface pixel ratio directly. Non-positive values are ignored.
func WithPixelRatio(ratio float32) PoolBuilderOption {
	return func(p *poolImpl) {
		if ratio > 0 {
			p.pixelRatio = ratio
		}
	}
}

// WithCamera passes options to the pool's camera. The aspect ratio is always
// derived from the acquired size.
//
// Parameters:
//   - opts: camera options
//
// Returns:
//   - PoolBuilderOption: a function that applies the camera options to a pool
func WithCamera(opts ...camera.CameraBuilderOption) PoolBuilderOption {
	return func(p *poolImpl) {
		p.cameraOpts = append(p.cameraOpts, opts...)
	}
}

// WithLights replaces the default light rig.
//
// Parameters:
//   - rig: the light rig
//
// Returns:
//   - PoolBuilderOption: a function that applies the light rig option to a pool
func WithLights(rig *light.Rig) PoolBuilderOption {
	return func(p *poolImpl) {
		p.rig = rig
	}
}

// WithLogger sets the pool's logger.
func WithLogger(log *zap.Logger) PoolBuilderOption {
	return func(p *poolImpl) {
		if log != nil {
			p.log = log
		}
	}
}
