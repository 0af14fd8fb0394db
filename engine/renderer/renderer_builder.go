package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// BackendBuilderOption is a functional option applied to the WebGPU backend during construction via NewWGPUBackend.
type BackendBuilderOption func(*wgpuBackendImpl)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - BackendBuilderOption: a function that applies the present mode option to the backend
func WithPresentMode(mode PresentMode) BackendBuilderOption {
	return func(b *wgpuBackendImpl) {
		switch mode {
		case PresentModeUncapped:
			b.presentMode = wgpu.PresentModeImmediate
		default:
			b.presentMode = wgpu.PresentModeFifo
		}
	}
}

// WithMSAA sets the multisample anti-aliasing sample count.
// When not specified, the default is MSAA4x. Use MSAAOff to disable MSAA entirely.
//
// Parameters:
//   - count: the MSAASampleCount to use
//
// Returns:
//   - BackendBuilderOption: a function that applies the MSAA option to the backend
func WithMSAA(count MSAASampleCount) BackendBuilderOption {
	return func(b *wgpuBackendImpl) {
		b.sampleCount = count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - BackendBuilderOption: a function that applies the force software renderer option to the backend
func WithForceSoftwareRenderer(force bool) BackendBuilderOption {
	return func(b *wgpuBackendImpl) {
		b.forceFallbackAdapter = force
	}
}

// WithLogger sets the logger used for non-fatal GPU errors.
func WithLogger(log *zap.Logger) BackendBuilderOption {
	return func(b *wgpuBackendImpl) {
		if log != nil {
			b.log = log
		}
	}
}
