package particle

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-space/common"
	"github.com/Carmen-Shannon/oxy-space/engine/config"
	"github.com/Carmen-Shannon/oxy-space/engine/renderer"
	"github.com/Carmen-Shannon/oxy-space/engine/texture"
	"go.uber.org/zap"
)

// FieldBuilderOption is a functional option applied to a field during New.
type FieldBuilderOption func(*fieldImpl)

// WithDrift replaces the default drift. d must be safe to call from several goroutines.
//
// Parameters:
//   - d: the drift function
//
// Returns:
//   - FieldBuilderOption: a function that applies the drift option to a field
func WithDrift(d Drift) FieldBuilderOption {
	return func(f *fieldImpl) {
		f.drift = d
	}
}

// WithSpeed sets the scale s of the default drift. Ignored when WithDrift is also given.
func WithSpeed(s float64) FieldBuilderOption {
	return func(f *fieldImpl) {
		f.speed = s
	}
}

// WithMaterial sets the color, opacity and size of the point visual.
func WithMaterial(desc renderer.MaterialDescriptor) FieldBuilderOption {
	return func(f *fieldImpl) {
		f.material = desc
	}
}

// WithLabel sets the label of the created resources.
func WithLabel(label string) FieldBuilderOption {
	return func(f *fieldImpl) {
		if label != "" {
			f.label = label
		}
	}
}

// WithTexture loads path through loader when the field is attached. The visual
// is hidden until the texture is uploaded.
//
// Parameters:
//   - loader: the texture loader
//   - path: the image file
//
// Returns:
//   - FieldBuilderOption: a function that applies the texture option to a field
func WithTexture(loader texture.Loader, path string) FieldBuilderOption {
	return func(f *fieldImpl) {
		f.loader = loader
		f.texturePath = path
	}
}

// WithLogger sets the logger for texture failures.
func WithLogger(log *zap.Logger) FieldBuilderOption {
	return func(f *fieldImpl) {
		if log != nil {
			f.log = log
		}
	}
}

// FromConfig creates a field from the particles section of a configuration. When the
// section names a texture and loader is not nil, the texture gates the visual.
//
// Parameters:
//   - c: the particles section
//   - loader: the texture loader, or nil for untextured points
//   - options: further options, applied after the configured ones
//
// Returns:
//   - Field: the field
//   - error: a color parse error, or ErrInvalidField
func FromConfig(c config.Particles, loader texture.Loader, options ...FieldBuilderOption) (Field, error) {
	rgba, err := common.ParseHexColor(c.Color)
	if err != nil {
		return nil, fmt.Errorf("particle color: %w", err)
	}
	opts := []FieldBuilderOption{
		WithSpeed(*common.CoalescePtr(c.Speed, DefaultSpeed)),
		WithMaterial(renderer.MaterialDescriptor{
			Color:   [3]float32{rgba[0], rgba[1], rgba[2]},
			Opacity: c.Opacity,
			Size:    c.Size,
		}),
	}
	if loader != nil && c.Texture != "" {
		opts = append(opts, WithTexture(loader, c.Texture))
	}
	return New(c.Count, c.HalfWidth, *common.CoalescePtr(c.Seed, DefaultSeed), append(opts, options...)...)
}
