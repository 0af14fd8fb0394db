package starfield

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-space/common"
	"github.com/Carmen-Shannon/oxy-space/engine/config"
	"github.com/Carmen-Shannon/oxy-space/engine/renderer"
	"go.uber.org/zap"
)

// StarfieldBuilderOption is a functional option applied to a starfield during New.
type StarfieldBuilderOption func(*starfieldImpl)

// WithRate sets the turn rate in radians per second. Zero keeps the stars still.
//
// Parameters:
//   - rate: the turn rate
//
// Returns:
//   - StarfieldBuilderOption: a function that applies the rate option to a starfield
func WithRate(rate float64) StarfieldBuilderOption {
	return func(s *starfieldImpl) {
		s.rate = rate
	}
}

// WithMaterial sets the color, opacity and size of the star visual.
func WithMaterial(desc renderer.MaterialDescriptor) StarfieldBuilderOption {
	return func(s *starfieldImpl) {
		s.material = desc
	}
}

// WithLabel sets the label of the created resources.
func WithLabel(label string) StarfieldBuilderOption {
	return func(s *starfieldImpl) {
		if label != "" {
			s.label = label
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) StarfieldBuilderOption {
	return func(s *starfieldImpl) {
		if log != nil {
			s.log = log
		}
	}
}

// FromConfig creates a starfield from the stars section of a configuration.
//
// Parameters:
//   - c: the stars section
//   - options: further options, applied after the configured ones
//
// Returns:
//   - Starfield: the starfield
//   - error: a color parse error, or ErrInvalidStarfield
func FromConfig(c config.Stars, options ...StarfieldBuilderOption) (Starfield, error) {
	rgba, err := common.ParseHexColor(c.Color)
	if err != nil {
		return nil, fmt.Errorf("star color: %w", err)
	}
	opts := []StarfieldBuilderOption{
		WithRate(*common.CoalescePtr(c.Rate, DefaultRate)),
		WithMaterial(renderer.MaterialDescriptor{
			Color:   [3]float32{rgba[0], rgba[1], rgba[2]},
			Opacity: c.Opacity,
			Size:    c.Size,
		}),
	}
	return New(c.Count, c.HalfWidth, *common.CoalescePtr(c.Seed, DefaultSeed), append(opts, options...)...)
}
