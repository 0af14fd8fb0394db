package light

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeAmbient represents a light that illuminates every fragment equally.
	// Position, direction and range are meaningless.
	LightTypeAmbient LightType = iota

	// LightTypeDirectional represents a light with no position, only direction.
	// Affects all fragments uniformly with no distance attenuation.
	LightTypeDirectional

	// LightTypePoint represents a light that emits in all directions from a position.
	// A zero range means the light never attenuates to zero.
	LightTypePoint
)

// String returns the lowercase name of the light type.
func (t LightType) String() string {
	switch t {
	case LightTypeAmbient:
		return "ambient"
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	default:
		return "unknown"
	}
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType  LightType
	position   [3]float32
	direction  [3]float32
	color      [3]float32
	intensity  float32
	lightRange float32
}

// Light defines the interface for a light source of a scene's light rig.
//
// Lights are value-like: every property is fixed by the options passed to NewLight
// and there are no setters, so a rig built once keeps the same positions and
// intensities for its whole lifetime.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (ambient, directional, or point)
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for ambient and directional lights.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Direction returns the normalized direction of a directional light.
	//
	// Returns:
	//   - [3]float32: normalized direction as (x, y, z)
	Direction() [3]float32

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Range returns the maximum attenuation distance for point lights.
	//
	// Returns:
	//   - float32: the range value, 0 for unbounded
	Range() float32
}

var _ Light = &lightImpl{}

// NewLight creates a new white Light of the specified type with intensity 1 and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType: lightType,
		direction: [3]float32{0, -1, 0},
		color:     [3]float32{1, 1, 1},
		intensity: 1.0,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() [3]float32 {
	return l.position
}

func (l *lightImpl) Direction() [3]float32 {
	return l.direction
}

func (l *lightImpl) Color() [3]float32 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	return l.lightRange
}
