package renderer

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-space/common"
	"github.com/Carmen-Shannon/oxy-space/engine/camera"
	"github.com/Carmen-Shannon/oxy-space/engine/light"
)

// ErrNoRenderingContext is returned by a Backend that cannot provide a drawable surface,
// e.g. when no GPU adapter is available or the host window has no native handle.
var ErrNoRenderingContext = errors.New("no rendering context available")

// ErrReleased is returned when a released resource is used.
var ErrReleased = errors.New("resource released")

// Resource is any GPU-resident object that must be released exactly once.
type Resource interface {
	// Label returns the debug label the resource was created with.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Release frees the GPU objects held by the resource.
	// Calling Release more than once is a no-op.
	Release()
}

// SurfaceDescriptor describes the drawable region requested from a Backend.
type SurfaceDescriptor struct {
	Label      string
	Width      int
	Height     int
	PixelRatio float32
	Background [4]float32 // RGBA in [0, 1]
}

// MaterialDescriptor describes the appearance of a point cloud.
type MaterialDescriptor struct {
	Color   [3]float32 // RGB in [0, 1]
	Opacity float32
	Size    float32 // world-space sprite size
}

// Drawable pairs a geometry with the material it is drawn with.
type Drawable struct {
	Geometry Geometry
	Material Material
}

// Fog fades drawn colors toward Color with the square of view depth times Density.
// A zero Density disables it.
type Fog struct {
	Color   [3]float32
	Density float32
}

// Frame is everything a Surface needs to draw one frame.
type Frame struct {
	Camera    camera.Camera
	Lights    *light.Rig
	Fog       Fog
	Drawables []Drawable
}

// Surface is the drawable target the renderer writes into each frame.
type Surface interface {
	Resource

	// Size returns the current drawable size in pixels.
	//
	// Returns:
	//   - width, height: the drawable size
	Size() (width, height int)

	// PixelRatio returns the ratio between drawable pixels and logical window units.
	//
	// Returns:
	//   - float32: the pixel ratio
	PixelRatio() float32

	// Background returns the clear color.
	//
	// Returns:
	//   - [4]float32: RGBA clear color
	Background() [4]float32

	// Resize reconfigures the surface to a new drawable size.
	// Sizes with a non-positive dimension are ignored.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// Draw clears the surface to its background and draws every drawable with the frame's camera.
	//
	// Parameters:
	//   - frame: the camera, light rig and drawables for this frame
	//
	// Returns:
	//   - error: an error if the frame could not be acquired or submitted
	Draw(frame Frame) error
}

// Geometry is a GPU vertex buffer holding one xyz position per point.
type Geometry interface {
	Resource

	// Count returns the number of points the geometry holds.
	//
	// Returns:
	//   - int: the point count
	Count() int

	// SetPositions uploads xyz positions, three floats per point.
	//
	// Parameters:
	//   - positions: packed positions, len must equal 3*Count()
	//
	// Returns:
	//   - error: an error if the length does not match or the geometry was released
	SetPositions(positions []float32) error
}

// Material holds the appearance of a point cloud and its optional sprite texture.
type Material interface {
	Resource

	// Descriptor returns the appearance the material was created with.
	//
	// Returns:
	//   - MaterialDescriptor: the material settings
	Descriptor() MaterialDescriptor

	// SetTexture binds a sprite texture to the material. A nil texture restores plain points.
	//
	// Parameters:
	//   - tex: the texture to bind
	//
	// Returns:
	//   - error: an error if the material was released or binding failed
	SetTexture(tex Texture) error
}

// Texture is a sampled 2D RGBA texture.
type Texture interface {
	Resource

	// Size returns the texture dimensions.
	//
	// Returns:
	//   - width, height: the texture size in texels
	Size() (width, height uint32)
}

// Backend is the host rendering capability a resource pool creates its objects through.
type Backend interface {
	// CreateSurface creates the single drawable surface.
	//
	// Parameters:
	//   - desc: the surface size, pixel ratio and background
	//
	// Returns:
	//   - Surface: the created surface
	//   - error: an error wrapping ErrNoRenderingContext if no surface can be provided
	CreateSurface(desc SurfaceDescriptor) (Surface, error)

	// CreateGeometry creates a point geometry with room for count points.
	//
	// Parameters:
	//   - label: debug label
	//   - count: number of points
	//
	// Returns:
	//   - Geometry: the created geometry
	//   - error: an error if creation fails
	CreateGeometry(label string, count int) (Geometry, error)

	// CreateMaterial creates a point material.
	//
	// Parameters:
	//   - label: debug label
	//   - desc: appearance settings
	//
	// Returns:
	//   - Material: the created material
	//   - error: an error if creation fails
	CreateMaterial(label string, desc MaterialDescriptor) (Material, error)

	// CreateTexture uploads decoded RGBA pixels into a texture.
	//
	// Parameters:
	//   - label: debug label
	//   - data: the decoded pixels
	//
	// Returns:
	//   - Texture: the created texture
	//   - error: an error if the data is invalid or creation fails
	CreateTexture(label string, data common.TextureStagingData) (Texture, error)
}

// PixelRatio maps a display's device pixel ratio to the surface pixel ratio:
// 2 on high density displays, 1 otherwise.
func PixelRatio(device float32) float32 {
	if device > 1 {
		return 2
	}
	return 1
}
