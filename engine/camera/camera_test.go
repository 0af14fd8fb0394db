package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()

	x, y, z := c.Position()
	assert.Equal(t, [3]float32{0, 0, 50}, [3]float32{x, y, z})
	assert.InDelta(t, 75*math.Pi/180, c.Fov(), 1e-6)
	assert.Equal(t, float32(1), c.Aspect())
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(1000), c.Far())

	// the view matrix moves the world 50 units away from the eye
	view := c.ViewMatrix()
	assert.InDelta(t, -50, view[14], 1e-5)
}

func TestResizeSetsExactAspect(t *testing.T) {
	c := NewCamera()

	assert.True(t, c.Resize(1920, 1080))
	assert.Equal(t, float32(1920)/float32(1080), c.Aspect())

	proj := c.ProjectionMatrix()
	f := float32(1 / math.Tan(float64(c.Fov())/2))
	assert.InDelta(t, f/c.Aspect(), proj[0], 1e-6)
}

func TestResizeIgnoresInvalidSizes(t *testing.T) {
	c := NewCamera(WithAspect(2))

	assert.False(t, c.Resize(0, 100))
	assert.False(t, c.Resize(100, -1))
	c.SetAspect(0)
	assert.Equal(t, float32(2), c.Aspect())
}

func TestOptionsApply(t *testing.T) {
	c := NewCamera(
		WithFovDegrees(90),
		WithPosition(1, 2, 3),
		WithTarget(0, 0, -1),
		WithUp(0, 0, 1),
		WithNear(1),
		WithFar(10),
	)
	assert.InDelta(t, math.Pi/2, c.Fov(), 1e-6)
	x, y, z := c.Target()
	assert.Equal(t, [3]float32{0, 0, -1}, [3]float32{x, y, z})
	ux, uy, uz := c.Up()
	assert.Equal(t, [3]float32{0, 0, 1}, [3]float32{ux, uy, uz})
	assert.Equal(t, float32(1), c.Near())
	assert.Equal(t, float32(10), c.Far())
}

func TestSettersRecomputeViewProjection(t *testing.T) {
	c := NewCamera()
	before := c.ViewProjectionMatrix()

	c.SetPosition(0, 0, 10)
	assert.NotEqual(t, before, c.ViewProjectionMatrix())

	before = c.ViewProjectionMatrix()
	c.SetFov(math.Pi / 3)
	assert.NotEqual(t, before, c.ViewProjectionMatrix())

	before = c.ViewProjectionMatrix()
	c.SetTarget(1, 0, 0)
	assert.NotEqual(t, before, c.ViewProjectionMatrix())
}

func TestUniformMarshal(t *testing.T) {
	c := NewCamera(WithPosition(1, 2, 3))
	u := c.Uniform()
	buf := u.Marshal()

	assert.Len(t, buf, 80)
	assert.Equal(t, c.ViewProjectionMatrix(), u.ViewProj)
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(buf[68:])))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[76:]))
}
