package renderer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-space/engine/camera"
	"github.com/stretchr/testify/assert"
)

func TestPointUniformMarshal(t *testing.T) {
	cam := camera.NewCamera(camera.WithPosition(0, 0, 1), camera.WithAspect(2))
	fog := Fog{Color: [3]float32{0.25, 0.5, 0.75}, Density: 0.001}
	u := newPointUniform(cam, fog, MaterialDescriptor{
		Color:   [3]float32{0, 1, 0.8},
		Opacity: 0.6,
		Size:    0.15,
	}, true)

	buf := u.Marshal()
	assert.Len(t, buf, pointUniformSize)

	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	camUniform := cam.Uniform()
	assert.Equal(t, camUniform.Marshal(), buf[:80])
	assert.Equal(t, float32(1), f(72))
	assert.Equal(t, float32(1), f(84))
	assert.Equal(t, float32(0.6), f(92))
	assert.Equal(t, float32(0.25), f(96))
	assert.Equal(t, float32(0.75), f(104))
	assert.Equal(t, float32(0.001), f(108))

	proj := cam.ProjectionMatrix()
	assert.Equal(t, proj[0], f(112))
	assert.Equal(t, proj[5], f(116))
	assert.Equal(t, float32(0.15), f(120))
	assert.Equal(t, float32(1), f(124))
}

func TestPointUniformWithoutCamera(t *testing.T) {
	u := newPointUniform(nil, Fog{}, MaterialDescriptor{Opacity: 1}, false)
	buf := u.Marshal()
	assert.Equal(t, make([]byte, 80), buf[:80])
	assert.Equal(t, float32(0), u.Textured)
	assert.Equal(t, [2]float32{}, u.Scale)
}

func TestPixelRatio(t *testing.T) {
	assert.Equal(t, float32(1), PixelRatio(0))
	assert.Equal(t, float32(1), PixelRatio(1))
	assert.Equal(t, float32(2), PixelRatio(1.25))
	assert.Equal(t, float32(2), PixelRatio(3))
}
