package fake

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-space/common"
	"github.com/Carmen-Shannon/oxy-space/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendCountsCreateAndRelease(t *testing.T) {
	b := New()

	s, err := b.CreateSurface(renderer.SurfaceDescriptor{Label: "scene", Width: 4, Height: 3})
	require.NoError(t, err)
	g, err := b.CreateGeometry("points", 2)
	require.NoError(t, err)
	m, err := b.CreateMaterial("points", renderer.MaterialDescriptor{Opacity: 1})
	require.NoError(t, err)
	tex, err := b.CreateTexture("sprite", common.TextureStagingData{Pixels: make([]byte, 4), Width: 1, Height: 1})
	require.NoError(t, err)

	created, released := b.Stats()
	assert.Equal(t, 4, created)
	assert.Equal(t, 0, released)

	tex.Release()
	m.Release()
	g.Release()
	s.Release()
	s.Release()

	created, released = b.Stats()
	assert.Equal(t, created, released)
	assert.Equal(t, 0, b.Live())
	assert.Equal(t, "release surface:scene", b.Events()[len(b.Events())-1])
}

func TestBackendFailures(t *testing.T) {
	b := New()
	b.FailSurface = renderer.ErrNoRenderingContext

	_, err := b.CreateSurface(renderer.SurfaceDescriptor{Width: 1, Height: 1})
	assert.ErrorIs(t, err, renderer.ErrNoRenderingContext)

	_, err = b.CreateGeometry("empty", 0)
	assert.Error(t, err)

	_, err = b.CreateTexture("bad", common.TextureStagingData{Width: 2, Height: 2})
	assert.Error(t, err)
}

func TestSurfaceDrawAndResize(t *testing.T) {
	b := New()
	s, err := b.CreateSurface(renderer.SurfaceDescriptor{Width: 4, Height: 3})
	require.NoError(t, err)
	fs := b.Surface()

	require.NoError(t, s.Draw(renderer.Frame{}))
	assert.Equal(t, 1, fs.Frames())

	s.Resize(0, 10)
	s.Resize(8, 6)
	w, h := s.Size()
	assert.Equal(t, [2]int{8, 6}, [2]int{w, h})
	assert.Equal(t, [][2]int{{8, 6}}, fs.Resizes())

	boom := errors.New("boom")
	fs.FailDraw(boom)
	assert.ErrorIs(t, s.Draw(renderer.Frame{}), boom)

	s.Release()
	assert.ErrorIs(t, s.Draw(renderer.Frame{}), renderer.ErrReleased)
}

func TestGeometryPositions(t *testing.T) {
	b := New()
	g, err := b.CreateGeometry("points", 1)
	require.NoError(t, err)

	assert.Error(t, g.SetPositions([]float32{1, 2}))
	require.NoError(t, g.SetPositions([]float32{1, 2, 3}))
	assert.Equal(t, []float32{1, 2, 3}, g.(*Geometry).Positions())
	assert.Equal(t, 1, g.(*Geometry).Uploads())
}
