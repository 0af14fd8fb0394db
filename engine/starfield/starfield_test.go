package starfield

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-space/engine/config"
	"github.com/Carmen-Shannon/oxy-space/engine/renderer/fake"
	"github.com/Carmen-Shannon/oxy-space/engine/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acquire(t *testing.T) (*fake.Backend, resource.Pool) {
	t.Helper()
	backend := fake.New()
	pool, err := resource.Acquire(backend, nil, 16, 16)
	require.NoError(t, err)
	t.Cleanup(pool.Dispose)
	return backend, pool
}

func TestNewRejectsInvalid(t *testing.T) {
	for _, tc := range []struct {
		count int
		half  float64
	}{{0, 1}, {MaxCount + 1, 1}, {10, 0}, {10, math.Inf(1)}, {10, math.NaN()}} {
		_, err := New(tc.count, tc.half, 1)
		assert.ErrorIs(t, err, ErrInvalidStarfield, "count %d half %v", tc.count, tc.half)
	}
}

func TestPlacementIsSeededAndBounded(t *testing.T) {
	a, err := New(50, 100, 3)
	require.NoError(t, err)
	b, err := New(50, 100, 3)
	require.NoError(t, err)
	c, err := New(50, 100, 4)
	require.NoError(t, err)

	assert.Equal(t, a.Positions(), b.Positions())
	assert.NotEqual(t, a.Positions(), c.Positions())
	for _, p := range a.Positions() {
		for _, v := range p {
			assert.LessOrEqual(t, math.Abs(v), 100.0)
		}
	}
}

func TestRotateTurnsAboutY(t *testing.T) {
	s, err := New(20, 10, 1, WithRate(0.5))
	require.NoError(t, err)
	start := s.Positions()

	// a quarter turn maps (x, z) to (z, -x)
	s.Rotate(math.Pi)
	assert.InDelta(t, math.Pi/2, s.Angle(), 1e-12)
	for i, p := range s.Positions() {
		assert.InDelta(t, start[i][2], p[0], 1e-4)
		assert.InDelta(t, start[i][1], p[1], 1e-6)
		assert.InDelta(t, -start[i][0], p[2], 1e-4)
	}

	// rotation depends on elapsed only, so going back restores the start
	s.Rotate(0)
	assert.Equal(t, start, s.Positions())
}

func TestRotatePreservesRadius(t *testing.T) {
	s, err := New(MaxCount, 1000, 9)
	require.NoError(t, err)
	start := s.Positions()

	s.Rotate(37.5)
	assert.InDelta(t, math.Mod(DefaultRate*37.5, 2*math.Pi), s.Angle(), 1e-12)
	var worst float64
	for i, p := range s.Positions() {
		worst = max(worst, math.Abs(math.Hypot(start[i][0], start[i][2])-math.Hypot(p[0], p[2])))
	}
	assert.Less(t, worst, 1e-2)
}

func TestCallbackUploadsToAttachedVisual(t *testing.T) {
	_, pool := acquire(t)
	s, err := New(8, 5, 2, WithLabel("backdrop"))
	require.NoError(t, err)

	points, err := s.Attach(pool)
	require.NoError(t, err)
	assert.Equal(t, "backdrop", points.Label())
	assert.True(t, points.Visible())
	assert.Equal(t, DefaultMaterial, points.Material().Descriptor())

	geom := points.Geometry().(*fake.Geometry)
	uploads := geom.Uploads()
	require.NoError(t, s.Callback()(10))
	assert.Equal(t, uploads+1, geom.Uploads())

	want := s.Positions()
	got := geom.Positions()
	require.Len(t, got, 8*3)
	assert.Equal(t, float32(want[3][0]), got[9])
	assert.Equal(t, float32(want[3][2]), got[11])

	_, err = s.Attach(pool)
	assert.ErrorIs(t, err, ErrAttached)
}

func TestCallbackWithoutVisual(t *testing.T) {
	s, err := New(4, 5, 2)
	require.NoError(t, err)
	assert.NoError(t, s.Callback()(1))
}

func TestAttachToDisposedPool(t *testing.T) {
	_, pool := acquire(t)
	pool.Dispose()
	s, err := New(4, 5, 2)
	require.NoError(t, err)
	_, err = s.Attach(pool)
	assert.ErrorIs(t, err, resource.ErrPoolDisposed)
}

func TestFromConfig(t *testing.T) {
	c := config.Default().Stars
	c.Count = 6
	c.HalfWidth = 50
	rate := 0.0
	c.Rate = &rate

	s, err := FromConfig(c)
	require.NoError(t, err)
	assert.Equal(t, 6, s.Count())
	start := s.Positions()
	s.Rotate(100)
	assert.Equal(t, start, s.Positions())

	seeded, err := New(6, 50, *c.Seed)
	require.NoError(t, err)
	assert.Equal(t, seeded.Positions(), start)

	c.Color = "sky"
	_, err = FromConfig(c)
	assert.Error(t, err)
}
