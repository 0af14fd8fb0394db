// Package particle simulates a bounded field of drifting points.
//
// Every particle lives in the cube [-D, D]^3. Each step adds a drift vector that
// depends on the particle index and the elapsed time, then wraps any coordinate
// that left the cube back in from the opposite face.
package particle

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-space/engine/animation"
	"github.com/Carmen-Shannon/oxy-space/engine/renderer"
	"github.com/Carmen-Shannon/oxy-space/engine/resource"
	"github.com/Carmen-Shannon/oxy-space/engine/texture"
	"go.uber.org/zap"
)

const (
	// MaxCount is the largest supported field.
	MaxCount = 16384
	// ParallelThreshold is the field size from which steps are split across workers.
	ParallelThreshold = 2048
	// DefaultSpeed scales the default drift.
	DefaultSpeed = 0.01
	// DefaultSeed places the field when no seed is configured.
	DefaultSeed = 42

	chunkSize = 1024
)

var (
	// ErrInvalidField is returned by New for a non-positive or oversized count or a non-positive half-width.
	ErrInvalidField = errors.New("invalid particle field")
	// ErrAttached is returned by Attach when the field already has a visual.
	ErrAttached = errors.New("particle field already attached")
)

// Drift returns the displacement of particle i at elapsed time t.
type Drift func(i int, t float64) (dx, dy, dz float64)

// DefaultDrift returns the drift f(i, t) = (cos(t + 0.5i)*s, sin(t + i)*s, 0).
//
// Parameters:
//   - s: the speed scale
//
// Returns:
//   - Drift: the drift function
func DefaultDrift(s float64) Drift {
	return func(i int, t float64) (float64, float64, float64) {
		fi := float64(i)
		return math.Cos(t+0.5*fi) * s, math.Sin(t+fi) * s, 0
	}
}

// DefaultMaterial is the look of the floating particles: #00ffcc, 60% opaque, size 0.15.
var DefaultMaterial = renderer.MaterialDescriptor{
	Color:   [3]float32{0, 1, 0xcc / 255.0},
	Opacity: 0.6,
	Size:    0.15,
}

type fieldImpl struct {
	mu *sync.Mutex

	halfWidth float64
	pos       []float64
	upload    []float32

	speed float64
	drift Drift
	log   *zap.Logger

	pool     worker.DynamicWorkerPool
	material renderer.MaterialDescriptor
	label    string

	loader      texture.Loader
	texturePath string
	pending     *texture.Pending

	scene  resource.Pool
	points resource.Points
}

// Field is a bounded particle simulation.
type Field interface {
	// Count returns the number of particles.
	Count() int

	// HalfWidth returns the half-width D of the bounding cube.
	HalfWidth() float64

	// Step advances every particle by the drift at elapsed and wraps it into the cube.
	// For large fields the work is split across a worker pool; Step returns once
	// every particle has moved.
	//
	// Parameters:
	//   - elapsed: seconds since the animation started
	Step(elapsed float64)

	// Positions returns a copy of the particle positions.
	//
	// Returns:
	//   - [][3]float64: one x, y, z triple per particle, in index order
	Positions() [][3]float64

	// Callback returns the per-frame animation callback: step, then update the visual.
	//
	// Returns:
	//   - animation.Callback: the callback to register with a scene
	Callback() animation.Callback

	// Attach creates the point visual in pool and uploads the current positions.
	// With a texture configured the visual stays hidden until the texture resolves.
	//
	// Parameters:
	//   - pool: the scene's resource pool, which owns the created resources
	//
	// Returns:
	//   - resource.Points: the visual
	//   - error: ErrAttached, or an error creating the visual
	Attach(pool resource.Pool) (resource.Points, error)

	// Points returns the attached visual, or nil.
	//
	// Returns:
	//   - resource.Points: the visual
	Points() resource.Points
}

var _ Field = &fieldImpl{}

// New creates a field of count particles placed in [-halfWidth, halfWidth]^3 by a
// generator seeded with seed. Coordinates are drawn x, y, z per particle in index order.
//
// Parameters:
//   - count: number of particles, 1 to MaxCount
//   - halfWidth: half-width D of the bounding cube
//   - seed: the placement seed
//   - options: variadic list of FieldBuilderOption functions
//
// Returns:
//   - Field: the field
//   - error: ErrInvalidField wrapped with the offending value
func New(count int, halfWidth float64, seed int64, options ...FieldBuilderOption) (Field, error) {
	switch {
	case count <= 0 || count > MaxCount:
		return nil, fmt.Errorf("%w: count %d not in [1, %d]", ErrInvalidField, count, MaxCount)
	case !(halfWidth > 0) || math.IsInf(halfWidth, 0):
		return nil, fmt.Errorf("%w: half-width %v", ErrInvalidField, halfWidth)
	}

	f := &fieldImpl{
		mu:        &sync.Mutex{},
		halfWidth: halfWidth,
		pos:       make([]float64, count*3),
		upload:    make([]float32, count*3),
		speed:     DefaultSpeed,
		log:       zap.NewNop(),
		material:  DefaultMaterial,
		label:     "particles",
	}
	for _, opt := range options {
		opt(f)
	}
	if f.drift == nil {
		f.drift = DefaultDrift(f.speed)
	}

	r := rand.New(rand.NewSource(seed))
	for i := range f.pos {
		f.pos[i] = (r.Float64() - 0.5) * 2 * halfWidth
	}

	if count >= ParallelThreshold {
		f.pool = worker.NewDynamicWorkerPool((count+chunkSize-1)/chunkSize, 256, 1*time.Second)
	}
	return f, nil
}

// wrap folds v into [-d, d], keeping the overshoot past the face it crossed.
// Values exactly on a face stay put.
func wrap(v, d float64) float64 {
	span := 2 * d
	switch {
	case v > d:
		v = -d + math.Mod(v-d, span)
	case v < -d:
		v = d - math.Mod(-d-v, span)
	}
	return v
}

func (f *fieldImpl) Count() int {
	return len(f.pos) / 3
}

func (f *fieldImpl) HalfWidth() float64 {
	return f.halfWidth
}

// stepRange moves particles [from, to). Caller must hold the mutex.
func (f *fieldImpl) stepRange(from, to int, elapsed float64) {
	d := f.halfWidth
	for i := from; i < to; i++ {
		dx, dy, dz := f.drift(i, elapsed)
		p := f.pos[i*3 : i*3+3]
		p[0] = wrap(p[0]+dx, d)
		p[1] = wrap(p[1]+dy, d)
		p[2] = wrap(p[2]+dz, d)
	}
}

func (f *fieldImpl) Step(elapsed float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.Count()
	if f.pool == nil {
		f.stepRange(0, n, elapsed)
		return
	}

	// the pool's own Wait blocks until workers idle out, so each step gets its own barrier
	var wg sync.WaitGroup
	for id, from := 0, 0; from < n; id, from = id+1, from+chunkSize {
		to := min(from+chunkSize, n)
		lo := from
		wg.Add(1)
		f.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				f.stepRange(lo, to, elapsed)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (f *fieldImpl) Positions() [][3]float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][3]float64, f.Count())
	for i := range out {
		copy(out[i][:], f.pos[i*3:i*3+3])
	}
	return out
}

func (f *fieldImpl) Callback() animation.Callback {
	return func(elapsed float64) error {
		f.Step(elapsed)
		f.resolveTexture()
		return f.sync()
	}
}

// sync uploads the current positions to the attached visual.
func (f *fieldImpl) sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.points == nil {
		return nil
	}
	for i, v := range f.pos {
		f.upload[i] = float32(v)
	}
	if err := f.points.Geometry().SetPositions(f.upload); err != nil {
		return fmt.Errorf("upload particle positions: %w", err)
	}
	return nil
}

// resolveTexture polls the texture mailbox and, once the decode finished, uploads
// the texture and shows the visual. A failed load leaves the visual hidden.
func (f *fieldImpl) resolveTexture() {
	f.mu.Lock()
	pending, scene, points := f.pending, f.scene, f.points
	f.mu.Unlock()
	if pending == nil {
		return
	}

	res, ok := pending.Poll()
	if !ok {
		return
	}
	f.mu.Lock()
	f.pending = nil
	f.mu.Unlock()

	if res.Err != nil {
		f.log.Warn("particle texture unavailable, particles stay hidden", zap.String("path", res.Path), zap.Error(res.Err))
		return
	}
	tex, err := scene.NewTexture(f.label+" texture", res.Data)
	if err != nil {
		f.log.Warn("particle texture upload failed", zap.String("path", res.Path), zap.Error(err))
		return
	}
	if err := points.Material().SetTexture(tex); err != nil {
		f.log.Warn("particle texture bind failed", zap.String("path", res.Path), zap.Error(err))
		return
	}
	points.SetVisible(true)
	f.log.Debug("particle texture ready", zap.String("path", res.Path))
}

func (f *fieldImpl) Attach(pool resource.Pool) (resource.Points, error) {
	f.mu.Lock()
	if f.points != nil {
		f.mu.Unlock()
		return nil, ErrAttached
	}
	f.mu.Unlock()

	points, err := pool.NewPoints(f.label, f.Count(), f.material)
	if err != nil {
		return nil, fmt.Errorf("attach particle field: %w", err)
	}

	f.mu.Lock()
	f.scene = pool
	f.points = points
	if f.loader != nil && f.texturePath != "" {
		points.SetVisible(false)
		f.pending = f.loader.Load(f.texturePath)
	}
	f.mu.Unlock()

	if err := f.sync(); err != nil {
		return nil, err
	}
	return points, nil
}

func (f *fieldImpl) Points() resource.Points {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.points
}
