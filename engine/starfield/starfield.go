// Package starfield renders a distant cube of static stars that slowly turns
// about the y axis behind the rest of the scene.
package starfield

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
	"go.uber.org/zap"
)

const (
	// MaxCount is the largest supported starfield.
	MaxCount = 65536
	// DefaultRate is the default turn rate in radians per second.
	DefaultRate = 0.012
	// DefaultSeed places the stars when no seed is configured.
	DefaultSeed = 7

	parallelThreshold = 4096
	chunkSize         = 2048
)

var (
	// ErrInvalidStarfield is returned by New for a non-positive or oversized count or a non-positive half-width.
	ErrInvalidStarfield = errors.New("invalid starfield")
	// ErrAttached is returned by Attach when the starfield already has a visual.
	ErrAttached = errors.New("starfield already attached")
)

// DefaultMaterial is the look of the background stars: white, opaque, size 0.1.
var DefaultMaterial = renderer.MaterialDescriptor{
	Color:   [3]float32{1, 1, 1},
	Opacity: 1,
	Size:    0.1,
}

type starfieldImpl struct {
	mu *sync.Mutex

	halfWidth float64
	base      []float64
	upload    []float32
	angle     float64

	rate     float64
	material renderer.MaterialDescriptor
	label    string
	log      *zap.Logger
	pool     worker.DynamicWorkerPool

	points resource.Points
}

// Starfield is a rigid point cloud rotating about the y axis.
type Starfield interface {
	// Count returns the number of stars.
	Count() int

	// Angle returns the current rotation in radians.
	Angle() float64

	// Rotate turns the field to rate*elapsed radians about the y axis.
	//
	// Parameters:
	//   - elapsed: seconds since the animation started
	Rotate(elapsed float64)

	// Positions returns a copy of the rotated star positions.
	//
	// Returns:
	//   - [][3]float64: one x, y, z triple per star, in index order
	Positions() [][3]float64

	// Callback returns the per-frame animation callback: rotate, then upload.
	//
	// Returns:
	//   - animation.Callback: the callback to register with a scene
	Callback() animation.Callback

	// Attach creates the star visual in pool and uploads the current positions.
	//
	// Parameters:
	//   - pool: the scene's resource pool, which owns the created resources
	//
	// Returns:
	//   - resource.Points: the visual
	//   - error: ErrAttached, or an error creating the visual
	Attach(pool resource.Pool) (resource.Points, error)
}

var _ Starfield = &starfieldImpl{}

// New creates count stars placed uniformly in [-halfWidth, halfWidth]^3 by a generator
// seeded with seed.
//
// Parameters:
//   - count: number of stars, 1 to MaxCount
//   - halfWidth: half-width of the placement cube
//   - seed: the placement seed
//   - options: variadic list of StarfieldBuilderOption functions
//
// Returns:
//   - Starfield: the starfield
//   - error: ErrInvalidStarfield wrapped with the offending value
func New(count int, halfWidth float64, seed int64, options ...StarfieldBuilderOption) (Starfield, error) {
	switch {
	case count <= 0 || count > MaxCount:
		return nil, fmt.Errorf("%w: count %d not in [1, %d]", ErrInvalidStarfield, count, MaxCount)
	case !(halfWidth > 0) || math.IsInf(halfWidth, 0):
		return nil, fmt.Errorf("%w: half-width %v", ErrInvalidStarfield, halfWidth)
	}

	s := &starfieldImpl{
		mu:        &sync.Mutex{},
		halfWidth: halfWidth,
		base:      make([]float64, count*3),
		upload:    make([]float32, count*3),
		rate:      DefaultRate,
		material:  DefaultMaterial,
		label:     "stars",
		log:       zap.NewNop(),
	}
	for _, opt := range options {
		opt(s)
	}

	r := rand.New(rand.NewSource(seed))
	for i := range s.base {
		s.base[i] = (r.Float64() - 0.5) * 2 * halfWidth
	}
	for i, v := range s.base {
		s.upload[i] = float32(v)
	}

	if count >= parallelThreshold {
		s.pool = worker.NewDynamicWorkerPool((count+chunkSize-1)/chunkSize, 64, 1*time.Second)
	}
	return s, nil
}

func (s *starfieldImpl) Count() int {
	return len(s.base) / 3
}

func (s *starfieldImpl) Angle() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.angle
}

// rotateRange writes stars [from, to) turned by (sin, cos) into the upload buffer.
// Caller must hold the mutex.
func (s *starfieldImpl) rotateRange(from, to int, sin, cos float64) {
	for i := from; i < to; i++ {
		x, y, z := s.base[i*3], s.base[i*3+1], s.base[i*3+2]
		s.upload[i*3] = float32(x*cos + z*sin)
		s.upload[i*3+1] = float32(y)
		s.upload[i*3+2] = float32(z*cos - x*sin)
	}
}

func (s *starfieldImpl) Rotate(elapsed float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.angle = math.Mod(s.rate*elapsed, 2*math.Pi)
	sin, cos := math.Sincos(s.angle)
	n := s.Count()
	if s.pool == nil {
		s.rotateRange(0, n, sin, cos)
		return
	}

	var wg sync.WaitGroup
	for id, from := 0, 0; from < n; id, from = id+1, from+chunkSize {
		to := min(from+chunkSize, n)
		lo := from
		wg.Add(1)
		s.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				s.rotateRange(lo, to, sin, cos)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (s *starfieldImpl) Positions() [][3]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][3]float64, s.Count())
	for i := range out {
		out[i] = [3]float64{float64(s.upload[i*3]), float64(s.upload[i*3+1]), float64(s.upload[i*3+2])}
	}
	return out
}

func (s *starfieldImpl) Callback() animation.Callback {
	return func(elapsed float64) error {
		s.Rotate(elapsed)
		return s.sync()
	}
}

// sync uploads the rotated positions to the attached visual.
func (s *starfieldImpl) sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.points == nil {
		return nil
	}
	if err := s.points.Geometry().SetPositions(s.upload); err != nil {
		return fmt.Errorf("upload star positions: %w", err)
	}
	return nil
}

func (s *starfieldImpl) Attach(pool resource.Pool) (resource.Points, error) {
	s.mu.Lock()
	if s.points != nil {
		s.mu.Unlock()
		return nil, ErrAttached
	}
	s.mu.Unlock()

	points, err := pool.NewPoints(s.label, s.Count(), s.material)
	if err != nil {
		return nil, fmt.Errorf("attach starfield: %w", err)
	}

	s.mu.Lock()
	s.points = points
	s.mu.Unlock()

	if err := s.sync(); err != nil {
		return nil, err
	}
	s.log.Debug("starfield attached", zap.String("label", s.label), zap.Int("count", s.Count()))
	return points, nil
}
