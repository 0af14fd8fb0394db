package resource

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-space/common"
	"github.com/Carmen-Shannon/oxy-space/engine/camera"
	"github.com/Carmen-Shannon/oxy-space/engine/light"
	"github.com/Carmen-Shannon/oxy-space/engine/renderer"
	"go.uber.org/zap"
)

// Stats counts the GPU resources a pool has created and released.
// After Dispose, Created == Released.
type Stats struct {
	Created  int
	Released int
}

type poolImpl struct {
	mu *sync.Mutex

	label      string
	log        *zap.Logger
	background [4]float32
	fog        renderer.Fog
	pixelRatio float32
	cameraOpts []camera.CameraBuilderOption
	rig        *light.Rig

	backend renderer.Backend
	mount   MountPoint
	surface renderer.Surface
	camera  camera.Camera

	owned  []renderer.Resource
	points []*pointsImpl
	stats  Stats

	owner    any
	disposed bool
}

// Pool exclusively owns the surface, camera and light rig of a scene and every
// geometry, material and texture created through it.
//
// Surface and camera are mutated only under the pool lock: Draw takes it for the
// whole frame and resize handling takes it through Lock/Unlock, so a frame never
// sees a new surface size with a stale camera aspect.
type Pool interface {
	// Surface returns the pool's drawable surface.
	//
	// Returns:
	//   - renderer.Surface: the surface
	Surface() renderer.Surface

	// Camera returns the pool's camera.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Lights returns the pool's light rig.
	//
	// Returns:
	//   - *light.Rig: the rig
	Lights() *light.Rig

	// NewPoints creates a tracked geometry and material pair and adds it to the draw list.
	//
	// Parameters:
	//   - label: debug label for the geometry and material
	//   - count: number of points
	//   - desc: appearance of the points
	//
	// Returns:
	//   - Points: the created point cloud, visible by default
	//   - error: ErrPoolDisposed after Dispose, or a *ResourceError if creation fails
	NewPoints(label string, count int, desc renderer.MaterialDescriptor) (Points, error)

	// NewTexture uploads decoded pixels into a tracked texture.
	//
	// Parameters:
	//   - label: debug label
	//   - data: the decoded pixels
	//
	// Returns:
	//   - renderer.Texture: the created texture
	//   - error: ErrPoolDisposed after Dispose, or a *ResourceError if creation fails
	NewTexture(label string, data common.TextureStagingData) (renderer.Texture, error)

	// Draw draws every visible point cloud with the camera and light rig under the pool lock.
	//
	// Returns:
	//   - error: ErrPoolDisposed after Dispose, or the surface's draw error
	Draw() error

	// Lock acquires the frame lock. Callers mutating the surface or camera must hold it.
	Lock()

	// Unlock releases the frame lock.
	Unlock()

	// Claim marks the pool as driven by owner. At most one owner may hold the claim.
	//
	// Parameters:
	//   - owner: the claiming render loop
	//
	// Returns:
	//   - error: ErrPoolClaimed if another owner holds the claim, ErrPoolDisposed after Dispose
	Claim(owner any) error

	// Unclaim releases the claim if owner holds it.
	//
	// Parameters:
	//   - owner: the releasing render loop
	Unclaim(owner any)

	// Dispose releases every tracked resource in reverse creation order, then detaches
	// the surface from the mount point. Calling Dispose more than once is a no-op.
	Dispose()

	// Disposed reports whether Dispose has run.
	Disposed() bool

	// Stats returns the creation and release counters.
	Stats() Stats
}

var _ Pool = &poolImpl{}

// Acquire creates the surface, camera and light rig of a scene and attaches the surface
// to mount. A nil mount skips attachment.
//
// Parameters:
//   - backend: the host rendering capability
//   - mount: where the surface is shown
//   - width, height: initial drawable size in pixels
//   - options: variadic list of PoolBuilderOption functions
//
// Returns:
//   - Pool: the acquired pool
//   - error: a *ResourceError if the size is invalid, the surface cannot be created or attached
func Acquire(backend renderer.Backend, mount MountPoint, width, height int, options ...PoolBuilderOption) (Pool, error) {
	p := &poolImpl{
		mu:         &sync.Mutex{},
		label:      "scene",
		log:        zap.NewNop(),
		background: [4]float32{0x0a / 255.0, 0x0a / 255.0, 0x0a / 255.0, 1},
		fog:        renderer.Fog{Color: [3]float32{0x09 / 255.0, 0x09 / 255.0, 0x09 / 255.0}, Density: 0.001},
		pixelRatio: 1,
		backend:    backend,
		mount:      mount,
	}
	for _, opt := range options {
		opt(p)
	}

	if backend == nil {
		return nil, &ResourceError{Op: "acquire", Err: renderer.ErrNoRenderingContext}
	}
	if width <= 0 || height <= 0 {
		return nil, &ResourceError{Op: "acquire", Err: fmt.Errorf("invalid size %dx%d", width, height)}
	}

	surface, err := backend.CreateSurface(renderer.SurfaceDescriptor{
		Label:      p.label,
		Width:      width,
		Height:     height,
		PixelRatio: p.pixelRatio,
		Background: p.background,
	})
	if err != nil {
		return nil, &ResourceError{Op: "create surface", Err: err}
	}
	p.surface = surface
	p.track(surface)

	p.camera = camera.NewCamera(append(p.cameraOpts, camera.WithAspect(float32(width)/float32(height)))...)
	if p.rig == nil {
		p.rig = light.DefaultRig()
	}

	if mount != nil {
		if err := mount.Attach(surface); err != nil {
			p.releaseAll()
			return nil, &ResourceError{Op: "attach surface", Err: err}
		}
	}

	p.log.Debug("resource pool acquired",
		zap.String("label", p.label),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Float32("pixel_ratio", p.pixelRatio),
	)
	return p, nil
}

// track appends r to the ownership list. Caller must hold the mutex or own p exclusively.
func (p *poolImpl) track(r renderer.Resource) {
	p.owned = append(p.owned, r)
	p.stats.Created++
}

// releaseAll releases the ownership list in reverse order. Caller must hold the mutex or own p exclusively.
func (p *poolImpl) releaseAll() {
	for i := len(p.owned) - 1; i >= 0; i-- {
		p.owned[i].Release()
		p.stats.Released++
	}
	p.owned = nil
	p.points = nil
}

func (p *poolImpl) Surface() renderer.Surface {
	return p.surface
}

func (p *poolImpl) Camera() camera.Camera {
	return p.camera
}

func (p *poolImpl) Lights() *light.Rig {
	return p.rig
}

func (p *poolImpl) NewPoints(label string, count int, desc renderer.MaterialDescriptor) (Points, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return nil, ErrPoolDisposed
	}

	geometry, err := p.backend.CreateGeometry(label, count)
	if err != nil {
		return nil, &ResourceError{Op: "create geometry " + label, Err: err}
	}
	p.track(geometry)

	material, err := p.backend.CreateMaterial(label, desc)
	if err != nil {
		// the geometry stays tracked and is released with the pool
		return nil, &ResourceError{Op: "create material " + label, Err: err}
	}
	p.track(material)

	pts := &pointsImpl{label: label, geometry: geometry, material: material}
	pts.visible.Store(true)
	p.points = append(p.points, pts)
	return pts, nil
}

func (p *poolImpl) NewTexture(label string, data common.TextureStagingData) (renderer.Texture, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return nil, ErrPoolDisposed
	}

	tex, err := p.backend.CreateTexture(label, data)
	if err != nil {
		return nil, &ResourceError{Op: "create texture " + label, Err: err}
	}
	p.track(tex)
	return tex, nil
}

func (p *poolImpl) Draw() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return ErrPoolDisposed
	}

	frame := renderer.Frame{
		Camera:    p.camera,
		Lights:    p.rig,
		Fog:       p.fog,
		Drawables: make([]renderer.Drawable, 0, len(p.points)),
	}
	for _, pts := range p.points {
		if pts.Visible() {
			frame.Drawables = append(frame.Drawables, renderer.Drawable{Geometry: pts.geometry, Material: pts.material})
		}
	}
	return p.surface.Draw(frame)
}

func (p *poolImpl) Lock() {
	p.mu.Lock()
}

func (p *poolImpl) Unlock() {
	p.mu.Unlock()
}

func (p *poolImpl) Claim(owner any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.disposed:
		return ErrPoolDisposed
	case p.owner != nil && p.owner != owner:
		return ErrPoolClaimed
	}
	p.owner = owner
	return nil
}

func (p *poolImpl) Unclaim(owner any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.owner == owner {
		p.owner = nil
	}
}

func (p *poolImpl) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return
	}
	p.disposed = true
	p.owner = nil

	p.releaseAll()
	if p.mount != nil {
		p.mount.Detach(p.surface)
	}
	p.log.Debug("resource pool disposed",
		zap.String("label", p.label),
		zap.Int("created", p.stats.Created),
		zap.Int("released", p.stats.Released),
	)
}

func (p *poolImpl) Disposed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disposed
}

func (p *poolImpl) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// IsResourceError reports whether err is or wraps a *ResourceError.
func IsResourceError(err error) bool {
	var re *ResourceError
	return errors.As(err, &re)
}
