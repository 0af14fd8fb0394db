// Package fake provides an in-memory renderer.Backend that records every creation,
// release and draw. It backs the headless mode and the tests of the packages that
// create GPU resources.
package fake

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-space/common"
	"github.com/Carmen-Shannon/oxy-space/engine/renderer"
)

// Backend is a recording renderer.Backend. The Fail* fields make the matching
// Create call return the given error; set them before the backend is used.
type Backend struct {
	FailSurface  error
	FailGeometry error
	FailMaterial error
	FailTexture  error

	mu       *sync.Mutex
	created  int
	released int
	events   []string
	surface  *Surface
}

var _ renderer.Backend = &Backend{}

// New creates an empty recording backend.
func New() *Backend {
	return &Backend{mu: &sync.Mutex{}}
}

// Stats returns how many resources were created and released.
func (b *Backend) Stats() (created, released int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.created, b.released
}

// Live returns the number of created resources that have not been released.
func (b *Backend) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.created - b.released
}

// Events returns the creation and release log, e.g. "create surface:scene", "release geometry:particles".
func (b *Backend) Events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	copy(out, b.events)
	return out
}

// Surface returns the most recently created surface, or nil.
func (b *Backend) Surface() *Surface {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surface
}

func (b *Backend) record(action, kind, label string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch action {
	case "create":
		b.created++
	case "release":
		b.released++
	}
	b.events = append(b.events, action+" "+kind+":"+label)
}

func (b *Backend) CreateSurface(desc renderer.SurfaceDescriptor) (renderer.Surface, error) {
	if b.FailSurface != nil {
		return nil, b.FailSurface
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", desc.Width, desc.Height)
	}
	s := &Surface{
		resource:   resource{backend: b, kind: "surface", label: desc.Label},
		width:      desc.Width,
		height:     desc.Height,
		pixelRatio: common.Coalesce(desc.PixelRatio, 1),
		background: desc.Background,
	}
	b.record("create", "surface", desc.Label)
	b.mu.Lock()
	b.surface = s
	b.mu.Unlock()
	return s, nil
}

func (b *Backend) CreateGeometry(label string, count int) (renderer.Geometry, error) {
	if b.FailGeometry != nil {
		return nil, b.FailGeometry
	}
	if count <= 0 {
		return nil, fmt.Errorf("invalid point count %d", count)
	}
	b.record("create", "geometry", label)
	return &Geometry{resource: resource{backend: b, kind: "geometry", label: label}, count: count}, nil
}

func (b *Backend) CreateMaterial(label string, desc renderer.MaterialDescriptor) (renderer.Material, error) {
	if b.FailMaterial != nil {
		return nil, b.FailMaterial
	}
	b.record("create", "material", label)
	return &Material{resource: resource{backend: b, kind: "material", label: label}, desc: desc}, nil
}

func (b *Backend) CreateTexture(label string, data common.TextureStagingData) (renderer.Texture, error) {
	if b.FailTexture != nil {
		return nil, b.FailTexture
	}
	if !data.Valid() {
		return nil, fmt.Errorf("create texture %q: invalid staging data", label)
	}
	b.record("create", "texture", label)
	return &Texture{resource: resource{backend: b, kind: "texture", label: label}, width: data.Width, height: data.Height}, nil
}

// resource implements renderer.Resource for every fake object.
type resource struct {
	backend  *Backend
	kind     string
	label    string
	released bool
}

func (r *resource) Label() string {
	return r.label
}

func (r *resource) Release() {
	r.backend.mu.Lock()
	if r.released {
		r.backend.mu.Unlock()
		return
	}
	r.released = true
	r.backend.mu.Unlock()
	r.backend.record("release", r.kind, r.label)
}

// Released reports whether Release has been called.
func (r *resource) Released() bool {
	r.backend.mu.Lock()
	defer r.backend.mu.Unlock()
	return r.released
}

// Surface is a fake renderer.Surface.
type Surface struct {
	resource

	width      int
	height     int
	pixelRatio float32
	background [4]float32

	drawErr   error
	drawPanic any
	frames    []renderer.Frame
	sizes     [][2]int
}

var _ renderer.Surface = &Surface{}

func (s *Surface) Size() (width, height int) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	return s.width, s.height
}

func (s *Surface) PixelRatio() float32 {
	return s.pixelRatio
}

func (s *Surface) Background() [4]float32 {
	return s.background
}

func (s *Surface) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.width, s.height = width, height
	s.sizes = append(s.sizes, [2]int{width, height})
}

func (s *Surface) Draw(frame renderer.Frame) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if s.released {
		return renderer.ErrReleased
	}
	if s.drawPanic != nil {
		panic(s.drawPanic)
	}
	if s.drawErr != nil {
		return s.drawErr
	}
	frame.Drawables = append([]renderer.Drawable(nil), frame.Drawables...)
	s.frames = append(s.frames, frame)
	return nil
}

// FailDraw makes subsequent draws return err; nil restores normal draws.
func (s *Surface) FailDraw(err error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.drawErr = err
}

// PanicDraw makes subsequent draws panic with v; nil restores normal draws.
func (s *Surface) PanicDraw(v any) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.drawPanic = v
}

// Frames returns the number of successful draws.
func (s *Surface) Frames() int {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	return len(s.frames)
}

// LastFrame returns the most recent successfully drawn frame.
func (s *Surface) LastFrame() (renderer.Frame, bool) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if len(s.frames) == 0 {
		return renderer.Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// Resizes returns every size applied through Resize, in order.
func (s *Surface) Resizes() [][2]int {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	out := make([][2]int, len(s.sizes))
	copy(out, s.sizes)
	return out
}

// Geometry is a fake renderer.Geometry keeping the last uploaded positions.
type Geometry struct {
	resource
	count     int
	positions []float32
	uploads   int
}

var _ renderer.Geometry = &Geometry{}

func (g *Geometry) Count() int {
	return g.count
}

func (g *Geometry) SetPositions(positions []float32) error {
	if len(positions) != g.count*3 {
		return fmt.Errorf("geometry %q: got %d floats, want %d", g.label, len(positions), g.count*3)
	}
	g.backend.mu.Lock()
	defer g.backend.mu.Unlock()
	if g.released {
		return renderer.ErrReleased
	}
	g.positions = append(g.positions[:0], positions...)
	g.uploads++
	return nil
}

// Positions returns a copy of the last uploaded positions.
func (g *Geometry) Positions() []float32 {
	g.backend.mu.Lock()
	defer g.backend.mu.Unlock()
	return append([]float32(nil), g.positions...)
}

// Uploads returns how many times SetPositions succeeded.
func (g *Geometry) Uploads() int {
	g.backend.mu.Lock()
	defer g.backend.mu.Unlock()
	return g.uploads
}

// Material is a fake renderer.Material.
type Material struct {
	resource
	desc    renderer.MaterialDescriptor
	texture renderer.Texture
}

var _ renderer.Material = &Material{}

func (m *Material) Descriptor() renderer.MaterialDescriptor {
	return m.desc
}

func (m *Material) SetTexture(tex renderer.Texture) error {
	m.backend.mu.Lock()
	defer m.backend.mu.Unlock()
	if m.released {
		return renderer.ErrReleased
	}
	m.texture = tex
	return nil
}

// Texture returns the bound texture, or nil.
func (m *Material) Texture() renderer.Texture {
	m.backend.mu.Lock()
	defer m.backend.mu.Unlock()
	return m.texture
}

// Texture is a fake renderer.Texture.
type Texture struct {
	resource
	width  uint32
	height uint32
}

var _ renderer.Texture = &Texture{}

func (t *Texture) Size() (width, height uint32) {
	return t.width, t.height
}
