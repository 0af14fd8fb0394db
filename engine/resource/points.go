package resource

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-space/engine/renderer"
)

// Points is a point cloud drawn by the pool: a geometry, its material and a visibility flag.
type Points interface {
	// Label returns the label the points were created with.
	Label() string

	// Count returns the number of points.
	Count() int

	// Geometry returns the position buffer.
	Geometry() renderer.Geometry

	// Material returns the appearance.
	Material() renderer.Material

	// Visible reports whether the pool draws the points.
	Visible() bool

	// SetVisible shows or hides the points.
	SetVisible(visible bool)
}

type pointsImpl struct {
	label    string
	geometry renderer.Geometry
	material renderer.Material
	visible  atomic.Bool
}

var _ Points = &pointsImpl{}

func (p *pointsImpl) Label() string {
	return p.label
}

func (p *pointsImpl) Count() int {
	return p.geometry.Count()
}

func (p *pointsImpl) Geometry() renderer.Geometry {
	return p.geometry
}

func (p *pointsImpl) Material() renderer.Material {
	return p.material
}

func (p *pointsImpl) Visible() bool {
	return p.visible.Load()
}

func (p *pointsImpl) SetVisible(visible bool) {
	p.visible.Store(visible)
}
