// Package resource owns every GPU object of a scene: the surface, the camera, the
// light rig and the geometries, materials and textures created through a Pool.
package resource

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy-space/engine/renderer"
)

var (
	// ErrPoolDisposed is returned by pool operations after Dispose.
	ErrPoolDisposed = errors.New("resource pool disposed")

	// ErrPoolClaimed is returned when a second render loop tries to claim a pool.
	ErrPoolClaimed = errors.New("resource pool already claimed by a running loop")

	// ErrMountOccupied is returned when a mount point already shows another surface.
	ErrMountOccupied = errors.New("mount point already has a rendering child")
)

// ResourceError reports a failure to acquire or create a GPU resource.
type ResourceError struct {
	Op  string
	Err error
}

func (e *ResourceError) Error() string {
	return "resource: " + e.Op + ": " + e.Err.Error()
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// MountPoint is the host region a pool attaches its surface to.
type MountPoint interface {
	// Attach makes s the sole rendering child of the mount point.
	//
	// Parameters:
	//   - s: the surface to show
	//
	// Returns:
	//   - error: an error if the surface cannot be attached
	Attach(s renderer.Surface) error

	// Detach removes s if it is the current child. Detaching anything else is a no-op.
	//
	// Parameters:
	//   - s: the surface to remove
	Detach(s renderer.Surface)
}

// Mount is a MountPoint holding at most one surface.
// The zero value is not usable; create one with NewMount.
type Mount struct {
	mu    *sync.Mutex
	child renderer.Surface
}

var _ MountPoint = &Mount{}

// NewMount creates an empty mount point.
func NewMount() *Mount {
	return &Mount{mu: &sync.Mutex{}}
}

func (m *Mount) Attach(s renderer.Surface) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.child != nil && m.child != s {
		return ErrMountOccupied
	}
	m.child = s
	return nil
}

func (m *Mount) Detach(s renderer.Surface) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.child == s {
		m.child = nil
	}
}

// Child returns the attached surface, or nil.
func (m *Mount) Child() renderer.Surface {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.child
}

// Contains reports whether s is the attached surface.
func (m *Mount) Contains(s renderer.Surface) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return s != nil && m.child == s
}
