// Package animation holds the ordered per-frame callbacks of a scene.
package animation

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Token identifies a registered callback. The zero Token is never issued.
type Token = uuid.UUID

// Callback is run once per frame with the seconds elapsed since the render loop started.
// A returned error is logged and does not unregister the callback.
type Callback func(elapsed float64) error

type entry struct {
	token    Token
	callback Callback
	removed  atomic.Bool
}

type registryImpl struct {
	mu      *sync.Mutex
	log     *zap.Logger
	entries []*entry
	running bool
}

// Registry is an ordered collection of per-frame callbacks.
//
// Callbacks run in registration order. A callback that fails, by returning an error
// or by panicking, is logged and skipped for the rest of that frame only.
//
// A Registry may be mutated from any goroutine, including from inside a callback.
// RunAll itself is not reentrant: a nested call returns immediately.
type Registry interface {
	// Register appends a callback and returns its token.
	// Callbacks registered while RunAll is running first run on the next frame.
	//
	// Parameters:
	//   - cb: the callback; a nil callback is ignored and yields the zero Token
	//
	// Returns:
	//   - Token: the token identifying the callback
	Register(cb Callback) Token

	// Unregister removes the callback with the given token. Unknown tokens are ignored.
	// A callback unregistered while RunAll is running is not invoked afterwards.
	//
	// Parameters:
	//   - token: the token returned by Register
	Unregister(token Token)

	// RunAll invokes every registered callback in registration order.
	//
	// Parameters:
	//   - elapsed: seconds since the render loop started
	RunAll(elapsed float64)

	// Len returns the number of registered callbacks.
	//
	// Returns:
	//   - int: the callback count
	Len() int

	// Clear unregisters every callback.
	//
	// Returns:
	//   - int: the number of callbacks removed
	Clear() int
}

var _ Registry = &registryImpl{}

// NewRegistry creates an empty Registry.
//
// Parameters:
//   - options: variadic list of RegistryBuilderOption functions
//
// Returns:
//   - Registry: the registry
func NewRegistry(options ...RegistryBuilderOption) Registry {
	r := &registryImpl{mu: &sync.Mutex{}, log: zap.NewNop()}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *registryImpl) Register(cb Callback) Token {
	if cb == nil {
		return Token{}
	}
	e := &entry{token: uuid.New(), callback: cb}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return e.token
}

func (r *registryImpl) Unregister(token Token) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.token != token {
			continue
		}
		e.removed.Store(true)
		r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
		return
	}
}

func (r *registryImpl) RunAll(elapsed float64) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	// the snapshot fixes this frame's callbacks; the removed flag drops entries
	// unregistered by an earlier callback of the same frame
	snapshot := r.entries
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	for _, e := range snapshot {
		if e.removed.Load() {
			continue
		}
		if err := r.invoke(e, elapsed); err != nil {
			r.log.Error("animation callback failed",
				zap.String("token", e.token.String()),
				zap.Float64("elapsed", elapsed),
				zap.Error(err),
			)
		}
	}
}

func (r *registryImpl) invoke(e *entry, elapsed float64) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return e.callback(elapsed)
}

func (r *registryImpl) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *registryImpl) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.entries)
	for _, e := range r.entries {
		e.removed.Store(true)
	}
	r.entries = nil
	return n
}
