// Package texture loads image files off the frame thread. Results are handed back
// through a polled mailbox so the GPU upload happens on the thread that draws.
package texture

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-space/common"
	"go.uber.org/zap"
)

// DefaultRetries is the number of silent retries after a failed decode.
const DefaultRetries = 2

// Decoder reads and decodes the image at path.
type Decoder func(path string) (common.TextureStagingData, error)

// Result is the outcome of a load.
type Result struct {
	// Path is the requested file.
	Path string
	// Data holds the decoded pixels when Err is nil.
	Data common.TextureStagingData
	// Attempts is how many times the decoder ran.
	Attempts int
	// Err is the last decode error, nil on success.
	Err error
}

// Pending is the mailbox of an in-flight load.
type Pending struct {
	path string
	done chan struct{}

	mu     *sync.Mutex
	result *Result
}

func newPending(path string) *Pending {
	return &Pending{path: path, done: make(chan struct{}), mu: &sync.Mutex{}}
}

// deliver stores r and wakes every waiter. It is called once per Pending.
func (p *Pending) deliver(r Result) {
	p.mu.Lock()
	p.result = &r
	p.mu.Unlock()
	close(p.done)
}

// Path returns the requested file.
func (p *Pending) Path() string {
	return p.path
}

// Poll returns the result without blocking. ok is false while the load is in flight.
// Once a result is available every later call returns the same result.
//
// Returns:
//   - Result: the load outcome
//   - bool: whether the load has finished
func (p *Pending) Poll() (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.result == nil {
		return Result{}, false
	}
	return *p.result, true
}

// Wait blocks until the load finishes or ctx is done.
//
// Parameters:
//   - ctx: bounds the wait
//
// Returns:
//   - Result: the load outcome
//   - error: ctx.Err() if ctx finished first
func (p *Pending) Wait(ctx context.Context) (Result, error) {
	select {
	case <-p.done:
		r, _ := p.Poll()
		return r, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

type loaderImpl struct {
	pool    worker.DynamicWorkerPool
	workers int
	decode  Decoder
	retries int
	log     *zap.Logger
	nextID  atomic.Int64
}

// Loader decodes textures on a worker pool.
type Loader interface {
	// Load starts decoding path and returns immediately.
	//
	// Parameters:
	//   - path: the image file
	//
	// Returns:
	//   - *Pending: the mailbox receiving the result
	Load(path string) *Pending
}

var _ Loader = &loaderImpl{}

// NewLoader creates a Loader backed by a dynamic worker pool.
//
// Parameters:
//   - options: variadic list of LoaderBuilderOption functions
//
// Returns:
//   - Loader: the loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loaderImpl{
		workers: 2,
		decode:  common.LoadTextureFile,
		retries: DefaultRetries,
		log:     zap.NewNop(),
	}
	for _, opt := range options {
		opt(l)
	}
	l.pool = worker.NewDynamicWorkerPool(l.workers, 64, 1*time.Second)
	return l
}

func (l *loaderImpl) Load(path string) *Pending {
	p := newPending(path)
	id := int(l.nextID.Add(1))

	l.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			r := l.run(path)
			p.deliver(r)
			return nil, r.Err
		},
	})
	return p
}

// run decodes path, retrying up to l.retries times. Only the final failure is logged above debug.
func (l *loaderImpl) run(path string) Result {
	r := Result{Path: path}
	for attempt := 0; attempt <= l.retries; attempt++ {
		r.Attempts++
		data, err := l.decode(path)
		if err == nil && !data.Valid() {
			err = fmt.Errorf("texture %s: empty or malformed pixel data", path)
		}
		if err == nil {
			r.Data = data
			r.Err = nil
			l.log.Debug("texture loaded",
				zap.String("path", path),
				zap.Uint32("width", data.Width),
				zap.Uint32("height", data.Height),
				zap.Int("attempts", r.Attempts),
			)
			return r
		}
		r.Err = err
		l.log.Debug("texture decode attempt failed", zap.String("path", path), zap.Int("attempt", r.Attempts), zap.Error(err))
	}
	l.log.Warn("texture load failed", zap.String("path", path), zap.Int("attempts", r.Attempts), zap.Error(r.Err))
	return r
}
