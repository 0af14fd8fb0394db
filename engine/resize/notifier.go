package resize

import (
	"sort"
	"sync"
)

// Notifier is a Viewport that fans out sizes passed to Notify.
// Hosts embed it to implement Viewport.
type Notifier struct {
	mu   *sync.Mutex
	next uint64
	subs map[uint64]func(width, height int)
}

var _ Viewport = &Notifier{}

// NewNotifier creates a Notifier with no subscribers.
func NewNotifier() *Notifier {
	return &Notifier{mu: &sync.Mutex{}, subs: make(map[uint64]func(width, height int))}
}

func (n *Notifier) OnResize(fn func(width, height int)) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Notify calls every subscriber, in subscription order, with the new size.
func (n *Notifier) Notify(width, height int) {
	n.mu.Lock()
	ids := make([]uint64, 0, len(n.subs))
	for id := range n.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(int, int), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, n.subs[id])
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(width, height)
	}
}

// Subscribers returns the number of active subscriptions.
func (n *Notifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
