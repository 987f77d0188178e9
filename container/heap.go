package container

import (
	"github.com/wippyai/pinned-runtime/errors"
	"github.com/wippyai/pinned-runtime/lifecycle"
	"github.com/wippyai/pinned-runtime/relocate"
)

// Heap allocates container storage from the Go heap. The zero Heap is ready
// to use; set Observer to receive lifecycle events.
//
// Go's collector never moves heap objects, so storage obtained from Heap is
// address-stable for as long as a container references it.
type Heap struct {
	Observer lifecycle.Observer
}

func emit[T any](h Heap, s lifecycle.Strategy, types ...lifecycle.EventType) {
	if h.Observer == nil {
		return
	}
	name := relocate.TypeName[T]()
	for _, t := range types {
		h.Observer.OnContainerEvent(lifecycle.Event{Strategy: s, GoType: name, Type: t})
	}
}

// uninit is the state shared by every strategy's Uninit implementation.
type uninit[T any] struct {
	heap     Heap
	strategy lifecycle.Strategy
	ptr      *T
	done     bool
}

func (u *uninit[T]) Ptr() *T {
	if u.done {
		panic(errors.Contract(errors.PhaseInit, string(u.strategy), "storage already initialized or discarded"))
	}
	return u.ptr
}

func (u *uninit[T]) finish(t lifecycle.EventType) *T {
	p := u.Ptr()
	u.done = true
	u.ptr = nil
	emit[T](u.heap, u.strategy, t)
	return p
}

func (u *uninit[T]) discard() *T {
	p := u.finish(lifecycle.EventDiscarded)
	relocate.Forget(p)
	return p
}
