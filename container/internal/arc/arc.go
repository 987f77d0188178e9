// Package arc implements the atomically reference-counted allocation behind
// container.Shared.
//
// Unlike a plain reference count, Arc offers TryMoveOut, which performs the
// same decrement as Drop and only differs in what happens at the transition
// to zero: Drop destroys the value, TryMoveOut hands it to the caller. If
// every live handle ends in TryMoveOut, exactly one of those calls succeeds.
//
// Ordering: every count operation uses sync/atomic, whose operations are
// sequentially consistent. This subsumes the release decrement and the
// acquire on reaching zero, so all writes made through other handles are
// visible to whichever goroutine disposes of the value.
package arc

import (
	"math"
	"sync/atomic"
)

// MaxRefs bounds the number of live handles. Clone aborts above it.
const MaxRefs = math.MaxInt64 / 2

type inner[T any] struct {
	count atomic.Int64
	data  T
}

// Arc is one handle to a shared allocation. The zero Arc is released.
// A single Arc value must not be used from several goroutines at once;
// clone it instead.
type Arc[T any] struct {
	p *inner[T]
}

// New allocates storage for one T with a count of 1. The storage holds the
// zero T until the caller writes through Ptr.
func New[T any]() Arc[T] {
	p := &inner[T]{}
	p.count.Store(1)
	return Arc[T]{p: p}
}

// Released reports whether this handle was dropped or moved out.
func (a *Arc[T]) Released() bool {
	return a.p == nil
}

func (a *Arc[T]) live() *inner[T] {
	if a.p == nil {
		panic("arc: use of released handle")
	}
	return a.p
}

// Ptr returns the address of the shared value.
func (a *Arc[T]) Ptr() *T {
	return &a.live().data
}

// Clone returns a new handle to the same allocation.
// A relaxed increment would suffice: the caller already holds a handle.
func (a *Arc[T]) Clone() Arc[T] {
	p := a.live()
	if old := p.count.Add(1) - 1; old > MaxRefs {
		panic("arc: suspiciously many handles to one allocation")
	}
	return Arc[T]{p: p}
}

// Count returns the number of live handles.
func (a *Arc[T]) Count() int64 {
	return a.live().count.Load()
}

// IsUnique reports whether this is the only live handle.
func (a *Arc[T]) IsUnique() bool {
	return a.Count() == 1
}

// SameAllocation reports whether both handles refer to one allocation.
func (a *Arc[T]) SameAllocation(b *Arc[T]) bool {
	return a.p != nil && a.p == b.p
}

// GetMut returns the value for mutation if this is the only live handle.
// The pointer stays exclusive only while no clone is made from this handle.
func (a *Arc[T]) GetMut() (*T, bool) {
	p := a.live()
	if p.count.Load() != 1 {
		return nil, false
	}
	return &p.data, true
}

// release detaches the allocation from this handle and decrements the
// count. It returns the allocation if this handle was the last one.
func (a *Arc[T]) release() *inner[T] {
	p := a.live()
	a.p = nil
	if p.count.Add(-1) != 0 {
		return nil
	}
	return p
}

// Drop releases the handle. If it was the last one, destroy runs on the
// value and Drop reports true; the allocation is then unreachable.
func (a *Arc[T]) Drop(destroy func(*T)) bool {
	p := a.release()
	if p == nil {
		return false
	}
	if destroy != nil {
		destroy(&p.data)
	}
	return true
}

// TryMoveOut releases the handle. If it was the last one, op receives the
// value's address, must treat it as moved-from, and TryMoveOut reports true.
// Otherwise the handle is gone, op is not called and TryMoveOut reports false.
func (a *Arc[T]) TryMoveOut(op func(*T)) bool {
	p := a.release()
	if p == nil {
		return false
	}
	op(&p.data)
	var zero T
	p.data = zero
	return true
}
