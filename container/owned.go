package container

import (
	"github.com/wippyai/pinned-runtime/lifecycle"
	"github.com/wippyai/pinned-runtime/relocate"
)

// Owned exclusively owns one heap-allocated T.
type Owned[T any] struct {
	heap Heap
	p    *T
}

// OwnedAllocator allocates Owned containers.
type OwnedAllocator[T any] struct {
	heap Heap
}

// OwnedOn returns an allocator for Owned containers backed by h.
func OwnedOn[T any](h Heap) OwnedAllocator[T] {
	return OwnedAllocator[T]{heap: h}
}

// Allocate implements Allocator.
func (a OwnedAllocator[T]) Allocate() Uninit[T, *Owned[T]] {
	emit[T](a.heap, lifecycle.StrategyOwned, lifecycle.EventAllocated)
	return &ownedUninit[T]{uninit[T]{heap: a.heap, strategy: lifecycle.StrategyOwned, ptr: new(T)}}
}

type ownedUninit[T any] struct {
	uninit[T]
}

func (u *ownedUninit[T]) Init() *Owned[T] {
	h := u.heap
	return &Owned[T]{heap: h, p: u.finish(lifecycle.EventInitialized)}
}

func (u *ownedUninit[T]) Discard() {
	u.discard()
}

// NewOwned creates an Owned container holding v on the zero Heap.
func NewOwned[T any](v T) *Owned[T] {
	return InitValue(OwnedOn[T](Heap{}), v)
}

func (o *Owned[T]) live() *T {
	if o.p == nil {
		panic(consumed(lifecycle.StrategyOwned))
	}
	return o.p
}

// Get implements Container.
func (o *Owned[T]) Get() *T {
	return o.live()
}

// TryInner implements Container. It always succeeds.
func (o *Owned[T]) TryInner() (*T, bool) {
	return o.live(), true
}

// Inner implements Exclusive.
func (o *Owned[T]) Inner() *T {
	return o.live()
}

// TryMoveOut implements Container. It always succeeds.
func (o *Owned[T]) TryMoveOut(action func(src *T)) error {
	o.MoveOut(action)
	return nil
}

// MoveOut implements Exclusive.
func (o *Owned[T]) MoveOut(action func(src *T)) {
	p := o.live()
	o.p = nil
	action(p)
	relocate.Forget(p)
	emit[T](o.heap, lifecycle.StrategyOwned, lifecycle.EventMovedOut, lifecycle.EventFreed)
}

// Drop destroys the value and releases the storage.
func (o *Owned[T]) Drop() {
	p := o.live()
	o.p = nil
	relocate.Destroy(p)
	emit[T](o.heap, lifecycle.StrategyOwned, lifecycle.EventDestroyed, lifecycle.EventFreed)
}

// Strategy implements Container.
func (o *Owned[T]) Strategy() lifecycle.Strategy {
	return lifecycle.StrategyOwned
}

func (o *Owned[T]) String() string {
	return stringOf(o.live())
}
