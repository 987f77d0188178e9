package container

import (
	"github.com/wippyai/pinned-runtime/errors"
	"github.com/wippyai/pinned-runtime/lifecycle"
	"github.com/wippyai/pinned-runtime/relocate"
)

// Borrowed owns a value that lives in caller-supplied storage.
//
// The container carries a live marker. MoveOut clears it before handing the
// value out, after which Drop does nothing; this lets the caller's scope call
// Drop unconditionally. The marker is not synchronized: a Borrowed container
// belongs to one goroutine.
type Borrowed[T any] struct {
	heap Heap
	slot *T
	live bool
}

// BorrowedAllocator places a value into one caller-owned slot.
type BorrowedAllocator[T any] struct {
	heap Heap
	slot *T
}

// BorrowedIn returns an allocator that uses slot as storage. The slot must
// not be read or written by the caller while a container owns it.
func BorrowedIn[T any](slot *T) BorrowedAllocator[T] {
	return BorrowedAllocator[T]{slot: slot}
}

// Observe returns a copy of the allocator that reports events to h's observer.
func (a BorrowedAllocator[T]) Observe(h Heap) BorrowedAllocator[T] {
	a.heap = h
	return a
}

// Allocate implements Allocator. Allocate may be called once per slot use;
// the slot is reused only after the previous container is consumed.
func (a BorrowedAllocator[T]) Allocate() Uninit[T, *Borrowed[T]] {
	if a.slot == nil {
		panic(errors.Contract(errors.PhaseAllocate, string(lifecycle.StrategyBorrowed), "nil slot"))
	}
	emit[T](a.heap, lifecycle.StrategyBorrowed, lifecycle.EventAllocated)
	return &borrowedUninit[T]{uninit[T]{heap: a.heap, strategy: lifecycle.StrategyBorrowed, ptr: a.slot}}
}

type borrowedUninit[T any] struct {
	uninit[T]
}

func (u *borrowedUninit[T]) Init() *Borrowed[T] {
	h := u.heap
	return &Borrowed[T]{heap: h, slot: u.finish(lifecycle.EventInitialized), live: true}
}

func (u *borrowedUninit[T]) Discard() {
	u.discard()
}

func (b *Borrowed[T]) get() *T {
	if !b.live {
		panic(consumed(lifecycle.StrategyBorrowed))
	}
	return b.slot
}

// Live reports whether the slot still holds the container's value.
func (b *Borrowed[T]) Live() bool {
	return b.live
}

// Get implements Container.
func (b *Borrowed[T]) Get() *T {
	return b.get()
}

// TryInner implements Container. It always succeeds.
func (b *Borrowed[T]) TryInner() (*T, bool) {
	return b.get(), true
}

// Inner implements Exclusive.
func (b *Borrowed[T]) Inner() *T {
	return b.get()
}

// TryMoveOut implements Container. It always succeeds.
func (b *Borrowed[T]) TryMoveOut(action func(src *T)) error {
	b.MoveOut(action)
	return nil
}

// MoveOut implements Exclusive.
func (b *Borrowed[T]) MoveOut(action func(src *T)) {
	p := b.get()
	b.live = false
	action(p)
	relocate.Forget(p)
	emit[T](b.heap, lifecycle.StrategyBorrowed, lifecycle.EventMovedOut, lifecycle.EventFreed)
}

// Drop destroys the value in the slot. It does nothing once the value was
// moved out or dropped.
func (b *Borrowed[T]) Drop() {
	if !b.live {
		return
	}
	b.live = false
	relocate.Destroy(b.slot)
	emit[T](b.heap, lifecycle.StrategyBorrowed, lifecycle.EventDestroyed, lifecycle.EventFreed)
}

// Strategy implements Container.
func (b *Borrowed[T]) Strategy() lifecycle.Strategy {
	return lifecycle.StrategyBorrowed
}

func (b *Borrowed[T]) String() string {
	return stringOf(b.get())
}
