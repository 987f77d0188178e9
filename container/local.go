package container

import (
	"go.uber.org/zap"

	"github.com/wippyai/pinned-runtime/errors"
	"github.com/wippyai/pinned-runtime/lifecycle"
	"github.com/wippyai/pinned-runtime/relocate"
)

type localBox[T any] struct {
	refs int64
	data T
}

// Local shares one heap-allocated T between handles through a plain,
// non-atomic reference count. All handles cloned from one allocation must
// stay on one goroutine; use Shared otherwise.
type Local[T any] struct {
	heap Heap
	box  *localBox[T]
}

// LocalAllocator allocates Local containers.
type LocalAllocator[T any] struct {
	heap Heap
}

// LocalOn returns an allocator for Local containers backed by h.
func LocalOn[T any](h Heap) LocalAllocator[T] {
	return LocalAllocator[T]{heap: h}
}

// Allocate implements Allocator.
func (a LocalAllocator[T]) Allocate() Uninit[T, *Local[T]] {
	emit[T](a.heap, lifecycle.StrategyLocal, lifecycle.EventAllocated)
	box := &localBox[T]{refs: 1}
	return &localUninit[T]{
		uninit: uninit[T]{heap: a.heap, strategy: lifecycle.StrategyLocal, ptr: &box.data},
		box:    box,
	}
}

type localUninit[T any] struct {
	uninit[T]
	box *localBox[T]
}

func (u *localUninit[T]) Init() *Local[T] {
	u.finish(lifecycle.EventInitialized)
	return &Local[T]{heap: u.heap, box: u.box}
}

func (u *localUninit[T]) Discard() {
	u.discard()
	u.box = nil
}

// NewLocal creates a Local container holding v on the zero Heap.
func NewLocal[T any](v T) *Local[T] {
	return InitValue(LocalOn[T](Heap{}), v)
}

func (l *Local[T]) live() *localBox[T] {
	if l.box == nil {
		panic(consumed(lifecycle.StrategyLocal))
	}
	return l.box
}

// Clone returns another handle to the same value.
func (l *Local[T]) Clone() *Local[T] {
	box := l.live()
	box.refs++
	emit[T](l.heap, lifecycle.StrategyLocal, lifecycle.EventCloned)
	return &Local[T]{heap: l.heap, box: box}
}

// Count returns the number of live handles.
func (l *Local[T]) Count() int64 {
	return l.live().refs
}

// IsUnique reports whether this is the only live handle.
func (l *Local[T]) IsUnique() bool {
	return l.live().refs == 1
}

// SameAllocation reports whether both handles refer to one value.
func (l *Local[T]) SameAllocation(other *Local[T]) bool {
	return l.box != nil && l.box == other.box
}

// Get implements Container.
func (l *Local[T]) Get() *T {
	return &l.live().data
}

// TryInner implements Container. It succeeds only for a unique handle.
func (l *Local[T]) TryInner() (*T, bool) {
	if !l.IsUnique() {
		emit[T](l.heap, lifecycle.StrategyLocal, lifecycle.EventContended)
		return nil, false
	}
	return &l.box.data, true
}

// TryMoveOut implements Container. When other handles exist it returns an
// error matching ErrNotUnique and leaves this handle usable.
func (l *Local[T]) TryMoveOut(action func(src *T)) error {
	box := l.live()
	if box.refs != 1 {
		emit[T](l.heap, lifecycle.StrategyLocal, lifecycle.EventContended)
		Logger().Debug("local move-out refused",
			zap.String("type", relocate.TypeName[T]()),
			zap.Int64("refs", box.refs))
		return errors.NotUnique(errors.PhaseMoveOut, string(lifecycle.StrategyLocal), box.refs)
	}
	l.box = nil
	box.refs = 0
	action(&box.data)
	relocate.Forget(&box.data)
	emit[T](l.heap, lifecycle.StrategyLocal, lifecycle.EventMovedOut, lifecycle.EventFreed)
	return nil
}

// Drop releases this handle and destroys the value if it was the last one.
func (l *Local[T]) Drop() {
	box := l.live()
	l.box = nil
	box.refs--
	if box.refs != 0 {
		emit[T](l.heap, lifecycle.StrategyLocal, lifecycle.EventReleased)
		return
	}
	relocate.Destroy(&box.data)
	emit[T](l.heap, lifecycle.StrategyLocal, lifecycle.EventDestroyed, lifecycle.EventFreed)
}

// Strategy implements Container.
func (l *Local[T]) Strategy() lifecycle.Strategy {
	return lifecycle.StrategyLocal
}

func (l *Local[T]) String() string {
	return stringOf(l.Get())
}
