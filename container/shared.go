package container

import (
	"go.uber.org/zap"

	"github.com/wippyai/pinned-runtime/container/internal/arc"
	"github.com/wippyai/pinned-runtime/errors"
	"github.com/wippyai/pinned-runtime/lifecycle"
	"github.com/wippyai/pinned-runtime/relocate"
)

// Shared shares one heap-allocated T between handles through an atomic
// reference count. Different handles may be used from different goroutines;
// a single handle may not.
//
// A failed TryMoveOut consumes the handle. This is what makes concurrent
// extraction decisive: if every handle attempts a move-out, exactly one
// succeeds.
type Shared[T any] struct {
	heap Heap
	a    arc.Arc[T]
}

// SharedAllocator allocates Shared containers.
type SharedAllocator[T any] struct {
	heap Heap
}

// SharedOn returns an allocator for Shared containers backed by h.
func SharedOn[T any](h Heap) SharedAllocator[T] {
	return SharedAllocator[T]{heap: h}
}

// Allocate implements Allocator.
func (a SharedAllocator[T]) Allocate() Uninit[T, *Shared[T]] {
	emit[T](a.heap, lifecycle.StrategyShared, lifecycle.EventAllocated)
	h := arc.New[T]()
	return &sharedUninit[T]{
		uninit: uninit[T]{heap: a.heap, strategy: lifecycle.StrategyShared, ptr: h.Ptr()},
		handle: h,
	}
}

type sharedUninit[T any] struct {
	uninit[T]
	handle arc.Arc[T]
}

func (u *sharedUninit[T]) Init() *Shared[T] {
	u.finish(lifecycle.EventInitialized)
	s := &Shared[T]{heap: u.heap, a: u.handle}
	u.handle = arc.Arc[T]{}
	return s
}

func (u *sharedUninit[T]) Discard() {
	u.discard()
	u.handle.Drop(nil)
}

// NewShared creates a Shared container holding v on the zero Heap.
func NewShared[T any](v T) *Shared[T] {
	return InitValue(SharedOn[T](Heap{}), v)
}

func (s *Shared[T]) live() *arc.Arc[T] {
	if s.a.Released() {
		panic(consumed(lifecycle.StrategyShared))
	}
	return &s.a
}

// Clone returns another handle to the same value.
func (s *Shared[T]) Clone() *Shared[T] {
	c := &Shared[T]{heap: s.heap, a: s.live().Clone()}
	emit[T](s.heap, lifecycle.StrategyShared, lifecycle.EventCloned)
	return c
}

// Count returns the number of live handles. The result may be stale as soon
// as it is returned if other goroutines hold handles.
func (s *Shared[T]) Count() int64 {
	return s.live().Count()
}

// IsUnique reports whether this is the only live handle.
func (s *Shared[T]) IsUnique() bool {
	return s.live().IsUnique()
}

// SameAllocation reports whether both handles refer to one value.
func (s *Shared[T]) SameAllocation(other *Shared[T]) bool {
	return s.a.SameAllocation(&other.a)
}

// Get implements Container.
func (s *Shared[T]) Get() *T {
	return s.live().Ptr()
}

// TryInner implements Container. It succeeds only for a unique handle; the
// pointer stays exclusive only while this handle is not cloned.
func (s *Shared[T]) TryInner() (*T, bool) {
	p, ok := s.live().GetMut()
	if !ok {
		emit[T](s.heap, lifecycle.StrategyShared, lifecycle.EventContended)
	}
	return p, ok
}

// TryMoveOut implements Container. The handle is consumed whatever the
// outcome; when other handles remained the error matches ErrNotUnique and
// action is not called.
func (s *Shared[T]) TryMoveOut(action func(src *T)) error {
	h := s.live()
	refs := h.Count()
	if h.TryMoveOut(action) {
		emit[T](s.heap, lifecycle.StrategyShared, lifecycle.EventMovedOut, lifecycle.EventFreed)
		return nil
	}
	emit[T](s.heap, lifecycle.StrategyShared, lifecycle.EventContended, lifecycle.EventReleased)
	Logger().Debug("shared move-out lost",
		zap.String("type", relocate.TypeName[T]()),
		zap.Int64("refs", refs))
	return errors.NotUnique(errors.PhaseMoveOut, string(lifecycle.StrategyShared), refs)
}

// Drop releases this handle and destroys the value if it was the last one.
func (s *Shared[T]) Drop() {
	if s.live().Drop(relocate.Destroy[T]) {
		emit[T](s.heap, lifecycle.StrategyShared, lifecycle.EventDestroyed, lifecycle.EventFreed)
		return
	}
	emit[T](s.heap, lifecycle.StrategyShared, lifecycle.EventReleased)
}

// Strategy implements Container.
func (s *Shared[T]) Strategy() lifecycle.Strategy {
	return lifecycle.StrategyShared
}

func (s *Shared[T]) String() string {
	return stringOf(s.Get())
}
