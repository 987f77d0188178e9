package container

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/pinned-runtime/errors"
	"github.com/wippyai/pinned-runtime/lifecycle"
	"github.com/wippyai/pinned-runtime/relocate"
)

// ErrNotUnique matches any error returned because a value was shared when an
// exclusive operation was attempted. Use errors.Is.
var ErrNotUnique error = &errors.Error{Kind: errors.KindNotUnique}

// Container holds at most one live T behind some storage strategy.
//
// Once initialized, the address returned by Get is stable until the
// container is consumed by Drop, a successful TryMoveOut or a conversion.
// Using a consumed container panics.
type Container[T any] interface {
	// Get returns the value for reading. Shared strategies may hand the same
	// pointer to several holders; it must not be written through.
	Get() *T

	// TryInner returns the value for mutation if this container is its only
	// owner. The pointer must never be used to relocate the value.
	TryInner() (*T, bool)

	// TryMoveOut hands the value's address to action and consumes the
	// container if it is the only owner. action must treat the value as
	// moved from: the container runs no destructor afterwards.
	// If the value is shared, TryMoveOut returns an error matching
	// ErrNotUnique and action is not called.
	TryMoveOut(action func(src *T)) error

	// Drop gives up this container's ownership. The destructor runs when the
	// last owner drops.
	Drop()

	// Strategy names the storage strategy.
	Strategy() lifecycle.Strategy
}

// Exclusive is a Container that is never shared, so access and move-out
// cannot fail.
type Exclusive[T any] interface {
	Container[T]

	// Inner returns the value for mutation.
	Inner() *T

	// MoveOut hands the value's address to action and consumes the container.
	MoveOut(action func(src *T))
}

// Uninit is reserved storage for one T that holds no live value yet.
// Exactly one of Init or Discard must be called.
type Uninit[T any, C any] interface {
	// Ptr returns the address a writer must deposit the value at.
	Ptr() *T

	// Init asserts that a valid T now lives at Ptr and returns the container.
	Init() C

	// Discard abandons the storage without running any destructor.
	Discard()
}

// Allocator reserves storage for the container type C.
type Allocator[T any, C any] interface {
	Allocate() Uninit[T, C]
}

// InitWith allocates storage and runs writer on it. If writer fails the
// storage is discarded and its error returned.
func InitWith[T any, C any](alloc Allocator[T, C], writer func(dst *T) error) (C, error) {
	u := alloc.Allocate()
	if err := writer(u.Ptr()); err != nil {
		u.Discard()
		Logger().Debug("container init failed",
			zap.String("type", relocate.TypeName[T]()),
			zap.Error(err))
		var zero C
		return zero, err
	}
	return u.Init(), nil
}

// InitValue allocates storage and copies v into it. T must relocate by plain
// assignment; use InitWith for pinned types.
func InitValue[T any, C any](alloc Allocator[T, C], v T) C {
	if !relocate.Trivial[T]() {
		panic(errors.Contract(errors.PhaseInit, "", "InitValue of "+relocate.TypeName[T]()+" would copy a value that needs relocation"))
	}
	u := alloc.Allocate()
	*u.Ptr() = v
	return u.Init()
}

// TryMoveOut moves the value out of c and returns what action produced.
// The error matches ErrNotUnique when c is shared.
func TryMoveOut[T any, R any](c Container[T], action func(src *T) R) (R, error) {
	var r R
	err := c.TryMoveOut(func(src *T) {
		r = action(src)
	})
	return r, err
}

// MoveOut moves the value out of an exclusive container.
func MoveOut[T any, R any](c Exclusive[T], action func(src *T) R) R {
	var r R
	c.MoveOut(func(src *T) {
		r = action(src)
	})
	return r
}

// Take moves the value out of c by assignment. T must relocate by plain
// assignment.
func Take[T any](c Container[T]) (T, error) {
	if !relocate.Trivial[T]() {
		panic(errors.Contract(errors.PhaseMoveOut, string(c.Strategy()), "Take of "+relocate.TypeName[T]()+" would copy a value that needs relocation"))
	}
	return TryMoveOut(c, func(src *T) T {
		var v T
		relocate.Bitwise(&v, src)
		return v
	})
}

// Convert moves the value of src into a new container from alloc, relocating
// it with relocate.Of. It fails exactly when src.TryMoveOut would fail.
//
// A failed conversion leaves src untouched, including a Shared handle:
// Convert checks uniqueness before consuming anything, whereas a failed
// Shared.TryMoveOut releases the handle. The caller may retry or drop src.
func Convert[T any, C any](src Container[T], alloc Allocator[T, C]) (C, error) {
	return ConvertWith(src, alloc, relocate.Of[T]())
}

// counted is implemented by the reference-counted strategies.
type counted interface {
	IsUnique() bool
	Count() int64
}

// ConvertWith is Convert with an explicit relocation routine.
func ConvertWith[T any, C any](src Container[T], alloc Allocator[T, C], move relocate.Func[T]) (C, error) {
	var out C
	if u, ok := src.(counted); ok && !u.IsUnique() {
		return out, errors.New(errors.PhaseConvert, errors.KindNotUnique).
			Strategy(string(src.Strategy())).
			GoType(relocate.TypeName[T]()).
			Detail("source is shared by %d handles", u.Count()).
			Value(u.Count()).
			Build()
	}
	err := src.TryMoveOut(func(from *T) {
		out = relocateInto(src.Strategy(), alloc, move, from)
	})
	if err != nil {
		return out, errors.New(errors.PhaseConvert, errors.KindNotUnique).
			Strategy(string(src.Strategy())).
			GoType(relocate.TypeName[T]()).
			Detail("source is shared").
			Cause(err).
			Build()
	}
	return out, nil
}

// Move moves the value of an exclusive container into a new container.
func Move[T any, C any](src Exclusive[T], alloc Allocator[T, C]) C {
	return MoveWith(src, alloc, relocate.Of[T]())
}

// MoveWith is Move with an explicit relocation routine.
func MoveWith[T any, C any](src Exclusive[T], alloc Allocator[T, C], move relocate.Func[T]) C {
	var out C
	src.MoveOut(func(from *T) {
		out = relocateInto(src.Strategy(), alloc, move, from)
	})
	return out
}

// relocateInto moves *from into fresh storage from alloc. Storage that is
// the source itself (a Borrowed slot converted into the same slot) cannot be
// relocated into and is fatal.
func relocateInto[T any, C any](s lifecycle.Strategy, alloc Allocator[T, C], move relocate.Func[T], from *T) C {
	u := alloc.Allocate()
	dst := u.Ptr()
	if dst == from {
		u.Discard()
		panic(errors.Contract(errors.PhaseConvert, string(s), "destination aliases source"))
	}
	move(dst, from)
	return u.Init()
}

func consumed(s lifecycle.Strategy) *errors.Error {
	return errors.Contract(errors.PhaseAccess, string(s), "use of consumed container")
}

func stringOf[T any](p *T) string {
	if s, ok := any(p).(fmt.Stringer); ok {
		return s.String()
	}
	if s, ok := any(*p).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(*p)
}
