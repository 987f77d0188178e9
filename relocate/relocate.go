package relocate

import (
	"reflect"
	"sync/atomic"

	"github.com/wippyai/pinned-runtime/errors"
)

// Func moves the live value at src into the uninitialized storage at dst.
// Afterwards dst holds the only live value and src must not be destroyed.
type Func[T any] func(dst, src *T)

// Mover is implemented by *T for types whose relocation is more than a copy,
// typically because the value stores its own address or lives in foreign memory.
type Mover[T any] interface {
	RelocateFrom(src *T)
}

// Dropper is implemented by *T for types that release resources when destroyed.
type Dropper interface {
	Drop()
}

// Of returns the relocation routine for T: RelocateFrom when *T implements
// Mover, otherwise Bitwise. It panics for a Pinned type without a Mover.
func Of[T any]() Func[T] {
	if _, ok := any((*T)(nil)).(Mover[T]); ok {
		return func(dst, src *T) {
			any(dst).(Mover[T]).RelocateFrom(src)
		}
	}
	if IsPinned[T]() {
		panic(errors.New(errors.PhaseConvert, errors.KindContract).
			GoType(TypeName[T]()).
			Detail("pinned type has no RelocateFrom and cannot be copied bitwise").
			Build())
	}
	return Bitwise[T]
}

// Bitwise relocates plain data by assignment and zeroes the source.
func Bitwise[T any](dst, src *T) {
	*dst = *src
	var zero T
	*src = zero
}

// Trivial reports whether T relocates by plain assignment.
func Trivial[T any]() bool {
	if _, ok := any((*T)(nil)).(Mover[T]); ok {
		return false
	}
	return !IsPinned[T]()
}

// Destroy runs T's destructor, if any, and clears the storage.
func Destroy[T any](p *T) {
	if d, ok := any(p).(Dropper); ok {
		d.Drop()
	}
	var zero T
	*p = zero
}

// Forget clears the storage without running the destructor. Used once a
// value's fate has passed to a move-out action.
func Forget[T any](p *T) {
	var zero T
	*p = zero
}

// Counting wraps fn and counts its invocations.
func Counting[T any](fn Func[T]) (Func[T], *atomic.Int64) {
	var n atomic.Int64
	return func(dst, src *T) {
		n.Add(1)
		fn(dst, src)
	}, &n
}

// TypeName returns the Go type name used in errors and logs.
func TypeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
