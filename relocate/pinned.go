package relocate

import (
	"unsafe"

	"github.com/wippyai/pinned-runtime/errors"
)

// noCopy makes go vet's copylocks check flag plain copies of the embedding type.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

type pinner interface {
	pinnedMarker()
}

// Pinned marks a type as not trivially relocatable. Embed it by value:
//
//	type Cell struct {
//		relocate.Pinned
//		ptr uint32
//	}
//
// Copies are reported by go vet. At run time Pin records the value's
// address and CheckPinned panics if the value has since been moved by
// assignment instead of through RelocateFrom. Pinned values are expected to
// live on the heap, which containers guarantee.
type Pinned struct {
	noCopy noCopy
	addr   uintptr
}

func (*Pinned) pinnedMarker() {}

// Pin records the current address as the value's home.
func (p *Pinned) Pin() {
	p.addr = uintptr(unsafe.Pointer(p))
}

// Unpin clears the recorded address, marking the value as moved-from.
func (p *Pinned) Unpin() {
	p.addr = 0
}

// IsPinned reports whether Pin was called and the value has not been unpinned.
func (p *Pinned) IsPinned() bool {
	return p.addr != 0
}

// CheckPinned panics if the value was pinned at a different address.
func (p *Pinned) CheckPinned() {
	if p.addr != 0 && p.addr != uintptr(unsafe.Pointer(p)) {
		panic(errors.Contract(errors.PhaseAccess, "", "pinned value was relocated by assignment"))
	}
}

// IsPinned reports whether T embeds Pinned.
func IsPinned[T any]() bool {
	_, ok := any((*T)(nil)).(pinner)
	return ok
}
