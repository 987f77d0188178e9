// Package relocate defines how values are moved between storage locations.
//
// Most Go values relocate by assignment. Values defined by a foreign
// component may store their own address or own foreign memory, so moving them
// requires a routine supplied by the type itself:
//
//	func (c *Cell) RelocateFrom(src *Cell) { ... }
//
// Of selects the routine for a type: RelocateFrom when *T implements Mover,
// assignment followed by zeroing the source otherwise. Of panics for types
// that embed Pinned but do not implement Mover.
//
// Destroy runs a value's destructor (Dropper) exactly where a container
// disposes of it; Forget clears storage whose value has been moved away.
package relocate
