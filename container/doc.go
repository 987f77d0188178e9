// Package container stores values behind interchangeable ownership strategies.
//
// A container holds at most one live value of type T. It is created in two
// steps: an Allocator reserves storage and returns an Uninit, a writer
// deposits the value at Uninit.Ptr, and Init turns the storage into a
// container. InitWith and InitValue wrap these steps.
//
//	c, err := container.InitWith(container.SharedOn[Cell](container.Heap{}), func(dst *Cell) error {
//	    return inst.InitCell(ctx, dst, 42)
//	})
//
// # Strategies
//
//	Owned     one heap allocation, one owner
//	Borrowed  caller-supplied slot, one owner
//	Local     heap allocation shared by a non-atomic count, one goroutine
//	Shared    heap allocation shared by an atomic count, any goroutine
//
// Owned and Borrowed implement Exclusive: access and move-out cannot fail.
// Local and Shared grant mutable access and move-out only to a handle that is
// the last one; otherwise the operation reports an error matching
// ErrNotUnique. A refused Local move-out leaves the handle usable. A refused
// Shared move-out consumes the handle, so if every handle attempts a
// move-out exactly one succeeds.
//
// # Moving values
//
// Values never change address while a container holds them. TryMoveOut hands
// the value's address to an action that takes over its fate; the container
// then frees its storage without destroying the value. Convert and Move
// combine a move-out with a relocation into storage from another allocator,
// using relocate.Of to pick the routine for T. A refused conversion leaves
// the source untouched, Shared handles included.
//
// Containers are consumed by Drop, a successful move-out or a successful
// conversion.
// Any use afterwards panics with a contract error, except Borrowed.Drop,
// which is a no-op once the value has left the slot.
package container
