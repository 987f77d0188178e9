// Package guest hosts a foreign component whose values cannot be copied byte
// for byte.
//
// The component is a small WebAssembly module run on wazero. It manages
// cells: 16-byte blocks of linear memory that store their own address next
// to an activity value. Every entry point checks the stored address, so a
// cell that was copied instead of moved is rejected by the guest itself.
//
// On the host a cell is represented by Cell, which embeds relocate.Pinned
// and implements relocate.Mover by asking the guest to move the cell, and
// relocate.Dropper by asking the guest to release it. Cells therefore live in
// any container strategy and survive conversions between them:
//
//	eng, _ := guest.NewEngine(ctx)
//	inst, _ := eng.Instantiate(ctx)
//
//	owned, err := guest.NewOwnedSource(ctx, inst, 1200)
//	if err != nil {
//	    return err // negative activities are domain errors
//	}
//	shared, err := guest.ConvertSource(owned, container.SharedOn[guest.Cell](inst.Heap()))
//
// Source is a thin facade generic over the container type, with the aliases
// OwnedSource, SharedSource, LocalSource and BorrowedSource.
//
// Configuration comes from Config, which can be loaded from YAML and
// PINNED_* environment variables with LoadConfig.
package guest
