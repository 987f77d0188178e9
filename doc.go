// Package pinnedruntime manages values that must not be copied byte for byte
// behind interchangeable ownership strategies.
//
// A value defined by a foreign component may store its own address. Moving it
// with a plain copy leaves the copy pointing at the old location. This module
// keeps such values at a stable address while they are owned, and moves them
// only through an explicit relocation routine.
//
// # Architecture Overview
//
//	pinnedruntime/       Root package with the foreign Memory and Allocator interfaces
//	├── container/       Owned, Borrowed, Local and Shared containers, conversion
//	├── relocate/        Relocation routines, destructor hook, Pinned marker
//	├── lifecycle/       Container events, ledger, Prometheus metrics, zap observer
//	├── guest/           wazero-hosted foreign component whose cells reference themselves
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Keep a value in a shared container and extract it from the last handle:
//
//	a := container.NewShared(42)
//	b := a.Clone()
//
//	if _, err := container.Take[int](a); errors.Is(err, container.ErrNotUnique) {
//	    // a is gone, b is now the only handle
//	}
//	v, _ := container.Take[int](b) // 42
//
// Host a foreign cell and move it between strategies:
//
//	eng, err := guest.NewEngine(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close(ctx)
//
//	inst, err := eng.Instantiate(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	src, err := guest.NewOwnedSource(ctx, inst, 1200)
//	shared, err := guest.ConvertSource(src, container.SharedOn[guest.Cell](inst.Heap()))
//
// # Thread Safety
//
// Shared handles may be used from different goroutines, one goroutine per
// handle. Owned, Borrowed and Local containers belong to a single goroutine.
// A guest Instance serializes its calls and is safe for concurrent use.
//
// # Memory Model
//
// Containers allocate from the Go heap, whose objects never move, so a value's
// address is stable until it is moved out. Guest cells live in WASM linear
// memory, which only grows; relocating a cell allocates a new block and the
// old one is not reused.
package pinnedruntime
