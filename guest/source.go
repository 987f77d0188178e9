package guest

import (
	"context"

	"github.com/wippyai/pinned-runtime/container"
	"github.com/wippyai/pinned-runtime/errors"
)

// Source is a guest cell held by a container of type C. The choice of C
// decides how the cell may be shared; the aliases below name the four
// strategies.
type Source[C container.Container[Cell]] struct {
	c C
}

type (
	// OwnedSource owns its cell exclusively.
	OwnedSource = Source[*container.Owned[Cell]]
	// SharedSource shares its cell across goroutines.
	SharedSource = Source[*container.Shared[Cell]]
	// LocalSource shares its cell within one goroutine.
	LocalSource = Source[*container.Local[Cell]]
	// BorrowedSource keeps its cell in caller-supplied storage.
	BorrowedSource = Source[*container.Borrowed[Cell]]
)

// NewSource creates a cell with the given activity in storage from alloc.
// A negative activity yields a domain error and no container.
func NewSource[C container.Container[Cell]](ctx context.Context, inst *Instance, alloc container.Allocator[Cell, C], activity int64) (Source[C], error) {
	c, err := container.InitWith(alloc, func(dst *Cell) error {
		return inst.InitCell(ctx, dst, activity)
	})
	if err != nil {
		return Source[C]{}, err
	}
	return Source[C]{c: c}, nil
}

// NewOwnedSource creates an OwnedSource on the instance heap.
func NewOwnedSource(ctx context.Context, inst *Instance, activity int64) (OwnedSource, error) {
	return NewSource(ctx, inst, container.OwnedOn[Cell](inst.Heap()), activity)
}

// NewSharedSource creates a SharedSource on the instance heap.
func NewSharedSource(ctx context.Context, inst *Instance, activity int64) (SharedSource, error) {
	return NewSource(ctx, inst, container.SharedOn[Cell](inst.Heap()), activity)
}

// NewLocalSource creates a LocalSource on the instance heap.
func NewLocalSource(ctx context.Context, inst *Instance, activity int64) (LocalSource, error) {
	return NewSource(ctx, inst, container.LocalOn[Cell](inst.Heap()), activity)
}

// NewBorrowedSource creates a BorrowedSource in slot.
func NewBorrowedSource(ctx context.Context, inst *Instance, slot *Cell, activity int64) (BorrowedSource, error) {
	return NewSource(ctx, inst, container.BorrowedIn(slot).Observe(inst.Heap()), activity)
}

// SourceOf wraps an existing container.
func SourceOf[C container.Container[Cell]](c C) Source[C] {
	return Source[C]{c: c}
}

// CloneShared returns another handle to the same cell.
func CloneShared(s SharedSource) SharedSource {
	return SourceOf(s.c.Clone())
}

// CloneLocal returns another handle to the same cell.
func CloneLocal(s LocalSource) LocalSource {
	return SourceOf(s.c.Clone())
}

// Container returns the underlying container.
func (s Source[C]) Container() C {
	return s.c
}

// Cell returns the cell for reading.
func (s Source[C]) Cell() *Cell {
	return s.c.Get()
}

// Activity reads the cell's activity.
func (s Source[C]) Activity(ctx context.Context) (int64, error) {
	return s.c.Get().Activity(ctx)
}

// Decay lowers the activity by amount. It needs exclusive access and fails
// with an error matching container.ErrNotUnique while the cell is shared.
func (s Source[C]) Decay(ctx context.Context, amount int64) error {
	if amount < 0 {
		return errors.InvalidInput(errors.PhaseAccess, "decay amount must not be negative")
	}
	cell, ok := s.c.TryInner()
	if !ok {
		return errors.New(errors.PhaseAccess, errors.KindNotUnique).
			Strategy(string(s.c.Strategy())).
			GoType("guest.Cell").
			Detail("cell is shared").
			Build()
	}
	return cell.Add(ctx, -amount)
}

// Take moves the cell out, releases it in the guest and returns its final
// activity. For a shared source the handle is consumed even when the error
// matches container.ErrNotUnique.
func (s Source[C]) Take(ctx context.Context) (int64, error) {
	var (
		activity int64
		readErr  error
	)
	err := s.c.TryMoveOut(func(src *Cell) {
		activity, readErr = src.Activity(ctx)
		src.Drop()
	})
	if err != nil {
		return 0, err
	}
	return activity, readErr
}

// Close drops the container.
func (s Source[C]) Close() {
	s.c.Drop()
}

// ConvertSource moves the cell of s into storage from alloc. The guest
// relocates the cell, so its self-reference stays valid.
func ConvertSource[C container.Container[Cell], D container.Container[Cell]](s Source[C], alloc container.Allocator[Cell, D]) (Source[D], error) {
	d, err := container.Convert[Cell](s.c, alloc)
	if err != nil {
		return Source[D]{}, err
	}
	return Source[D]{c: d}, nil
}
