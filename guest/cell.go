package guest

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/pinned-runtime/errors"
	"github.com/wippyai/pinned-runtime/guest/internal/module"
	"github.com/wippyai/pinned-runtime/relocate"
)

// Cell is the host-side view of a guest cell: a block of guest memory that
// stores its own address next to an activity value.
//
// A Cell must be created in place by Instance.InitCell, normally through a
// container, and moved only through RelocateFrom. The zero Cell is empty.
type Cell struct {
	relocate.Pinned
	inst *Instance
	ptr  uint32
}

// Ptr returns the cell's address in guest memory, or 0 for an empty cell.
func (c *Cell) Ptr() uint32 {
	return c.ptr
}

// Instance returns the guest instance holding the cell.
func (c *Cell) Instance() *Instance {
	return c.inst
}

// Empty reports whether the cell holds no guest value.
func (c *Cell) Empty() bool {
	return c.inst == nil
}

func (c *Cell) live() *Instance {
	if c.inst == nil {
		panic(errors.Contract(errors.PhaseAccess, "", "use of empty guest cell"))
	}
	c.CheckPinned()
	return c.inst
}

func corrupt(ptr uint32) *errors.Error {
	return errors.New(errors.PhaseGuest, errors.KindContract).
		GoType("guest.Cell").
		Value(ptr).
		Detail("cell at %#x does not reference itself", ptr).
		Build()
}

// Activity reads the cell's value.
func (c *Cell) Activity(ctx context.Context) (int64, error) {
	inst := c.live()
	res, err := inst.call(ctx, inst.cellGet, module.ExportCellGet, uint64(c.ptr))
	if err != nil {
		return 0, err
	}
	v := int64(res[0])
	if v < 0 {
		return 0, corrupt(c.ptr)
	}
	return v, nil
}

// Add changes the activity by delta. The guest refuses results below zero.
func (c *Cell) Add(ctx context.Context, delta int64) error {
	inst := c.live()
	res, err := inst.call(ctx, inst.cellAdd, module.ExportCellAdd, uint64(c.ptr), api.EncodeI64(delta))
	if err != nil {
		return err
	}
	switch status := uint32(res[0]); status {
	case module.StatusOK:
		return nil
	case module.StatusCorrupt:
		return corrupt(c.ptr)
	default:
		return errors.Domain(module.ExportCellAdd, status, delta)
	}
}

// Self reads the address the cell stores in guest memory.
func (c *Cell) Self() (uint32, error) {
	return c.live().memory.ReadU32(c.ptr + module.SelfOffset)
}

// RelocateFrom implements relocate.Mover. The guest moves the cell into a
// freshly allocated block and marks the old block as moved from.
// A relocation cannot fail; guest allocation failure or a trap panics.
func (c *Cell) RelocateFrom(src *Cell) {
	inst := src.live()
	ctx := inst.ctx

	ptr, err := inst.allocCtx(ctx, module.CellSize, module.CellAlign)
	if err != nil {
		panic(err)
	}
	if _, err := inst.call(ctx, inst.cellMove, module.ExportCellMove, uint64(ptr), uint64(src.ptr)); err != nil {
		panic(err)
	}

	c.inst = inst
	c.ptr = ptr
	c.Pin()

	src.inst = nil
	src.ptr = 0
	src.Unpin()
}

// Drop implements relocate.Dropper by releasing the cell in the guest.
// Failures are logged; an empty cell is left alone.
func (c *Cell) Drop() {
	if c.inst == nil {
		return
	}
	inst := c.live()
	if _, err := inst.call(inst.ctx, inst.cellDrop, module.ExportCellDrop, uint64(c.ptr)); err != nil {
		Logger().Error("drop guest cell", zap.Uint32("ptr", c.ptr), zap.Error(err))
	}
	c.inst = nil
	c.ptr = 0
	c.Unpin()
}

func (c *Cell) String() string {
	if c.inst == nil {
		return "cell(empty)"
	}
	v, err := c.Activity(c.inst.ctx)
	if err != nil {
		return fmt.Sprintf("cell@%#x(invalid)", c.ptr)
	}
	return fmt.Sprintf("cell@%#x(%d)", c.ptr, v)
}
