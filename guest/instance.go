package guest

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/pinned-runtime/container"
	"github.com/wippyai/pinned-runtime/errors"
	"github.com/wippyai/pinned-runtime/guest/internal/module"
)

// Instance is one instantiated cell guest. Calls are serialized, so an
// Instance may be shared between goroutines.
type Instance struct {
	ctx      context.Context
	mod      api.Module
	memory   *Memory
	heap     container.Heap
	cfg      Config
	alloc    api.Function
	cellInit api.Function
	cellMove api.Function
	cellGet  api.Function
	cellAdd  api.Function
	cellDrop api.Function
	live     api.Function
	mu       sync.Mutex
}

func newInstance(ctx context.Context, mod api.Module, heap container.Heap, cfg Config) (*Instance, error) {
	i := &Instance{ctx: ctx, mod: mod, heap: heap, cfg: cfg}

	exports := []struct {
		name string
		fn   *api.Function
	}{
		{module.ExportAlloc, &i.alloc},
		{module.ExportCellInit, &i.cellInit},
		{module.ExportCellMove, &i.cellMove},
		{module.ExportCellGet, &i.cellGet},
		{module.ExportCellAdd, &i.cellAdd},
		{module.ExportCellDrop, &i.cellDrop},
		{module.ExportLive, &i.live},
	}
	for _, e := range exports {
		fn := mod.ExportedFunction(e.name)
		if fn == nil {
			return nil, errors.NotFound(errors.PhaseGuest, "export", e.name)
		}
		*e.fn = fn
	}

	i.memory = wrapMemory(mod.ExportedMemory("memory"))
	if i.memory == nil {
		return nil, errors.NotFound(errors.PhaseGuest, "export", "memory")
	}
	return i, nil
}

// Heap returns the container heap carrying the engine's lifecycle observer.
func (i *Instance) Heap() container.Heap {
	return i.heap
}

// Memory returns the guest's linear memory.
func (i *Instance) Memory() *Memory {
	return i.memory
}

func (i *Instance) call(ctx context.Context, fn api.Function, name string, params ...uint64) ([]uint64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.mod == nil {
		return nil, errors.Closed("instance")
	}
	results, err := fn.Call(ctx, params...)
	if err != nil {
		Logger().Warn("guest call failed", zap.String("func", name), zap.Error(err))
		return nil, errors.Trap(name, err)
	}
	return results, nil
}

// Alloc reserves size bytes of guest memory. Blocks are never reused.
func (i *Instance) Alloc(size, align uint32) (uint32, error) {
	return i.allocCtx(i.ctx, size, align)
}

func (i *Instance) allocCtx(ctx context.Context, size, align uint32) (uint32, error) {
	if align == 0 || align > module.CellAlign || align&(align-1) != 0 {
		return 0, errors.InvalidInput(errors.PhaseAllocate, "alignment must be a power of two no larger than 8")
	}
	res, err := i.call(ctx, i.alloc, module.ExportAlloc, uint64(size))
	if err != nil {
		return 0, err
	}
	ptr := uint32(res[0])
	if ptr == 0 {
		return 0, errors.AllocationFailed(errors.PhaseAllocate, size, align)
	}
	return ptr, nil
}

// InitCell creates a cell with the given activity at dst, which must be
// uninitialized storage owned by a container. A negative activity is
// rejected by the guest with a domain error and dst is left untouched.
func (i *Instance) InitCell(ctx context.Context, dst *Cell, activity int64) error {
	ptr, err := i.allocCtx(ctx, module.CellSize, module.CellAlign)
	if err != nil {
		return err
	}
	res, err := i.call(ctx, i.cellInit, module.ExportCellInit, uint64(ptr), api.EncodeI64(activity))
	if err != nil {
		return err
	}
	if status := uint32(res[0]); status != module.StatusOK {
		Logger().Debug("cell rejected", zap.Int64("activity", activity), zap.Uint32("status", status))
		return errors.Domain(module.ExportCellInit, status, activity)
	}
	dst.inst = i
	dst.ptr = ptr
	dst.Pin()
	return nil
}

// Live returns the number of cells initialized and not yet dropped in the guest.
func (i *Instance) Live(ctx context.Context) (int32, error) {
	res, err := i.call(ctx, i.live, module.ExportLive)
	if err != nil {
		return 0, err
	}
	return api.DecodeI32(res[0]), nil
}

// Close closes the guest module. Cells still owned by containers can no
// longer be read, and dropping them only logs.
func (i *Instance) Close(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.mod == nil {
		return nil
	}
	err := i.mod.Close(ctx)
	i.mod = nil
	return err
}
