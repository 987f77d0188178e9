package module

// Export names of the cell guest.
const (
	ExportAlloc    = "alloc"
	ExportCellInit = "cell_init"
	ExportCellMove = "cell_move"
	ExportCellGet  = "cell_get"
	ExportCellAdd  = "cell_add"
	ExportCellDrop = "cell_drop"
	ExportLive     = "live"
)

// Cell layout in guest memory.
const (
	CellSize   = 16
	CellAlign  = 8
	SelfOffset = 0
	ValOffset  = 8

	// HeapBase is the first address alloc hands out.
	HeapBase = 1024
)

// Status codes returned by cell_init and cell_add.
const (
	StatusOK      = 0
	StatusDomain  = 1
	StatusCorrupt = 2
)

const (
	globalHeap = 0
	globalLive = 1
)

// Cells returns the cell guest. A cell stores its own address next to a
// non-negative activity value; every entry point except cell_init checks
// that the stored address matches, so a cell copied byte for byte is
// rejected.
//
//	alloc(size i32) -> i32           bump allocation aligned to 8, 0 when memory cannot grow or the address space is exhausted
//	cell_init(dst i32, v i64) -> i32 status 1 for negative v
//	cell_move(dst i32, src i32)      traps if src is corrupt
//	cell_get(ptr i32) -> i64         -1 if corrupt
//	cell_add(ptr i32, d i64) -> i32  status 1 if the result is negative, 2 if corrupt
//	cell_drop(ptr i32)               traps if corrupt
//	live() -> i32                    initialized minus dropped cells
func Cells(initialPages uint32) []byte {
	m := &Module{
		InitialPages: initialPages,
		Globals:      []Global{{Init: HeapBase}, {Init: 0}},
		Funcs: []Func{
			{Name: ExportAlloc, Params: []ValType{I32}, Results: []ValType{I32}, Locals: []ValType{I32, I32, I32}, Body: allocBody()},
			{Name: ExportCellInit, Params: []ValType{I32, I64}, Results: []ValType{I32}, Body: cellInitBody()},
			{Name: ExportCellMove, Params: []ValType{I32, I32}, Body: cellMoveBody()},
			{Name: ExportCellGet, Params: []ValType{I32}, Results: []ValType{I64}, Body: cellGetBody()},
			{Name: ExportCellAdd, Params: []ValType{I32, I64}, Results: []ValType{I32}, Locals: []ValType{I64}, Body: cellAddBody()},
			{Name: ExportCellDrop, Params: []ValType{I32}, Body: cellDropBody()},
			{Name: ExportLive, Results: []ValType{I32}, Body: new(Code).GlobalGet(globalLive)},
		},
	}
	return m.Encode()
}

// checkSelf leaves 1 on the stack when the cell at local 0 does not store
// its own address.
func checkSelf(c *Code) *Code {
	return c.LocalGet(0).I32Load(SelfOffset).LocalGet(0).I32Ne()
}

func allocBody() *Code {
	c := new(Code)
	// locals: 0 size, 1 p, 2 end, 3 pages
	c.GlobalGet(globalHeap).I32Const(CellAlign - 1).I32Add().I32Const(-CellAlign).I32And().LocalSet(1)
	c.LocalGet(1).GlobalGet(globalHeap).I32LtU().If().I32Const(0).Return().End()
	c.LocalGet(1).LocalGet(0).I32Add().LocalSet(2)
	c.LocalGet(2).LocalGet(1).I32LtU().If().I32Const(0).Return().End()
	// pages = ceil(end / 64KiB)
	c.LocalGet(2).I32Const(16).I32ShrU().
		LocalGet(2).I32Const(0xFFFF).I32And().I32Const(0).I32Ne().
		I32Add().LocalSet(3)
	c.LocalGet(3).MemorySize().I32GtU().If()
	c.LocalGet(3).MemorySize().I32Sub().MemoryGrow().I32Const(-1).I32Eq().If()
	c.I32Const(0).Return()
	c.End()
	c.End()
	c.LocalGet(2).GlobalSet(globalHeap)
	c.LocalGet(1)
	return c
}

func cellInitBody() *Code {
	c := new(Code)
	c.LocalGet(1).I64Const(0).I64LtS().If().I32Const(StatusDomain).Return().End()
	c.LocalGet(0).LocalGet(0).I32Store(SelfOffset)
	c.LocalGet(0).LocalGet(1).I64Store(ValOffset)
	c.GlobalGet(globalLive).I32Const(1).I32Add().GlobalSet(globalLive)
	c.I32Const(StatusOK)
	return c
}

func cellMoveBody() *Code {
	c := new(Code)
	// src is local 1
	c.LocalGet(1).I32Load(SelfOffset).LocalGet(1).I32Ne().If().Unreachable().End()
	c.LocalGet(0).LocalGet(0).I32Store(SelfOffset)
	c.LocalGet(0).LocalGet(1).I64Load(ValOffset).I64Store(ValOffset)
	c.LocalGet(1).I32Const(0).I32Store(SelfOffset)
	return c
}

func cellGetBody() *Code {
	c := new(Code)
	checkSelf(c).If().I64Const(-1).Return().End()
	c.LocalGet(0).I64Load(ValOffset)
	return c
}

func cellAddBody() *Code {
	c := new(Code)
	checkSelf(c).If().I32Const(StatusCorrupt).Return().End()
	c.LocalGet(0).I64Load(ValOffset).LocalGet(1).I64Add().LocalSet(2)
	c.LocalGet(2).I64Const(0).I64LtS().If().I32Const(StatusDomain).Return().End()
	c.LocalGet(0).LocalGet(2).I64Store(ValOffset)
	c.I32Const(StatusOK)
	return c
}

func cellDropBody() *Code {
	c := new(Code)
	checkSelf(c).If().Unreachable().End()
	c.LocalGet(0).I32Const(0).I32Store(SelfOffset)
	c.GlobalGet(globalLive).I32Const(1).I32Sub().GlobalSet(globalLive)
	return c
}
