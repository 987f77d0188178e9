package module

// ValType is a WebAssembly value type.
type ValType byte

const (
	I32 ValType = 0x7F
	I64 ValType = 0x7E
)

// Opcodes used by the guest.
const (
	opUnreachable byte = 0x00
	opIf          byte = 0x04
	opEnd         byte = 0x0B
	opReturn      byte = 0x0F
	opLocalGet    byte = 0x20
	opLocalSet    byte = 0x21
	opGlobalGet   byte = 0x23
	opGlobalSet   byte = 0x24
	opI32Load     byte = 0x28
	opI64Load     byte = 0x29
	opI32Store    byte = 0x36
	opI64Store    byte = 0x37
	opMemorySize  byte = 0x3F
	opMemoryGrow  byte = 0x40
	opI32Const    byte = 0x41
	opI64Const    byte = 0x42
	opI32Eq       byte = 0x46
	opI32Ne       byte = 0x47
	opI32LtU      byte = 0x49
	opI32GtU      byte = 0x4B
	opI64LtS      byte = 0x53
	opI32Add      byte = 0x6A
	opI32Sub      byte = 0x6B
	opI32And      byte = 0x71
	opI32Shl      byte = 0x74
	opI32ShrU     byte = 0x76
	opI64Add      byte = 0x7C

	blockVoid byte = 0x40
)

// Code assembles one function body. Methods chain.
type Code struct {
	w writer
}

func (c *Code) op(b byte) *Code {
	c.w.put(b)
	return c
}

func (c *Code) LocalGet(i uint32) *Code  { c.w.put(opLocalGet); c.w.u32(i); return c }
func (c *Code) LocalSet(i uint32) *Code  { c.w.put(opLocalSet); c.w.u32(i); return c }
func (c *Code) GlobalGet(i uint32) *Code { c.w.put(opGlobalGet); c.w.u32(i); return c }
func (c *Code) GlobalSet(i uint32) *Code { c.w.put(opGlobalSet); c.w.u32(i); return c }

func (c *Code) I32Const(v int32) *Code { c.w.put(opI32Const); c.w.s64(int64(v)); return c }
func (c *Code) I64Const(v int64) *Code { c.w.put(opI64Const); c.w.s64(v); return c }

// I32Load loads with natural alignment at the given static offset.
func (c *Code) I32Load(offset uint32) *Code  { return c.mem(opI32Load, 2, offset) }
func (c *Code) I64Load(offset uint32) *Code  { return c.mem(opI64Load, 3, offset) }
func (c *Code) I32Store(offset uint32) *Code { return c.mem(opI32Store, 2, offset) }
func (c *Code) I64Store(offset uint32) *Code { return c.mem(opI64Store, 3, offset) }

func (c *Code) mem(op byte, align, offset uint32) *Code {
	c.w.put(op)
	c.w.u32(align)
	c.w.u32(offset)
	return c
}

func (c *Code) MemorySize() *Code { c.w.put(opMemorySize); c.w.put(0); return c }
func (c *Code) MemoryGrow() *Code { c.w.put(opMemoryGrow); c.w.put(0); return c }

func (c *Code) I32Eq() *Code   { return c.op(opI32Eq) }
func (c *Code) I32Ne() *Code   { return c.op(opI32Ne) }
func (c *Code) I32LtU() *Code  { return c.op(opI32LtU) }
func (c *Code) I32GtU() *Code  { return c.op(opI32GtU) }
func (c *Code) I64LtS() *Code  { return c.op(opI64LtS) }
func (c *Code) I32Add() *Code  { return c.op(opI32Add) }
func (c *Code) I32Sub() *Code  { return c.op(opI32Sub) }
func (c *Code) I32And() *Code  { return c.op(opI32And) }
func (c *Code) I32Shl() *Code  { return c.op(opI32Shl) }
func (c *Code) I32ShrU() *Code { return c.op(opI32ShrU) }
func (c *Code) I64Add() *Code  { return c.op(opI64Add) }

func (c *Code) Unreachable() *Code { return c.op(opUnreachable) }
func (c *Code) Return() *Code      { return c.op(opReturn) }

// If opens a block without results that runs when the top of stack is non-zero.
func (c *Code) If() *Code  { c.w.put(opIf); c.w.put(blockVoid); return c }
func (c *Code) End() *Code { return c.op(opEnd) }

// Bytes returns the encoded instructions.
func (c *Code) Bytes() []byte {
	return c.w.data()
}
