package pinnedruntime

// Memory represents foreign linear memory
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer provides the current size of foreign linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator allocates blocks in foreign linear memory. Blocks are released
// by the foreign component itself.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
}
