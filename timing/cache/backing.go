package cache

import (
	"github.com/sarchlab/i386sim/emu"
)

// MemoryBacking wraps emu.Memory as a BackingStore. The emulator image
// is 32-bit addressed; accesses beyond its size are a caller error and
// fail the same way direct memory access does.
type MemoryBacking struct {
	memory *emu.Memory
}

// NewMemoryBacking creates a new MemoryBacking adapter.
func NewMemoryBacking(memory *emu.Memory) *MemoryBacking {
	return &MemoryBacking{memory: memory}
}

// Read fetches data from the backing memory.
func (m *MemoryBacking) Read(addr uint64, size int) []byte {
	data := make([]byte, size)
	for i := 0; i < size; i++ {
		data[i] = m.memory.Read8(uint32(addr) + uint32(i))
	}
	return data
}

// Write stores data to the backing memory.
func (m *MemoryBacking) Write(addr uint64, data []byte) {
	for i, b := range data {
		m.memory.Write8(uint32(addr)+uint32(i), b)
	}
}
