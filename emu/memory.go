package emu

import "fmt"

// DefaultMemorySize is the size of the simulated address space: 1 MiB,
// enough for the boot-image convention where code and stack both live
// below 0x100000.
const DefaultMemorySize = 1 << 20

// Memory is the flat byte-addressable image shared by the code stream,
// the stack, and ModR/M memory operands. Multi-byte accesses are
// little-endian.
//
// Addresses outside the image are a caller error, not an emulated fault:
// they fail with an explicit panic rather than wrapping or returning a
// default.
type Memory struct {
	data []byte
}

// NewMemory creates a memory image of DefaultMemorySize bytes.
func NewMemory() *Memory {
	return NewMemorySized(DefaultMemorySize)
}

// NewMemorySized creates a memory image of the given size in bytes.
func NewMemorySized(size uint32) *Memory {
	return &Memory{data: make([]byte, size)}
}

// Size returns the size of the image in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.data))
}

// Read8 reads one byte.
func (m *Memory) Read8(addr uint32) uint8 {
	m.check(addr, 1)
	return m.data[addr]
}

// Write8 writes one byte.
func (m *Memory) Write8(addr uint32, value uint8) {
	m.check(addr, 1)
	m.data[addr] = value
}

// Read32 reads a little-endian 32-bit value.
func (m *Memory) Read32(addr uint32) uint32 {
	m.check(addr, 4)
	var v uint32
	for i := uint32(0); i < 4; i++ {
		v |= uint32(m.data[addr+i]) << (i * 8)
	}
	return v
}

// Write32 writes a little-endian 32-bit value.
func (m *Memory) Write32(addr uint32, value uint32) {
	m.check(addr, 4)
	for i := uint32(0); i < 4; i++ {
		m.data[addr+i] = uint8(value >> (i * 8))
	}
}

// LoadProgram copies a program image into memory starting at addr.
func (m *Memory) LoadProgram(addr uint32, program []byte) {
	m.check(addr, uint32(len(program)))
	copy(m.data[addr:], program)
}

func (m *Memory) check(addr, n uint32) {
	if uint64(addr)+uint64(n) > uint64(len(m.data)) {
		panic(fmt.Sprintf(
			"memory access out of range: addr=0x%X size=%d image=%d bytes",
			addr, n, len(m.data)))
	}
}
