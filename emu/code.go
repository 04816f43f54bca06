package emu

// CodeStream fetches encoded operand bytes from memory relative to the
// current instruction pointer. All reads are side-effect free; handlers
// advance EIP themselves after summing the lengths they consumed.
type CodeStream struct {
	regFile *RegFile
	memory  *Memory
}

// NewCodeStream creates a CodeStream over the given register file and
// memory.
func NewCodeStream(regFile *RegFile, memory *Memory) *CodeStream {
	return &CodeStream{
		regFile: regFile,
		memory:  memory,
	}
}

// U8 fetches the unsigned byte at EIP+offset.
func (c *CodeStream) U8(offset uint32) uint8 {
	return c.memory.Read8(c.regFile.EIP + offset)
}

// S8 fetches the byte at EIP+offset as a signed value.
func (c *CodeStream) S8(offset uint32) int8 {
	return int8(c.U8(offset))
}

// U32 fetches the unsigned little-endian 32-bit value at EIP+offset.
func (c *CodeStream) U32(offset uint32) uint32 {
	return c.memory.Read32(c.regFile.EIP + offset)
}

// S32 fetches the little-endian 32-bit value at EIP+offset as a signed
// value.
func (c *CodeStream) S32(offset uint32) int32 {
	return int32(c.U32(offset))
}
