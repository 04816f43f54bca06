package insts

import "fmt"

// ByteReader reads single bytes from the code stream. The emulator memory
// satisfies it.
type ByteReader interface {
	Read8(addr uint32) uint8
}

// Addressing modes held in the Mod field of a ModR/M byte.
const (
	ModIndirect  uint8 = 0 // memory operand, no displacement
	ModDisp8     uint8 = 1 // memory operand, 8-bit signed displacement
	ModDisp32    uint8 = 2 // memory operand, 32-bit displacement
	ModRegDirect uint8 = 3 // register operand
)

// ModRM is the decoded form of a ModR/M byte and its trailing displacement.
// It is ephemeral: produced and consumed within a single instruction.
type ModRM struct {
	// Mod is the 2-bit addressing mode.
	Mod uint8

	// regOpcode is the middle 3-bit field. It is either a register
	// selector or, for group opcodes, a sub-operation selector; use Reg
	// or Opcode depending on which interpretation the opcode calls for.
	regOpcode uint8

	// RM is the 3-bit register/memory selector.
	RM uint8

	// Disp is the resolved displacement: the sign-extended disp8 under
	// ModDisp8, the raw disp32 under ModDisp32, zero otherwise.
	Disp int32
}

// Reg returns the middle field interpreted as a register selector.
func (m ModRM) Reg() Register {
	return Register(m.regOpcode)
}

// Opcode returns the middle field interpreted as a group sub-operation
// selector.
func (m ModRM) Opcode() uint8 {
	return m.regOpcode
}

// Base returns the base register selected by the RM field under the memory
// addressing modes.
func (m ModRM) Base() Register {
	return Register(m.RM)
}

// ParseModRM decodes the ModR/M byte at addr and any trailing displacement.
// It returns the descriptor and the number of code bytes consumed.
//
// Two memory forms of the 32-bit encoding are outside the implemented
// subset and are rejected rather than decoded to a wrong address: RM=100
// (requires a SIB byte) and Mod=00 RM=101 (displacement-only, no base).
func ParseModRM(code ByteReader, addr uint32) (ModRM, uint32, error) {
	b := code.Read8(addr)

	m := ModRM{
		Mod:       b >> 6,
		regOpcode: (b >> 3) & 0x7,
		RM:        b & 0x7,
	}

	if m.Mod != ModRegDirect && m.RM == 4 {
		return ModRM{}, 0, fmt.Errorf(
			"unsupported ModR/M 0x%02X: SIB addressing (mod=%d rm=4)", b, m.Mod)
	}
	if m.Mod == ModIndirect && m.RM == 5 {
		return ModRM{}, 0, fmt.Errorf(
			"unsupported ModR/M 0x%02X: disp32-only addressing (mod=0 rm=5)", b)
	}

	consumed := uint32(1)
	switch m.Mod {
	case ModDisp8:
		m.Disp = int32(int8(code.Read8(addr + 1)))
		consumed++
	case ModDisp32:
		m.Disp = int32(read32(code, addr+1))
		consumed += 4
	}

	return m, consumed, nil
}

// read32 assembles a little-endian 32-bit value from the code stream.
func read32(code ByteReader, addr uint32) uint32 {
	var v uint32
	for i := uint32(0); i < 4; i++ {
		v |= uint32(code.Read8(addr+i)) << (i * 8)
	}
	return v
}
