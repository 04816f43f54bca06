// Package emu provides functional 32-bit x86 emulation.
package emu

import "github.com/sarchlab/i386sim/insts"

// EFLAGS bit positions computed by this core. The remaining bits are
// reserved or owned by instructions outside the implemented subset.
const (
	FlagCarry    uint32 = 1 << 0
	FlagZero     uint32 = 1 << 6
	FlagSign     uint32 = 1 << 7
	FlagOverflow uint32 = 1 << 11
)

// GDTR is the global descriptor table register: a 16-bit limit and a
// 32-bit base. Present for completeness; no implemented instruction
// touches it.
type GDTR struct {
	Limit uint16
	Base  uint32
}

// RegFile represents the x86 register file: eight 32-bit general-purpose
// registers in encoding order, EFLAGS, the instruction pointer, and the
// segment/control state carried for the wider system.
type RegFile struct {
	// EFLAGS is the flags register. Only CF, ZF, SF and OF are computed
	// by the implemented instruction subset.
	EFLAGS uint32

	// Regs holds the general-purpose registers, indexed by insts.Register.
	Regs [insts.RegCount]uint32

	// SegRegs holds the segment registers, indexed by insts.SegmentRegister.
	SegRegs [insts.SegRegCount]uint16

	// CtrlRegs holds CR0-CR4, indexed by insts.ControlRegister.
	CtrlRegs [insts.CtrlRegCount]uint32

	// GDTR is the descriptor table register.
	GDTR GDTR

	// EIP always names the offset of the next byte to fetch from the
	// code stream. Every handler leaves it at the next instruction or
	// at the jump target.
	EIP uint32

	// Exception records a pending exception code. Delivery is owned by
	// the surrounding system.
	Exception uint8
}

// ReadReg reads a 32-bit general-purpose register.
func (r *RegFile) ReadReg(reg insts.Register) uint32 {
	return r.Regs[reg]
}

// WriteReg writes a 32-bit general-purpose register.
func (r *RegFile) WriteReg(reg insts.Register, value uint32) {
	r.Regs[reg] = value
}
