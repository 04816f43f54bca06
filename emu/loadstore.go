package emu

import "github.com/sarchlab/i386sim/insts"

// LoadStoreUnit resolves ModR/M operands against the register file and
// memory, and implements the 32-bit stack operations through ESP.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  *Memory
}

// NewLoadStoreUnit creates a LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

// EffectiveAddress computes the memory address named by a ModR/M
// descriptor under the memory addressing modes. The base register is read
// at call time; callers must resolve the address before mutating any
// register the descriptor names.
func (l *LoadStoreUnit) EffectiveAddress(m insts.ModRM) uint32 {
	base := l.regFile.ReadReg(m.Base())
	return base + uint32(m.Disp)
}

// GetRM32 reads the rm-operand: the register named by RM under
// register-direct mode, a 32-bit memory read at the effective address
// otherwise.
func (l *LoadStoreUnit) GetRM32(m insts.ModRM) uint32 {
	if m.Mod == insts.ModRegDirect {
		return l.regFile.ReadReg(insts.Register(m.RM))
	}
	return l.memory.Read32(l.EffectiveAddress(m))
}

// SetRM32 writes the rm-operand.
func (l *LoadStoreUnit) SetRM32(m insts.ModRM, value uint32) {
	if m.Mod == insts.ModRegDirect {
		l.regFile.WriteReg(insts.Register(m.RM), value)
		return
	}
	l.memory.Write32(l.EffectiveAddress(m), value)
}

// GetR32 reads the register named by the REG field.
func (l *LoadStoreUnit) GetR32(m insts.ModRM) uint32 {
	return l.regFile.ReadReg(m.Reg())
}

// SetR32 writes the register named by the REG field.
func (l *LoadStoreUnit) SetR32(m insts.ModRM, value uint32) {
	l.regFile.WriteReg(m.Reg(), value)
}

// Push32 stores value at ESP-4 and decrements ESP by 4.
func (l *LoadStoreUnit) Push32(value uint32) {
	sp := l.regFile.ReadReg(insts.ESP) - 4
	l.regFile.WriteReg(insts.ESP, sp)
	l.memory.Write32(sp, value)
}

// Pop32 reads the value at ESP and increments ESP by 4.
func (l *LoadStoreUnit) Pop32() uint32 {
	sp := l.regFile.ReadReg(insts.ESP)
	value := l.memory.Read32(sp)
	l.regFile.WriteReg(insts.ESP, sp+4)
	return value
}
