package emu

import (
	"github.com/sarchlab/i386sim/insts"
)

// mov r32, imm32 (0xB8+r): 5 bytes. The destination register lives in the
// low 3 bits of the opcode.
func (e *Emulator) movR32Imm32() error {
	reg := insts.Register(e.code.U8(0) - 0xB8)
	value := e.code.U32(1)
	e.regFile.WriteReg(reg, value)
	e.regFile.EIP += 5
	return nil
}

// mov rm32, imm32 (0xC7): opcode + ModR/M + imm32.
func (e *Emulator) movRM32Imm32() error {
	m, n, err := insts.ParseModRM(e.memory, e.regFile.EIP+1)
	if err != nil {
		return e.addrErr(err)
	}
	value := e.code.U32(1 + n)
	e.lsu.SetRM32(m, value)
	e.regFile.EIP += 1 + n + 4
	return nil
}

// mov rm32, r32 (0x89): copies the REG register into the rm-operand.
func (e *Emulator) movRM32R32() error {
	m, n, err := insts.ParseModRM(e.memory, e.regFile.EIP+1)
	if err != nil {
		return e.addrErr(err)
	}
	e.lsu.SetRM32(m, e.lsu.GetR32(m))
	e.regFile.EIP += 1 + n
	return nil
}

// mov r32, rm32 (0x8B): copies the rm-operand into the REG register.
func (e *Emulator) movR32RM32() error {
	m, n, err := insts.ParseModRM(e.memory, e.regFile.EIP+1)
	if err != nil {
		return e.addrErr(err)
	}
	e.lsu.SetR32(m, e.lsu.GetRM32(m))
	e.regFile.EIP += 1 + n
	return nil
}

// push r32 (0x50+r): 1 byte.
func (e *Emulator) pushR32() error {
	reg := insts.Register(e.code.U8(0) - 0x50)
	e.lsu.Push32(e.regFile.ReadReg(reg))
	e.regFile.EIP++
	return nil
}

// push imm32 (0x68): 5 bytes.
func (e *Emulator) pushImm32() error {
	e.lsu.Push32(e.code.U32(1))
	e.regFile.EIP += 5
	return nil
}

// push imm8 (0x6A): 2 bytes. The immediate is zero-extended.
func (e *Emulator) pushImm8() error {
	e.lsu.Push32(uint32(e.code.U8(1)))
	e.regFile.EIP += 2
	return nil
}

// pop r32 (0x58+r): 1 byte.
func (e *Emulator) popR32() error {
	reg := insts.Register(e.code.U8(0) - 0x58)
	e.regFile.WriteReg(reg, e.lsu.Pop32())
	e.regFile.EIP++
	return nil
}

// leave (0xC9): mov esp, ebp then pop ebp.
func (e *Emulator) leave() error {
	e.regFile.WriteReg(insts.ESP, e.regFile.ReadReg(insts.EBP))
	e.regFile.WriteReg(insts.EBP, e.lsu.Pop32())
	e.regFile.EIP++
	return nil
}
