package emu

import (
	"fmt"

	"github.com/sarchlab/i386sim/insts"
)

// add rm32, r32 (0x01). Flags are not updated by this form in the
// implemented subset.
func (e *Emulator) addRM32R32() error {
	m, n, err := insts.ParseModRM(e.memory, e.regFile.EIP+1)
	if err != nil {
		return e.addrErr(err)
	}
	r32 := e.lsu.GetR32(m)
	rm32 := e.lsu.GetRM32(m)
	e.lsu.SetRM32(m, rm32+r32)
	e.regFile.EIP += 1 + n
	return nil
}

// cmp r32, rm32 (0x3B): flags from r32 - rm32; neither operand mutates.
func (e *Emulator) cmpR32RM32() error {
	m, n, err := insts.ParseModRM(e.memory, e.regFile.EIP+1)
	if err != nil {
		return e.addrErr(err)
	}
	r32 := e.lsu.GetR32(m)
	rm32 := e.lsu.GetRM32(m)
	e.alu.UpdateEflagsSub(r32, rm32, uint64(r32)-uint64(rm32))
	e.regFile.EIP += 1 + n
	return nil
}

// group83 dispatches opcode 0x83 (rm32 with sign-extended imm8) on the
// ModR/M sub-operation selector.
func (e *Emulator) group83() error {
	m, n, err := insts.ParseModRM(e.memory, e.regFile.EIP+1)
	if err != nil {
		return e.addrErr(err)
	}

	imm := uint32(int32(e.code.S8(1 + n)))
	rm32 := e.lsu.GetRM32(m)

	switch m.Opcode() {
	case 0: // add
		e.lsu.SetRM32(m, rm32+imm)
	case 5: // sub
		result := uint64(rm32) - uint64(imm)
		e.lsu.SetRM32(m, uint32(result))
		e.alu.UpdateEflagsSub(rm32, imm, result)
	case 7: // cmp
		e.alu.UpdateEflagsSub(rm32, imm, uint64(rm32)-uint64(imm))
	default:
		return fmt.Errorf(
			"unimplemented opcode 0x83 with ModR/M selector %d at EIP=0x%X",
			m.Opcode(), e.regFile.EIP)
	}

	e.regFile.EIP += 1 + n + 1
	return nil
}

// groupFF dispatches opcode 0xFF on the ModR/M sub-operation selector.
// Only inc rm32 (selector 0) is implemented.
func (e *Emulator) groupFF() error {
	m, n, err := insts.ParseModRM(e.memory, e.regFile.EIP+1)
	if err != nil {
		return e.addrErr(err)
	}

	switch m.Opcode() {
	case 0: // inc
		e.lsu.SetRM32(m, e.lsu.GetRM32(m)+1)
	default:
		return fmt.Errorf(
			"unimplemented opcode 0xFF with ModR/M selector %d at EIP=0x%X",
			m.Opcode(), e.regFile.EIP)
	}

	e.regFile.EIP += 1 + n
	return nil
}

// addrErr tags a ModR/M decode failure with the instruction pointer of
// the instruction that hit it.
func (e *Emulator) addrErr(err error) error {
	return fmt.Errorf("%w at EIP=0x%X", err, e.regFile.EIP)
}
