package emu

// jmp short (0xEB): 2 bytes, 8-bit signed offset from the end of the
// instruction.
func (e *Emulator) shortJump() error {
	offset := int32(e.code.S8(1))
	e.regFile.EIP += uint32(offset + 2)
	return nil
}

// jmp near (0xE9): 5 bytes, 32-bit signed offset.
func (e *Emulator) nearJump() error {
	diff := e.code.S32(1)
	e.regFile.EIP += uint32(diff + 5)
	return nil
}

// call rel32 (0xE8): pushes the address of the following instruction,
// then jumps by the 32-bit signed offset.
func (e *Emulator) callRel32() error {
	offset := e.code.S32(1)
	e.lsu.Push32(e.regFile.EIP + 5)
	e.regFile.EIP += uint32(offset + 5)
	return nil
}

// ret (0xC3): jumps to the address pushed by call.
func (e *Emulator) ret() error {
	e.regFile.EIP = e.lsu.Pop32()
	return nil
}

// shortJcc builds a 2-byte conditional-jump handler from a single-flag
// predicate. With negate set the jump is taken when the flag is clear.
func shortJcc(pred func(*ALU) bool, negate bool) instructionFn {
	return func(e *Emulator) error {
		var diff int32
		if pred(e.alu) != negate {
			diff = int32(e.code.S8(1))
		}
		e.regFile.EIP += uint32(diff + 2)
		return nil
	}
}

// nearJcc builds a 6-byte conditional-jump handler (0x0F 0x8x with a
// 32-bit offset) from a single-flag predicate.
func nearJcc(pred func(*ALU) bool, negate bool) instructionFn {
	return func(e *Emulator) error {
		var diff int32
		if pred(e.alu) != negate {
			diff = e.code.S32(2)
		}
		e.regFile.EIP += uint32(diff + 6)
		return nil
	}
}

// jl (0x7C): signed less, SF != OF.
func (e *Emulator) jlShort() error {
	var diff int32
	if e.alu.IsSign() != e.alu.IsOverflow() {
		diff = int32(e.code.S8(1))
	}
	e.regFile.EIP += uint32(diff + 2)
	return nil
}

// jle (0x7E): signed less or equal, ZF or SF != OF.
func (e *Emulator) jleShort() error {
	var diff int32
	if e.alu.IsZero() || e.alu.IsSign() != e.alu.IsOverflow() {
		diff = int32(e.code.S8(1))
	}
	e.regFile.EIP += uint32(diff + 2)
	return nil
}

// jna near (0x0F 0x86): unsigned not above, CF or ZF.
func (e *Emulator) jnaNear() error {
	var diff int32
	if e.alu.IsCarry() || e.alu.IsZero() {
		diff = e.code.S32(2)
	}
	e.regFile.EIP += uint32(diff + 6)
	return nil
}

// ja near (0x0F 0x87): unsigned above, neither CF nor ZF.
func (e *Emulator) jaNear() error {
	var diff int32
	if !e.alu.IsCarry() && !e.alu.IsZero() {
		diff = e.code.S32(2)
	}
	e.regFile.EIP += uint32(diff + 6)
	return nil
}

// jl near (0x0F 0x8C): signed less, SF != OF.
func (e *Emulator) jlNear() error {
	var diff int32
	if e.alu.IsSign() != e.alu.IsOverflow() {
		diff = e.code.S32(2)
	}
	e.regFile.EIP += uint32(diff + 6)
	return nil
}

// jge near (0x0F 0x8D): signed greater or equal, SF == OF.
func (e *Emulator) jgeNear() error {
	var diff int32
	if e.alu.IsSign() == e.alu.IsOverflow() {
		diff = e.code.S32(2)
	}
	e.regFile.EIP += uint32(diff + 6)
	return nil
}

// jle near (0x0F 0x8E): signed less or equal, ZF or SF != OF.
func (e *Emulator) jleNear() error {
	var diff int32
	if e.alu.IsZero() || e.alu.IsSign() != e.alu.IsOverflow() {
		diff = e.code.S32(2)
	}
	e.regFile.EIP += uint32(diff + 6)
	return nil
}

// jg near (0x0F 0x8F): signed greater, ZF clear and SF == OF.
func (e *Emulator) jgNear() error {
	var diff int32
	if !e.alu.IsZero() && e.alu.IsSign() == e.alu.IsOverflow() {
		diff = e.code.S32(2)
	}
	e.regFile.EIP += uint32(diff + 6)
	return nil
}
