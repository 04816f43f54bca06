package emu

// ALU implements the arithmetic flags engine. Only the comparison flags
// the implemented subset needs are computed: carry, zero, sign and
// overflow. Parity and auxiliary carry are out of scope.
type ALU struct {
	regFile *RegFile
}

// NewALU creates an ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// UpdateEflagsSub sets CF, ZF, SF and OF from the subtraction v1 - v2,
// where result is that subtraction carried out in the 64-bit domain so
// the unsigned borrow survives in bit 32.
func (a *ALU) UpdateEflagsSub(v1, v2 uint32, result uint64) {
	sign1 := v1 >> 31
	sign2 := v2 >> 31
	signR := uint32(result>>31) & 1

	a.setFlag(FlagCarry, result>>32 != 0)
	a.setFlag(FlagZero, uint32(result) == 0)
	a.setFlag(FlagSign, signR == 1)
	a.setFlag(FlagOverflow, sign1 != sign2 && sign1 != signR)
}

// IsCarry reports the carry flag.
func (a *ALU) IsCarry() bool {
	return a.regFile.EFLAGS&FlagCarry != 0
}

// IsZero reports the zero flag.
func (a *ALU) IsZero() bool {
	return a.regFile.EFLAGS&FlagZero != 0
}

// IsSign reports the sign flag.
func (a *ALU) IsSign() bool {
	return a.regFile.EFLAGS&FlagSign != 0
}

// IsOverflow reports the overflow flag.
func (a *ALU) IsOverflow() bool {
	return a.regFile.EFLAGS&FlagOverflow != 0
}

func (a *ALU) setFlag(flag uint32, set bool) {
	if set {
		a.regFile.EFLAGS |= flag
	} else {
		a.regFile.EFLAGS &^= flag
	}
}
