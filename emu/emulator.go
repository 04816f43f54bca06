package emu

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/i386sim/insts"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true if the program terminated (EIP reached 0, the
	// return-to-zero convention of the boot-image driver).
	Halted bool

	// Err is set if an error occurred during execution. Execution must
	// not continue past an error: the failing instruction has unknown
	// semantics.
	Err error
}

// instructionFn executes one instruction. The code stream is positioned
// at the opcode byte; the handler leaves EIP at the next instruction or
// at the jump target.
type instructionFn func(e *Emulator) error

// Emulator executes 32-bit x86 instructions functionally.
type Emulator struct {
	regFile *RegFile
	memory  *Memory

	// Execution units
	code *CodeStream
	alu  *ALU
	lsu  *LoadStoreUnit

	// Dispatch tables. A nil entry means the encoding is unimplemented,
	// which is fatal for the run. twoByte is keyed by the byte following
	// the 0x0F escape.
	table   [256]instructionFn
	twoByte [256]instructionFn

	stderr io.Writer

	// Execution state
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithStderr sets a custom stderr writer.
func WithStderr(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stderr = w
	}
}

// WithStackPointer sets the initial ESP value.
func WithStackPointer(esp uint32) EmulatorOption {
	return func(e *Emulator) {
		e.regFile.WriteReg(insts.ESP, esp)
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates a new x86 emulator with the dispatch tables
// populated.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	regFile := &RegFile{}
	memory := NewMemory()

	e := &Emulator{
		regFile: regFile,
		memory:  memory,
		stderr:  os.Stderr,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.code = NewCodeStream(regFile, memory)
	e.alu = NewALU(regFile)
	e.lsu = NewLoadStoreUnit(regFile, memory)
	e.initInstructions()

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// LoadProgram loads a program into memory and sets the entry point.
// The program can be either a []byte or a *Memory.
func (e *Emulator) LoadProgram(entry uint32, program interface{}) {
	switch p := program.(type) {
	case []byte:
		e.memory.LoadProgram(entry, p)
	case *Memory:
		e.memory = p
		// Rebind execution units to the new memory
		e.code = NewCodeStream(e.regFile, e.memory)
		e.lsu = NewLoadStoreUnit(e.regFile, e.memory)
	}
	e.regFile.EIP = entry
}

// Reset resets the emulator to its initial state. The dispatch tables
// survive a reset.
func (e *Emulator) Reset() {
	e.regFile = &RegFile{}
	e.memory = NewMemory()
	e.instructionCount = 0

	e.code = NewCodeStream(e.regFile, e.memory)
	e.alu = NewALU(e.regFile)
	e.lsu = NewLoadStoreUnit(e.regFile, e.memory)
}

// Step executes a single instruction. The opcode byte is fetched at EIP;
// on return EIP names the next instruction or the transfer target.
func (e *Emulator) Step() StepResult {
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{
			Err: fmt.Errorf("max instructions reached"),
		}
	}

	opcode := e.code.U8(0)
	fn := e.table[opcode]
	if fn == nil {
		return StepResult{
			Err: fmt.Errorf("unimplemented opcode 0x%02X at EIP=0x%X",
				opcode, e.regFile.EIP),
		}
	}

	if err := fn(e); err != nil {
		return StepResult{Err: err}
	}

	e.instructionCount++

	if e.regFile.EIP == 0 {
		return StepResult{Halted: true}
	}
	return StepResult{}
}

// Run executes instructions until the program halts or an error occurs.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Halted {
			return nil
		}
		if result.Err != nil {
			_, _ = fmt.Fprintf(e.stderr, "Emulation error: %v\n", result.Err)
			return result.Err
		}
	}
}

// executeTwoByte dispatches the instruction following the 0x0F escape on
// its second opcode byte.
func (e *Emulator) executeTwoByte() error {
	op2 := e.code.U8(1)
	fn := e.twoByte[op2]
	if fn == nil {
		return fmt.Errorf("unimplemented opcode 0x0F 0x%02X at EIP=0x%X",
			op2, e.regFile.EIP)
	}
	return fn(e)
}

// initInstructions populates the dispatch tables. It is idempotent and
// runs before the first dispatch.
func (e *Emulator) initInstructions() {
	e.table[0x01] = (*Emulator).addRM32R32
	e.table[0x3B] = (*Emulator).cmpR32RM32

	// Opcodes 0x50-0x57 and 0x58-0x5F encode the register in their
	// low 3 bits.
	for i := 0; i < 8; i++ {
		e.table[0x50+i] = (*Emulator).pushR32
		e.table[0x58+i] = (*Emulator).popR32
	}

	e.table[0x68] = (*Emulator).pushImm32
	e.table[0x6A] = (*Emulator).pushImm8

	e.table[0x70] = shortJcc((*ALU).IsOverflow, false)
	e.table[0x71] = shortJcc((*ALU).IsOverflow, true)
	e.table[0x72] = shortJcc((*ALU).IsCarry, false)
	e.table[0x73] = shortJcc((*ALU).IsCarry, true)
	e.table[0x74] = shortJcc((*ALU).IsZero, false)
	e.table[0x75] = shortJcc((*ALU).IsZero, true)
	e.table[0x78] = shortJcc((*ALU).IsSign, false)
	e.table[0x79] = shortJcc((*ALU).IsSign, true)
	e.table[0x7C] = (*Emulator).jlShort
	e.table[0x7E] = (*Emulator).jleShort

	e.table[0x83] = (*Emulator).group83
	e.table[0x89] = (*Emulator).movRM32R32
	e.table[0x8B] = (*Emulator).movR32RM32

	// Opcodes 0xB8-0xBF encode the destination register.
	for i := 0; i < 8; i++ {
		e.table[0xB8+i] = (*Emulator).movR32Imm32
	}

	e.table[0xC3] = (*Emulator).ret
	e.table[0xC7] = (*Emulator).movRM32Imm32
	e.table[0xC9] = (*Emulator).leave
	e.table[0xE8] = (*Emulator).callRel32
	e.table[0xE9] = (*Emulator).nearJump
	e.table[0xEB] = (*Emulator).shortJump
	e.table[0xFF] = (*Emulator).groupFF

	e.table[0x0F] = (*Emulator).executeTwoByte

	e.twoByte[0x80] = nearJcc((*ALU).IsOverflow, false)
	e.twoByte[0x81] = nearJcc((*ALU).IsOverflow, true)
	e.twoByte[0x82] = nearJcc((*ALU).IsCarry, false)
	e.twoByte[0x83] = nearJcc((*ALU).IsCarry, true)
	e.twoByte[0x84] = nearJcc((*ALU).IsZero, false)
	e.twoByte[0x85] = nearJcc((*ALU).IsZero, true)
	e.twoByte[0x86] = (*Emulator).jnaNear
	e.twoByte[0x87] = (*Emulator).jaNear
	e.twoByte[0x88] = nearJcc((*ALU).IsSign, false)
	e.twoByte[0x89] = nearJcc((*ALU).IsSign, true)
	e.twoByte[0x8C] = (*Emulator).jlNear
	e.twoByte[0x8D] = (*Emulator).jgeNear
	e.twoByte[0x8E] = (*Emulator).jleNear
	e.twoByte[0x8F] = (*Emulator).jgNear
}

var _ insts.ByteReader = (*Memory)(nil)
