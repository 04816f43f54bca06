// Package insts provides x86 instruction definitions and decoding.
package insts

// Register names a 32-bit general-purpose register. The numeric order
// matches the 3-bit register selector used by the instruction encoding
// (REG and RM fields of the ModR/M byte, and the low bits of the
// register-encoded opcodes such as 0xB8+r).
type Register uint8

// 32-bit general-purpose registers in encoding order.
const (
	EAX Register = iota
	ECX
	EDX
	EBX
	ESP
	EBP
	ESI
	EDI
	RegCount
)

// 8-bit sub-register aliases. The low-byte registers share the index of
// their 32-bit parent; the high-byte registers sit 4 above. Declared for
// completeness of the register model; no 32-bit handler uses them.
const (
	AL = EAX
	CL = ECX
	DL = EDX
	BL = EBX
	AH = AL + 4
	CH = CL + 4
	DH = DL + 4
	BH = BL + 4
)

var registerNames = [RegCount]string{
	"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi",
}

// String returns the conventional lower-case register mnemonic.
func (r Register) String() string {
	if r < RegCount {
		return registerNames[r]
	}
	return "r?"
}

// SegmentRegister names a 16-bit segment register.
type SegmentRegister uint8

// Segment registers in encoding order.
const (
	ES SegmentRegister = iota
	CS
	SS
	DS
	FS
	GS
	SegRegCount
)

// ControlRegister names a control register.
type ControlRegister uint8

// Control registers CR0-CR4.
const (
	CR0 ControlRegister = iota
	CR1
	CR2
	CR3
	CR4
	CtrlRegCount
)

// Class groups opcodes by execution resource. The timing model charges
// latency per class.
type Class uint8

// Instruction classes.
const (
	ClassUnknown Class = iota
	ClassALU           // add, sub, cmp, inc
	ClassMove          // register/immediate/memory moves
	ClassStack         // push, pop, leave
	ClassBranch        // jmp and conditional jumps
	ClassCall          // call
	ClassRet           // ret
	ClassEscape        // 0x0F two-byte escape
)

// Classify maps an opcode byte to its instruction class. Opcodes outside
// the implemented subset classify as ClassUnknown.
func Classify(op uint8) Class {
	switch {
	case op == 0x01 || op == 0x3B || op == 0x83 || op == 0xFF:
		return ClassALU
	case op >= 0xB8 && op <= 0xBF:
		return ClassMove
	case op == 0x89 || op == 0x8B || op == 0xC7:
		return ClassMove
	case op >= 0x50 && op <= 0x5F:
		return ClassStack
	case op == 0x68 || op == 0x6A || op == 0xC9:
		return ClassStack
	case op == 0xE9 || op == 0xEB:
		return ClassBranch
	case op >= 0x70 && op <= 0x7F:
		return ClassBranch
	case op == 0xE8:
		return ClassCall
	case op == 0xC3:
		return ClassRet
	case op == 0x0F:
		return ClassEscape
	default:
		return ClassUnknown
	}
}

// HasModRM reports whether the opcode is followed by a ModR/M byte in the
// implemented subset.
func HasModRM(op uint8) bool {
	switch op {
	case 0x01, 0x3B, 0x83, 0x89, 0x8B, 0xC7, 0xFF:
		return true
	default:
		return false
	}
}
