package insts

import "fmt"

// shortJccNames maps the low nibble of the 0x70-0x7F opcodes to mnemonics.
// Empty entries are outside the implemented subset.
var shortJccNames = [16]string{
	0x0: "jo", 0x1: "jno", 0x2: "jc", 0x3: "jnc",
	0x4: "jz", 0x5: "jnz", 0x8: "js", 0x9: "jns",
	0xC: "jl", 0xE: "jle",
}

// nearJccNames maps the low nibble of the 0x0F 0x80-0x8F opcodes.
var nearJccNames = [16]string{
	0x0: "jo", 0x1: "jno", 0x2: "jc", 0x3: "jnc",
	0x4: "jz", 0x5: "jnz", 0x6: "jna", 0x7: "ja",
	0x8: "js", 0x9: "jns", 0xC: "jl", 0xD: "jge",
	0xE: "jle", 0xF: "jg",
}

// Disassemble renders the instruction at addr in Intel syntax and reports
// its encoded length. Bytes outside the implemented subset render as a
// raw "db" directive of length 1 so a listing can continue past them.
func Disassemble(code ByteReader, addr uint32) (string, uint32) {
	op := code.Read8(addr)

	switch {
	case op == 0x01:
		return modRMText(code, addr, "add", dirRMReg)
	case op == 0x3B:
		return modRMText(code, addr, "cmp", dirRegRM)
	case op >= 0x50 && op <= 0x57:
		return fmt.Sprintf("push %s", Register(op-0x50)), 1
	case op >= 0x58 && op <= 0x5F:
		return fmt.Sprintf("pop %s", Register(op-0x58)), 1
	case op == 0x68:
		return fmt.Sprintf("push 0x%x", read32(code, addr+1)), 5
	case op == 0x6A:
		return fmt.Sprintf("push 0x%x", code.Read8(addr+1)), 2
	case op >= 0x70 && op <= 0x7F:
		name := shortJccNames[op&0xF]
		if name == "" {
			return fmt.Sprintf("db 0x%02X", op), 1
		}
		target := addr + 2 + uint32(int32(int8(code.Read8(addr+1))))
		return fmt.Sprintf("%s 0x%x", name, target), 2
	case op == 0x83:
		return group83Text(code, addr)
	case op == 0x89:
		return modRMText(code, addr, "mov", dirRMReg)
	case op == 0x8B:
		return modRMText(code, addr, "mov", dirRegRM)
	case op >= 0xB8 && op <= 0xBF:
		return fmt.Sprintf("mov %s, 0x%x", Register(op-0xB8), read32(code, addr+1)), 5
	case op == 0xC3:
		return "ret", 1
	case op == 0xC7:
		m, n, err := ParseModRM(code, addr+1)
		if err != nil {
			return fmt.Sprintf("db 0x%02X", op), 1
		}
		imm := read32(code, addr+1+n)
		return fmt.Sprintf("mov %s, 0x%x", rmText(m), imm), 1 + n + 4
	case op == 0xC9:
		return "leave", 1
	case op == 0xE8:
		target := addr + 5 + uint32(read32(code, addr+1))
		return fmt.Sprintf("call 0x%x", target), 5
	case op == 0xE9:
		target := addr + 5 + uint32(read32(code, addr+1))
		return fmt.Sprintf("jmp 0x%x", target), 5
	case op == 0xEB:
		target := addr + 2 + uint32(int32(int8(code.Read8(addr+1))))
		return fmt.Sprintf("jmp short 0x%x", target), 2
	case op == 0xFF:
		m, n, err := ParseModRM(code, addr+1)
		if err != nil || m.Opcode() != 0 {
			return fmt.Sprintf("db 0x%02X", op), 1
		}
		return fmt.Sprintf("inc %s", rmText(m)), 1 + n
	case op == 0x0F:
		op2 := code.Read8(addr + 1)
		if op2 >= 0x80 && op2 <= 0x8F {
			name := nearJccNames[op2&0xF]
			if name != "" {
				target := addr + 6 + uint32(read32(code, addr+2))
				return fmt.Sprintf("%s near 0x%x", name, target), 6
			}
		}
		return fmt.Sprintf("db 0x%02X", op), 1
	default:
		return fmt.Sprintf("db 0x%02X", op), 1
	}
}

// Operand order for two-operand ModR/M forms.
const (
	dirRMReg = iota // destination is the rm-operand
	dirRegRM        // destination is the REG register
)

func modRMText(code ByteReader, addr uint32, name string, dir int) (string, uint32) {
	m, n, err := ParseModRM(code, addr+1)
	if err != nil {
		return fmt.Sprintf("db 0x%02X", code.Read8(addr)), 1
	}
	if dir == dirRMReg {
		return fmt.Sprintf("%s %s, %s", name, rmText(m), m.Reg()), 1 + n
	}
	return fmt.Sprintf("%s %s, %s", name, m.Reg(), rmText(m)), 1 + n
}

func group83Text(code ByteReader, addr uint32) (string, uint32) {
	m, n, err := ParseModRM(code, addr+1)
	if err != nil {
		return "db 0x83", 1
	}
	var name string
	switch m.Opcode() {
	case 0:
		name = "add"
	case 5:
		name = "sub"
	case 7:
		name = "cmp"
	default:
		return "db 0x83", 1
	}
	imm := int32(int8(code.Read8(addr + 1 + n)))
	return fmt.Sprintf("%s %s, %d", name, rmText(m), imm), 1 + n + 1
}

// rmText renders the rm-operand: a bare register under register-direct
// mode, a dword memory reference otherwise.
func rmText(m ModRM) string {
	switch m.Mod {
	case ModRegDirect:
		return Register(m.RM).String()
	case ModIndirect:
		return fmt.Sprintf("dword [%s]", m.Base())
	default:
		if m.Disp < 0 {
			return fmt.Sprintf("dword [%s-0x%x]", m.Base(), -m.Disp)
		}
		return fmt.Sprintf("dword [%s+0x%x]", m.Base(), m.Disp)
	}
}
