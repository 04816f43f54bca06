package emu_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/i386sim/emu"
	"github.com/sarchlab/i386sim/insts"
)

var _ = Describe("Emulator", func() {
	var e *emu.Emulator

	BeforeEach(func() {
		e = emu.NewEmulator(
			emu.WithStderr(&bytes.Buffer{}),
			emu.WithStackPointer(0x7C00),
		)
	})

	Describe("NewEmulator", func() {
		It("should create an emulator with initialized components", func() {
			Expect(e).NotTo(BeNil())
			Expect(e.RegFile()).NotTo(BeNil())
			Expect(e.Memory()).NotTo(BeNil())
		})

		It("should honor the stack pointer option", func() {
			Expect(e.RegFile().ReadReg(insts.ESP)).To(Equal(uint32(0x7C00)))
		})
	})

	Describe("LoadProgram", func() {
		It("should set EIP to the entry point", func() {
			e.LoadProgram(0x7C00, []byte{0xC3})

			Expect(e.RegFile().EIP).To(Equal(uint32(0x7C00)))
		})

		It("should load program bytes into memory", func() {
			e.LoadProgram(0x7C00, []byte{0xB8, 0x05, 0x00, 0x00, 0x00})

			Expect(e.Memory().Read8(0x7C00)).To(Equal(uint8(0xB8)))
			Expect(e.Memory().Read32(0x7C01)).To(Equal(uint32(5)))
		})

		It("should adopt a prebuilt memory image", func() {
			memory := emu.NewMemorySized(1 << 16)
			memory.LoadProgram(0x100, asm([]byte{0xB8}, imm32(9)))

			e.LoadProgram(0x100, memory)
			result := e.Step()

			Expect(result.Err).NotTo(HaveOccurred())
			Expect(e.Memory()).To(BeIdenticalTo(memory))
			Expect(e.RegFile().ReadReg(insts.EAX)).To(Equal(uint32(9)))
		})
	})

	Describe("Step", func() {
		Context("mov instructions", func() {
			It("should execute mov r32, imm32", func() {
				// mov eax, 5
				e.LoadProgram(0x7C00, asm([]byte{0xB8}, imm32(5)))

				result := e.Step()

				Expect(result.Err).NotTo(HaveOccurred())
				Expect(e.RegFile().ReadReg(insts.EAX)).To(Equal(uint32(5)))
				Expect(e.RegFile().EIP).To(Equal(uint32(0x7C05)))
			})

			It("should pick the destination from the opcode low bits", func() {
				// mov edi, 0x1234
				e.LoadProgram(0x7C00, asm([]byte{0xBF}, imm32(0x1234)))

				e.Step()

				Expect(e.RegFile().ReadReg(insts.EDI)).To(Equal(uint32(0x1234)))
			})

			It("should execute mov rm32, r32 to memory", func() {
				// mov [ebp-4], eax
				e.RegFile().WriteReg(insts.EBP, 0x8000)
				e.RegFile().WriteReg(insts.EAX, 0x42)
				e.LoadProgram(0x7C00, []byte{0x89, modRM(1, 0, 5), 0xFC})

				result := e.Step()

				Expect(result.Err).NotTo(HaveOccurred())
				Expect(e.Memory().Read32(0x7FFC)).To(Equal(uint32(0x42)))
				Expect(e.RegFile().EIP).To(Equal(uint32(0x7C03)))
			})

			It("should execute mov r32, rm32 from memory", func() {
				// mov ecx, [ebp-4]
				e.RegFile().WriteReg(insts.EBP, 0x8000)
				e.Memory().Write32(0x7FFC, 0x99)
				e.LoadProgram(0x7C00, []byte{0x8B, modRM(1, 1, 5), 0xFC})

				e.Step()

				Expect(e.RegFile().ReadReg(insts.ECX)).To(Equal(uint32(0x99)))
			})

			It("should execute mov rm32, imm32", func() {
				// mov dword [esi], 0xAABBCCDD
				e.RegFile().WriteReg(insts.ESI, 0x9000)
				e.LoadProgram(0x7C00, asm(
					[]byte{0xC7, modRM(0, 0, 6)}, imm32(0xAABBCCDD)))

				result := e.Step()

				Expect(result.Err).NotTo(HaveOccurred())
				Expect(e.Memory().Read32(0x9000)).To(Equal(uint32(0xAABBCCDD)))
				Expect(e.RegFile().EIP).To(Equal(uint32(0x7C06)))
			})
		})

		Context("arithmetic instructions", func() {
			It("should execute add rm32, r32 without touching flags", func() {
				// mov eax, 5; mov ecx, 8; add eax, ecx
				e.RegFile().EFLAGS = emu.FlagZero
				e.LoadProgram(0x7C00, asm(
					[]byte{0xB8}, imm32(5),
					[]byte{0xB9}, imm32(8),
					[]byte{0x01, modRM(3, 1, 0)},
				))

				e.Step()
				e.Step()
				result := e.Step()

				Expect(result.Err).NotTo(HaveOccurred())
				Expect(e.RegFile().ReadReg(insts.EAX)).To(Equal(uint32(13)))
				Expect(e.RegFile().EIP).To(Equal(uint32(0x7C0C)))
				Expect(e.RegFile().EFLAGS).To(Equal(emu.FlagZero))
			})

			It("should set flags from cmp r32, rm32", func() {
				// mov eax, 3; mov ebx, 5; cmp eax, ebx
				e.LoadProgram(0x7C00, asm(
					[]byte{0xB8}, imm32(3),
					[]byte{0xBB}, imm32(5),
					[]byte{0x3B, modRM(3, 0, 3)},
				))

				e.Step()
				e.Step()
				e.Step()

				Expect(e.RegFile().EFLAGS & emu.FlagCarry).NotTo(BeZero())
				Expect(e.RegFile().EFLAGS & emu.FlagSign).NotTo(BeZero())
				Expect(e.RegFile().EFLAGS & emu.FlagZero).To(BeZero())
				Expect(e.RegFile().ReadReg(insts.EAX)).To(Equal(uint32(3)))
			})

			It("should execute sub rm32, imm8 with flags", func() {
				// mov esp, 0x10; sub esp, 0x10
				e.LoadProgram(0x7C00, asm(
					[]byte{0xBC}, imm32(0x10),
					[]byte{0x83, modRM(3, 5, 4), 0x10},
				))

				e.Step()
				result := e.Step()

				Expect(result.Err).NotTo(HaveOccurred())
				Expect(e.RegFile().ReadReg(insts.ESP)).To(Equal(uint32(0)))
				Expect(e.RegFile().EFLAGS & emu.FlagZero).NotTo(BeZero())
				Expect(e.RegFile().EIP).To(Equal(uint32(0x7C08)))
			})

			It("should sign-extend the 0x83 immediate", func() {
				// add eax, -1
				e.RegFile().WriteReg(insts.EAX, 10)
				e.LoadProgram(0x7C00, []byte{0x83, modRM(3, 0, 0), 0xFF})

				e.Step()

				Expect(e.RegFile().ReadReg(insts.EAX)).To(Equal(uint32(9)))
			})

			It("should not touch flags on add rm32, imm8", func() {
				e.RegFile().EFLAGS = emu.FlagZero | emu.FlagCarry
				e.RegFile().WriteReg(insts.EAX, 1)
				e.LoadProgram(0x7C00, []byte{0x83, modRM(3, 0, 0), 0x01})

				e.Step()

				Expect(e.RegFile().EFLAGS).To(
					Equal(emu.FlagZero | emu.FlagCarry))
			})

			It("should execute cmp rm32, imm8", func() {
				// cmp ecx, 7 with ecx == 7
				e.RegFile().WriteReg(insts.ECX, 7)
				e.LoadProgram(0x7C00, []byte{0x83, modRM(3, 7, 1), 0x07})

				e.Step()

				Expect(e.RegFile().EFLAGS & emu.FlagZero).NotTo(BeZero())
				Expect(e.RegFile().ReadReg(insts.ECX)).To(Equal(uint32(7)))
			})

			It("should execute inc rm32", func() {
				e.RegFile().WriteReg(insts.EDX, 41)
				e.LoadProgram(0x7C00, []byte{0xFF, modRM(3, 0, 2)})

				e.Step()

				Expect(e.RegFile().ReadReg(insts.EDX)).To(Equal(uint32(42)))
				Expect(e.RegFile().EIP).To(Equal(uint32(0x7C02)))
			})

			It("should execute inc on a memory operand", func() {
				e.RegFile().WriteReg(insts.EBX, 0x9000)
				e.Memory().Write32(0x9000, 7)
				e.LoadProgram(0x7C00, []byte{0xFF, modRM(0, 0, 3)})

				e.Step()

				Expect(e.Memory().Read32(0x9000)).To(Equal(uint32(8)))
			})

			It("should reject an unimplemented 0x83 selector", func() {
				// selector 4 (and) is outside the subset
				e.LoadProgram(0x7C00, []byte{0x83, modRM(3, 4, 0), 0x01})

				result := e.Step()

				Expect(result.Err).To(HaveOccurred())
				Expect(result.Err.Error()).To(ContainSubstring("0x83"))
				Expect(result.Err.Error()).To(ContainSubstring("selector 4"))
			})

			It("should reject an unimplemented 0xFF selector", func() {
				// selector 1 (dec) is outside the subset
				e.LoadProgram(0x7C00, []byte{0xFF, modRM(3, 1, 0)})

				result := e.Step()

				Expect(result.Err).To(HaveOccurred())
				Expect(result.Err.Error()).To(ContainSubstring("0xFF"))
			})
		})

		Context("stack instructions", func() {
			It("should push and pop registers", func() {
				// mov eax, 0x1234; push eax; pop ebx
				e.LoadProgram(0x7C00, asm(
					[]byte{0xB8}, imm32(0x1234),
					[]byte{0x50},
					[]byte{0x5B},
				))

				e.Step()
				e.Step()
				Expect(e.RegFile().ReadReg(insts.ESP)).To(Equal(uint32(0x7BFC)))
				Expect(e.Memory().Read32(0x7BFC)).To(Equal(uint32(0x1234)))

				e.Step()
				Expect(e.RegFile().ReadReg(insts.EBX)).To(Equal(uint32(0x1234)))
				Expect(e.RegFile().ReadReg(insts.ESP)).To(Equal(uint32(0x7C00)))
			})

			It("should push a 32-bit immediate", func() {
				e.LoadProgram(0x7C00, asm([]byte{0x68}, imm32(0xCAFE)))

				e.Step()

				Expect(e.Memory().Read32(0x7BFC)).To(Equal(uint32(0xCAFE)))
				Expect(e.RegFile().EIP).To(Equal(uint32(0x7C05)))
			})

			It("should zero-extend an 8-bit push immediate", func() {
				e.LoadProgram(0x7C00, []byte{0x6A, 0xFF})

				e.Step()

				Expect(e.Memory().Read32(0x7BFC)).To(Equal(uint32(0xFF)))
				Expect(e.RegFile().EIP).To(Equal(uint32(0x7C02)))
			})

			It("should unwind a frame with leave", func() {
				// push ebp; mov ebp, esp; sub esp, 16; leave
				e.RegFile().WriteReg(insts.EBP, 0x1111)
				e.LoadProgram(0x7C00, asm(
					[]byte{0x55},
					[]byte{0x89, modRM(3, 4, 5)},
					[]byte{0x83, modRM(3, 5, 4), 0x10},
					[]byte{0xC9},
				))

				for i := 0; i < 4; i++ {
					Expect(e.Step().Err).NotTo(HaveOccurred())
				}

				Expect(e.RegFile().ReadReg(insts.ESP)).To(Equal(uint32(0x7C00)))
				Expect(e.RegFile().ReadReg(insts.EBP)).To(Equal(uint32(0x1111)))
			})
		})

		Context("call and return", func() {
			It("should push the return address and jump", func() {
				// call +11 at eip=100 with esp=0x1000
				e.RegFile().WriteReg(insts.ESP, 0x1000)
				e.LoadProgram(100, asm([]byte{0xE8}, imm32(11)))

				result := e.Step()

				Expect(result.Err).NotTo(HaveOccurred())
				Expect(e.RegFile().EIP).To(Equal(uint32(116)))
				Expect(e.RegFile().ReadReg(insts.ESP)).To(Equal(uint32(0xFFC)))
				Expect(e.Memory().Read32(0xFFC)).To(Equal(uint32(105)))
			})

			It("should return to the pushed address", func() {
				e.RegFile().WriteReg(insts.ESP, 0x1000)
				e.LoadProgram(100, asm([]byte{0xE8}, imm32(11)))
				e.Memory().Write8(116, 0xC3)

				e.Step()
				result := e.Step()

				Expect(result.Err).NotTo(HaveOccurred())
				Expect(e.RegFile().EIP).To(Equal(uint32(105)))
				Expect(e.RegFile().ReadReg(insts.ESP)).To(Equal(uint32(0x1000)))
			})

			It("should support a negative call offset", func() {
				e.Memory().Write8(0x50, 0xC3)
				e.LoadProgram(0x100, asm([]byte{0xE8}, imm32(0xFFFFFF4B))) // -181

				e.Step()

				Expect(e.RegFile().EIP).To(Equal(uint32(0x50)))
			})
		})

		Context("error handling", func() {
			It("should report an unimplemented opcode with byte and EIP", func() {
				e.RegFile().WriteReg(insts.EAX, 7)
				e.LoadProgram(0x7C00, []byte{0xFE})

				result := e.Step()

				Expect(result.Err).To(HaveOccurred())
				Expect(result.Err.Error()).To(ContainSubstring("0xFE"))
				Expect(result.Err.Error()).To(ContainSubstring("EIP=0x7C00"))
			})

			It("should not mutate state on an unimplemented opcode", func() {
				e.RegFile().WriteReg(insts.EAX, 7)
				e.LoadProgram(0x7C00, []byte{0xFE})

				e.Step()

				Expect(e.RegFile().EIP).To(Equal(uint32(0x7C00)))
				Expect(e.RegFile().ReadReg(insts.EAX)).To(Equal(uint32(7)))
				Expect(e.InstructionCount()).To(Equal(uint64(0)))
			})

			It("should reject a SIB operand before any mutation", func() {
				e.RegFile().WriteReg(insts.EAX, 7)
				e.LoadProgram(0x7C00, []byte{0x8B, modRM(0, 0, 4)})

				result := e.Step()

				Expect(result.Err).To(HaveOccurred())
				Expect(result.Err.Error()).To(ContainSubstring("SIB"))
				Expect(e.RegFile().EIP).To(Equal(uint32(0x7C00)))
				Expect(e.RegFile().ReadReg(insts.EAX)).To(Equal(uint32(7)))
			})

			It("should reject disp32-only addressing", func() {
				e.LoadProgram(0x7C00, asm(
					[]byte{0x89, modRM(0, 0, 5)}, imm32(0x1234)))

				result := e.Step()

				Expect(result.Err).To(HaveOccurred())
				Expect(result.Err.Error()).To(ContainSubstring("disp32-only"))
			})

			It("should report an unimplemented two-byte opcode", func() {
				e.LoadProgram(0x7C00, []byte{0x0F, 0xA2}) // cpuid

				result := e.Step()

				Expect(result.Err).To(HaveOccurred())
				Expect(result.Err.Error()).To(ContainSubstring("0x0F 0xA2"))
			})
		})

		Context("halt convention", func() {
			It("should halt when a return lands on address zero", func() {
				e.Memory().Write32(0x7BFC, 0)
				e.RegFile().WriteReg(insts.ESP, 0x7BFC)
				e.LoadProgram(0x7C00, []byte{0xC3})

				result := e.Step()

				Expect(result.Err).NotTo(HaveOccurred())
				Expect(result.Halted).To(BeTrue())
			})
		})
	})

	Describe("Run", func() {
		It("should run a function-call program to completion", func() {
			// push 0 as the sentinel return address, then:
			//   mov eax, 40
			//   call add2
			//   -> add2: push ebp; mov ebp, esp; add eax, 2; leave; ret
			// ret at top level pops the sentinel and halts.
			e.Memory().Write32(0x7BFC, 0)
			e.RegFile().WriteReg(insts.ESP, 0x7BFC)
			e.LoadProgram(0x7C00, asm(
				[]byte{0xB8}, imm32(40), // 0x7C00
				[]byte{0xE8}, imm32(1), // 0x7C05 call 0x7C0B
				[]byte{0xC3},           // 0x7C0A
				[]byte{0x55},           // 0x7C0B add2:
				[]byte{0x89, modRM(3, 4, 5)}, // mov ebp, esp
				[]byte{0xB9}, imm32(2),       // mov ecx, 2
				[]byte{0x01, modRM(3, 1, 0)}, // add eax, ecx
				[]byte{0xC9}, // leave
				[]byte{0xC3}, // ret
			))

			err := e.Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(e.RegFile().ReadReg(insts.EAX)).To(Equal(uint32(42)))
		})

		It("should surface the error that stopped the run", func() {
			e.LoadProgram(0x7C00, []byte{0xF4})

			err := e.Run()

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("0xF4"))
		})

		It("should stop at the instruction limit", func() {
			limited := emu.NewEmulator(
				emu.WithStderr(&bytes.Buffer{}),
				emu.WithStackPointer(0x7C00),
				emu.WithMaxInstructions(10),
			)
			// jmp short $ spins forever
			limited.LoadProgram(0x7C00, []byte{0xEB, 0xFE})

			err := limited.Run()

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("max instructions"))
			Expect(limited.InstructionCount()).To(Equal(uint64(10)))
		})
	})

	Describe("Reset", func() {
		It("should clear registers, memory and the instruction count", func() {
			e.LoadProgram(0x7C00, asm([]byte{0xB8}, imm32(5)))
			e.Step()

			e.Reset()

			Expect(e.RegFile().ReadReg(insts.EAX)).To(Equal(uint32(0)))
			Expect(e.RegFile().EIP).To(Equal(uint32(0)))
			Expect(e.Memory().Read8(0x7C00)).To(Equal(uint8(0)))
			Expect(e.InstructionCount()).To(Equal(uint64(0)))
		})
	})
})
