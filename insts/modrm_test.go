package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/i386sim/insts"
)

// byteCode is a fixed byte slice serving as a code stream.
type byteCode []byte

func (c byteCode) Read8(addr uint32) uint8 {
	return c[addr]
}

// modRMByte assembles a ModR/M byte from its three fields.
func modRMByte(mod, reg, rm uint8) uint8 {
	return mod<<6 | reg<<3 | rm
}

var _ = Describe("ParseModRM", func() {
	Context("register-direct mode", func() {
		It("should decode mod=3 with no displacement", func() {
			// mov ebx, eax style operand: mod=3, reg=eax, rm=ebx
			code := byteCode{modRMByte(3, 0, 3)}

			m, n, err := insts.ParseModRM(code, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(uint32(1)))
			Expect(m.Mod).To(Equal(insts.ModRegDirect))
			Expect(m.Reg()).To(Equal(insts.EAX))
			Expect(m.RM).To(Equal(uint8(3)))
			Expect(m.Disp).To(Equal(int32(0)))
		})

		It("should allow rm=4 and rm=5 in register-direct mode", func() {
			// mod=3 selects esp/ebp directly, no SIB or disp32 involved
			for _, rm := range []uint8{4, 5} {
				code := byteCode{modRMByte(3, 1, rm)}

				m, n, err := insts.ParseModRM(code, 0)

				Expect(err).NotTo(HaveOccurred())
				Expect(n).To(Equal(uint32(1)))
				Expect(m.RM).To(Equal(rm))
			}
		})
	})

	Context("indirect mode without displacement", func() {
		It("should decode mod=0 with a base register", func() {
			code := byteCode{modRMByte(0, 2, 6)} // [esi], reg=edx

			m, n, err := insts.ParseModRM(code, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(uint32(1)))
			Expect(m.Mod).To(Equal(insts.ModIndirect))
			Expect(m.Base()).To(Equal(insts.ESI))
			Expect(m.Disp).To(Equal(int32(0)))
		})
	})

	Context("disp8 mode", func() {
		It("should sign-extend a negative 8-bit displacement", func() {
			code := byteCode{modRMByte(1, 0, 5), 0xFC} // [ebp-4]

			m, n, err := insts.ParseModRM(code, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(uint32(2)))
			Expect(m.Mod).To(Equal(insts.ModDisp8))
			Expect(m.Base()).To(Equal(insts.EBP))
			Expect(m.Disp).To(Equal(int32(-4)))
		})

		It("should keep a positive 8-bit displacement positive", func() {
			code := byteCode{modRMByte(1, 0, 3), 0x7F} // [ebx+127]

			m, _, err := insts.ParseModRM(code, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(m.Disp).To(Equal(int32(127)))
		})
	})

	Context("disp32 mode", func() {
		It("should read a little-endian 32-bit displacement", func() {
			code := byteCode{modRMByte(2, 7, 1), 0x78, 0x56, 0x34, 0x12}

			m, n, err := insts.ParseModRM(code, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(uint32(5)))
			Expect(m.Mod).To(Equal(insts.ModDisp32))
			Expect(m.Base()).To(Equal(insts.ECX))
			Expect(m.Reg()).To(Equal(insts.EDI))
			Expect(m.Disp).To(Equal(int32(0x12345678)))
		})

		It("should carry a negative disp32 through as signed", func() {
			code := byteCode{modRMByte(2, 0, 0), 0xFF, 0xFF, 0xFF, 0xFF}

			m, _, err := insts.ParseModRM(code, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(m.Disp).To(Equal(int32(-1)))
		})
	})

	Context("unsupported encodings", func() {
		It("should reject SIB addressing in every memory mode", func() {
			for _, mod := range []uint8{0, 1, 2} {
				code := byteCode{modRMByte(mod, 0, 4), 0, 0, 0, 0}

				_, n, err := insts.ParseModRM(code, 0)

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("SIB"))
				Expect(n).To(Equal(uint32(0)))
			}
		})

		It("should reject displacement-only addressing", func() {
			code := byteCode{modRMByte(0, 0, 5), 0, 0, 0, 0}

			_, n, err := insts.ParseModRM(code, 0)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("disp32-only"))
			Expect(n).To(Equal(uint32(0)))
		})

		It("should name the raw byte in the error", func() {
			code := byteCode{modRMByte(0, 0, 4)} // 0x04

			_, _, err := insts.ParseModRM(code, 0)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("0x04"))
		})
	})

	Context("field accessors", func() {
		It("should expose the middle field as both Reg and Opcode", func() {
			code := byteCode{modRMByte(3, 5, 0)}

			m, _, err := insts.ParseModRM(code, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(m.Reg()).To(Equal(insts.EBP))
			Expect(m.Opcode()).To(Equal(uint8(5)))
		})
	})

	It("should be side-effect free and repeatable", func() {
		code := byteCode{modRMByte(1, 3, 0), 0x10}

		first, n1, err1 := insts.ParseModRM(code, 0)
		second, n2, err2 := insts.ParseModRM(code, 0)

		Expect(err1).NotTo(HaveOccurred())
		Expect(err2).NotTo(HaveOccurred())
		Expect(first).To(Equal(second))
		Expect(n1).To(Equal(n2))
	})
})
