package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/i386sim/insts"
)

var _ = Describe("Register", func() {
	It("should follow the hardware encoding order", func() {
		Expect(insts.EAX).To(Equal(insts.Register(0)))
		Expect(insts.ECX).To(Equal(insts.Register(1)))
		Expect(insts.EDX).To(Equal(insts.Register(2)))
		Expect(insts.EBX).To(Equal(insts.Register(3)))
		Expect(insts.ESP).To(Equal(insts.Register(4)))
		Expect(insts.EBP).To(Equal(insts.Register(5)))
		Expect(insts.ESI).To(Equal(insts.Register(6)))
		Expect(insts.EDI).To(Equal(insts.Register(7)))
	})

	It("should render lower-case mnemonics", func() {
		Expect(insts.EAX.String()).To(Equal("eax"))
		Expect(insts.EDI.String()).To(Equal("edi"))
	})

	It("should place high-byte aliases 4 above their low-byte pair", func() {
		Expect(insts.AH).To(Equal(insts.AL + 4))
		Expect(insts.BH).To(Equal(insts.BL + 4))
	})
})

var _ = Describe("Classify", func() {
	It("should classify arithmetic opcodes", func() {
		for _, op := range []uint8{0x01, 0x3B, 0x83, 0xFF} {
			Expect(insts.Classify(op)).To(Equal(insts.ClassALU))
		}
	})

	It("should classify moves", func() {
		for _, op := range []uint8{0x89, 0x8B, 0xB8, 0xBF, 0xC7} {
			Expect(insts.Classify(op)).To(Equal(insts.ClassMove))
		}
	})

	It("should classify stack operations", func() {
		for _, op := range []uint8{0x50, 0x57, 0x58, 0x5F, 0x68, 0x6A, 0xC9} {
			Expect(insts.Classify(op)).To(Equal(insts.ClassStack))
		}
	})

	It("should classify control transfers", func() {
		Expect(insts.Classify(0xE9)).To(Equal(insts.ClassBranch))
		Expect(insts.Classify(0xEB)).To(Equal(insts.ClassBranch))
		Expect(insts.Classify(0x74)).To(Equal(insts.ClassBranch))
		Expect(insts.Classify(0xE8)).To(Equal(insts.ClassCall))
		Expect(insts.Classify(0xC3)).To(Equal(insts.ClassRet))
		Expect(insts.Classify(0x0F)).To(Equal(insts.ClassEscape))
	})

	It("should classify unimplemented opcodes as unknown", func() {
		Expect(insts.Classify(0x00)).To(Equal(insts.ClassUnknown))
		Expect(insts.Classify(0xFE)).To(Equal(insts.ClassUnknown))
	})
})

var _ = Describe("HasModRM", func() {
	It("should report ModR/M opcodes", func() {
		for _, op := range []uint8{0x01, 0x3B, 0x83, 0x89, 0x8B, 0xC7, 0xFF} {
			Expect(insts.HasModRM(op)).To(BeTrue())
		}
	})

	It("should report plain opcodes as ModR/M-free", func() {
		for _, op := range []uint8{0xB8, 0x50, 0xC3, 0xE8, 0xEB} {
			Expect(insts.HasModRM(op)).To(BeFalse())
		}
	})
})
