package latency_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/i386sim/timing/latency"
)

var _ = Describe("Table", func() {
	var table *latency.Table

	BeforeEach(func() {
		table = latency.NewTable()
	})

	It("should charge ALU latency for arithmetic opcodes", func() {
		for _, op := range []uint8{0x01, 0x3B, 0x83, 0xFF} {
			Expect(table.GetLatency(op)).To(Equal(uint64(1)))
		}
	})

	It("should charge call and ret latencies", func() {
		Expect(table.GetLatency(0xE8)).To(Equal(uint64(3)))
		Expect(table.GetLatency(0xC3)).To(Equal(uint64(3)))
	})

	It("should charge branch latency for the two-byte escape", func() {
		Expect(table.GetLatency(0x0F)).To(Equal(table.GetLatency(0xEB)))
	})

	It("should fall back to one cycle for unknown opcodes", func() {
		Expect(table.GetLatency(0x90)).To(Equal(uint64(1)))
	})

	It("should honor a custom configuration", func() {
		config := latency.DefaultTimingConfig()
		config.ALULatency = 4
		table = latency.NewTableWithConfig(config)

		Expect(table.GetLatency(0x01)).To(Equal(uint64(4)))
		Expect(table.TakenPenalty()).To(Equal(uint64(2)))
	})

	It("should identify stack operations", func() {
		Expect(table.IsStackOp(0x50)).To(BeTrue())
		Expect(table.IsStackOp(0x5F)).To(BeTrue())
		Expect(table.IsStackOp(0xC9)).To(BeTrue())
		Expect(table.IsStackOp(0xE8)).To(BeTrue())
		Expect(table.IsStackOp(0xB8)).To(BeFalse())
	})

	It("should identify control transfers", func() {
		Expect(table.IsBranchOp(0x74)).To(BeTrue())
		Expect(table.IsBranchOp(0xE9)).To(BeTrue())
		Expect(table.IsBranchOp(0xC3)).To(BeTrue())
		Expect(table.IsBranchOp(0x0F)).To(BeTrue())
		Expect(table.IsBranchOp(0x89)).To(BeFalse())
	})
})

var _ = Describe("TimingConfig", func() {
	It("should validate the defaults", func() {
		Expect(latency.DefaultTimingConfig().Validate()).To(Succeed())
	})

	It("should reject a zero latency", func() {
		config := latency.DefaultTimingConfig()
		config.CallLatency = 0

		err := config.Validate()

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("call_latency"))
	})

	It("should clone without sharing", func() {
		config := latency.DefaultTimingConfig()
		clone := config.Clone()
		clone.ALULatency = 99

		Expect(config.ALULatency).To(Equal(uint64(1)))
	})

	It("should round-trip through a JSON file", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "timing.json")

		config := latency.DefaultTimingConfig()
		config.MemoryLatency = 25
		Expect(config.SaveConfig(path)).To(Succeed())

		loaded, err := latency.LoadConfig(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(config))
	})

	It("should keep defaults for fields a partial file omits", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "partial.json")
		Expect(os.WriteFile(path,
			[]byte(`{"alu_latency": 7}`), 0644)).To(Succeed())

		loaded, err := latency.LoadConfig(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.ALULatency).To(Equal(uint64(7)))
		Expect(loaded.RetLatency).To(Equal(uint64(3)))
	})

	It("should report a malformed file", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "bad.json")
		Expect(os.WriteFile(path, []byte("{"), 0644)).To(Succeed())

		_, err := latency.LoadConfig(path)

		Expect(err).To(HaveOccurred())
	})
})
