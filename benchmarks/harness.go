// Package benchmarks provides timing benchmark infrastructure for
// calibrating the latency model against known instruction mixes.
package benchmarks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sarchlab/i386sim/emu"
	"github.com/sarchlab/i386sim/timing/core"
	"github.com/sarchlab/i386sim/timing/latency"
)

// benchOrg is the load address used by every benchmark program. The
// stack sits just below it with a zero sentinel, so the final ret halts
// the run.
const benchOrg = 0x7C00

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark.
	Name string

	// Description explains what the benchmark measures.
	Description string

	// Setup prepares register or memory state before the run.
	Setup func(e *emu.Emulator)

	// Program is the encoded instruction stream. It must end in ret so
	// the zero sentinel on the stack halts the run.
	Program []byte

	// ExpectedEAX is the value EAX must hold after a correct run.
	ExpectedEAX uint32
}

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	SimulatedCycles     uint64  `json:"simulated_cycles"`
	InstructionsRetired uint64  `json:"instructions_retired"`
	CPI                 float64 `json:"cpi"`
	TakenBranches       uint64  `json:"taken_branches"`

	ICacheHits   uint64 `json:"icache_hits"`
	ICacheMisses uint64 `json:"icache_misses"`
	DCacheHits   uint64 `json:"dcache_hits"`
	DCacheMisses uint64 `json:"dcache_misses"`

	EAX      uint32        `json:"eax"`
	WallTime time.Duration `json:"wall_time_ns"`
}

// BenchmarkReport aggregates results for serialization.
type BenchmarkReport struct {
	Timestamp time.Time         `json:"timestamp"`
	Results   []BenchmarkResult `json:"results"`
}

// WriteJSON renders the report as indented JSON.
func (r *BenchmarkReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// RunBenchmark executes a benchmark through the timing core and checks
// its result.
func RunBenchmark(b Benchmark, config *latency.TimingConfig) (BenchmarkResult, error) {
	e := emu.NewEmulator(
		emu.WithStderr(&bytes.Buffer{}),
		emu.WithStackPointer(benchOrg-4),
	)
	e.Memory().Write32(benchOrg-4, 0)
	e.LoadProgram(benchOrg, b.Program)

	if b.Setup != nil {
		b.Setup(e)
	}

	cpu := core.NewCore(e,
		core.WithLatencyTable(latency.NewTableWithConfig(config)),
	)

	start := time.Now()
	if err := cpu.Run(); err != nil {
		return BenchmarkResult{}, fmt.Errorf("benchmark %s: %w", b.Name, err)
	}
	wall := time.Since(start)

	if eax := e.RegFile().Regs[0]; eax != b.ExpectedEAX {
		return BenchmarkResult{}, fmt.Errorf(
			"benchmark %s: EAX=%d, expected %d", b.Name, eax, b.ExpectedEAX)
	}

	stats := cpu.Stats()
	return BenchmarkResult{
		Name:                b.Name,
		Description:         b.Description,
		SimulatedCycles:     stats.Cycles,
		InstructionsRetired: stats.Instructions,
		CPI:                 stats.CPI(),
		TakenBranches:       stats.TakenBranches,
		ICacheHits:          stats.ICache.Hits,
		ICacheMisses:        stats.ICache.Misses,
		DCacheHits:          stats.DCache.Hits,
		DCacheMisses:        stats.DCache.Misses,
		EAX:                 e.RegFile().Regs[0],
		WallTime:            wall,
	}, nil
}

// RunAll executes every benchmark and collects a report.
func RunAll(benches []Benchmark, config *latency.TimingConfig) (*BenchmarkReport, error) {
	report := &BenchmarkReport{Timestamp: time.Now()}
	for _, b := range benches {
		result, err := RunBenchmark(b, config)
		if err != nil {
			return nil, err
		}
		report.Results = append(report.Results, result)
	}
	return report, nil
}

// BuildProgram concatenates instruction encodings.
func BuildProgram(instrs ...[]byte) []byte {
	var out []byte
	for _, ins := range instrs {
		out = append(out, ins...)
	}
	return out
}

func modRM(mod, reg, rm uint8) byte {
	return mod<<6 | reg<<3 | rm
}

func imm32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// EncodeMovImm encodes mov r32, imm32 (0xB8+r).
func EncodeMovImm(reg uint8, imm uint32) []byte {
	return append([]byte{0xB8 + reg}, imm32(imm)...)
}

// EncodeAddReg encodes add dst, src (0x01).
func EncodeAddReg(dst, src uint8) []byte {
	return []byte{0x01, modRM(3, src, dst)}
}

// EncodeAddImm8 encodes add r32, imm8 (0x83 /0).
func EncodeAddImm8(reg uint8, imm int8) []byte {
	return []byte{0x83, modRM(3, 0, reg), byte(imm)}
}

// EncodeSubImm8 encodes sub r32, imm8 (0x83 /5).
func EncodeSubImm8(reg uint8, imm int8) []byte {
	return []byte{0x83, modRM(3, 5, reg), byte(imm)}
}

// EncodeCmpImm8 encodes cmp r32, imm8 (0x83 /7).
func EncodeCmpImm8(reg uint8, imm int8) []byte {
	return []byte{0x83, modRM(3, 7, reg), byte(imm)}
}

// EncodeInc encodes inc r32 (0xFF /0).
func EncodeInc(reg uint8) []byte {
	return []byte{0xFF, modRM(3, 0, reg)}
}

// EncodePush encodes push r32 (0x50+r).
func EncodePush(reg uint8) []byte {
	return []byte{0x50 + reg}
}

// EncodePop encodes pop r32 (0x58+r).
func EncodePop(reg uint8) []byte {
	return []byte{0x58 + reg}
}

// EncodeStore encodes mov [base+disp8], src (0x89).
func EncodeStore(base uint8, disp int8, src uint8) []byte {
	return []byte{0x89, modRM(1, src, base), byte(disp)}
}

// EncodeLoad encodes mov dst, [base+disp8] (0x8B).
func EncodeLoad(dst, base uint8, disp int8) []byte {
	return []byte{0x8B, modRM(1, dst, base), byte(disp)}
}

// EncodeCall encodes call rel32 (0xE8).
func EncodeCall(offset int32) []byte {
	return append([]byte{0xE8}, imm32(uint32(offset))...)
}

// EncodeRet encodes ret (0xC3).
func EncodeRet() []byte {
	return []byte{0xC3}
}

// EncodeJnz encodes jnz short (0x75).
func EncodeJnz(offset int8) []byte {
	return []byte{0x75, byte(offset)}
}

// EncodeJmpShort encodes jmp short (0xEB).
func EncodeJmpShort(offset int8) []byte {
	return []byte{0xEB, byte(offset)}
}
