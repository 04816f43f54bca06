// Package main provides the entry point for i386sim.
// i386sim is a 32-bit x86 instruction-level emulator with an optional
// latency-based timing model.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/i386sim/console"
	"github.com/sarchlab/i386sim/emu"
	"github.com/sarchlab/i386sim/loader"
	"github.com/sarchlab/i386sim/timing/core"
	"github.com/sarchlab/i386sim/timing/latency"
)

var (
	timing      = flag.Bool("timing", false, "Enable timing simulation mode")
	configPath  = flag.String("config", "", "Path to timing configuration JSON file")
	interactive = flag.Bool("console", false, "Open the interactive debugger")
	org         = flag.Uint("org", loader.DefaultOrg, "Load address for flat binaries")
	maxInsts    = flag.Uint64("max", 0, "Stop after this many instructions (0 = unlimited)")
	verbose     = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: i386sim [options] <program>\n")
		fmt.Fprintf(os.Stderr, "\nThe program may be a flat binary or a 32-bit x86 ELF.\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	prog, err := loadProgram(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Entry point: 0x%X\n", prog.EntryPoint)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
		fmt.Printf("Initial ESP: 0x%X\n", prog.InitialESP)
	}

	memory := buildMemory(prog)
	emulator := newEmulator(prog, memory)

	switch {
	case *interactive:
		runConsole(emulator)
	case *timing:
		runTiming(emulator, programPath)
	default:
		runEmulation(emulator, programPath)
	}
}

// loadProgram picks the loader by sniffing the ELF magic.
func loadProgram(path string) (*loader.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var magic [4]byte
	_, readErr := f.Read(magic[:])
	f.Close()

	if readErr == nil && string(magic[:]) == "\x7fELF" {
		return loader.LoadELF(path)
	}
	return loader.LoadFlat(path, uint32(*org))
}

func buildMemory(prog *loader.Program) *emu.Memory {
	size := prog.MemSize()
	if size < emu.DefaultMemorySize {
		size = emu.DefaultMemorySize
	}
	memory := emu.NewMemorySized(size)

	for _, seg := range prog.Segments {
		memory.LoadProgram(seg.VirtAddr, seg.Data)
		// Zero-fill BSS (memsize > filesize)
		for i := uint32(len(seg.Data)); i < seg.MemSize; i++ {
			memory.Write8(seg.VirtAddr+i, 0)
		}
	}
	return memory
}

func newEmulator(prog *loader.Program, memory *emu.Memory) *emu.Emulator {
	opts := []emu.EmulatorOption{
		emu.WithStackPointer(prog.InitialESP),
	}
	if *maxInsts > 0 {
		opts = append(opts, emu.WithMaxInstructions(*maxInsts))
	}

	emulator := emu.NewEmulator(opts...)
	emulator.LoadProgram(prog.EntryPoint, memory)
	return emulator
}

// runEmulation runs the program in functional emulation mode.
func runEmulation(emulator *emu.Emulator, programPath string) {
	err := emulator.Run()
	if err != nil {
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("\nProgram: %s\n", programPath)
		fmt.Printf("Instructions executed: %d\n", emulator.InstructionCount())
		dumpRegisters(emulator.RegFile())
	}
}

// runTiming runs the program in timing simulation mode.
func runTiming(emulator *emu.Emulator, programPath string) {
	var timingConfig *latency.TimingConfig
	if *configPath != "" {
		var err error
		timingConfig, err = latency.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
			os.Exit(1)
		}
	} else {
		timingConfig = latency.DefaultTimingConfig()
	}

	cpu := core.NewCore(emulator,
		core.WithLatencyTable(latency.NewTableWithConfig(timingConfig)),
	)

	err := cpu.Run()
	stats := cpu.Stats()

	fmt.Printf("\n")
	fmt.Printf("Program: %s\n", programPath)
	fmt.Printf("Total Instructions: %d\n", stats.Instructions)
	fmt.Printf("Total Cycles: %d\n", stats.Cycles)
	fmt.Printf("CPI: %.2f\n", stats.CPI())
	fmt.Printf("Taken branches: %d\n", stats.TakenBranches)
	fmt.Printf("\n")
	fmt.Printf("Caches:\n")
	fmt.Printf("  I-cache: %d hits, %d misses\n",
		stats.ICache.Hits, stats.ICache.Misses)
	fmt.Printf("  D-cache: %d hits, %d misses\n",
		stats.DCache.Hits, stats.DCache.Misses)

	if err != nil {
		os.Exit(1)
	}
}

// runConsole opens the interactive debugger.
func runConsole(emulator *emu.Emulator) {
	debugger := console.NewDebugger(emulator)
	if err := debugger.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Console error: %v\n", err)
		os.Exit(1)
	}
}

func dumpRegisters(regFile *emu.RegFile) {
	fmt.Printf("EAX=0x%08X ECX=0x%08X EDX=0x%08X EBX=0x%08X\n",
		regFile.Regs[0], regFile.Regs[1], regFile.Regs[2], regFile.Regs[3])
	fmt.Printf("ESP=0x%08X EBP=0x%08X ESI=0x%08X EDI=0x%08X\n",
		regFile.Regs[4], regFile.Regs[5], regFile.Regs[6], regFile.Regs[7])
	fmt.Printf("EIP=0x%08X EFLAGS=0x%08X\n", regFile.EIP, regFile.EFLAGS)
}
