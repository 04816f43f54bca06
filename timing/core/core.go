// Package core provides the timing model for the x86 emulator. It wraps
// the functional emulator and charges per-class instruction latencies
// plus cache latencies for code fetch and memory operands. There is no
// pipeline or hazard modeling: the reported CPI reflects the
// latency-weighted instruction mix.
package core

import (
	"github.com/sarchlab/i386sim/emu"
	"github.com/sarchlab/i386sim/insts"
	"github.com/sarchlab/i386sim/timing/cache"
	"github.com/sarchlab/i386sim/timing/latency"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// TakenBranches is the number of taken control transfers.
	TakenBranches uint64
	// ICache and DCache are the cache statistics.
	ICache cache.Statistics
	DCache cache.Statistics
}

// CPI returns cycles per instruction.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// CoreOption configures the Core.
type CoreOption func(*Core)

// WithLatencyTable sets a custom latency table.
func WithLatencyTable(table *latency.Table) CoreOption {
	return func(c *Core) {
		c.table = table
	}
}

// WithCacheConfig sets the geometry for both L1 caches.
func WithCacheConfig(config cache.Config) CoreOption {
	return func(c *Core) {
		c.cacheConfig = config
	}
}

// Core charges timing around a functional emulator.
type Core struct {
	emulator *emu.Emulator
	table    *latency.Table

	cacheConfig cache.Config
	icache      *cache.Cache
	dcache      *cache.Cache

	cycles        uint64
	takenBranches uint64
	halted        bool
	err           error
}

// NewCore creates a Core around the given emulator.
func NewCore(emulator *emu.Emulator, opts ...CoreOption) *Core {
	c := &Core{
		emulator:    emulator,
		table:       latency.NewTable(),
		cacheConfig: cache.DefaultL1Config(),
	}

	for _, opt := range opts {
		opt(c)
	}

	backing := cache.NewMemoryBacking(emulator.Memory())
	c.icache = cache.New(c.cacheConfig, backing)
	c.dcache = cache.New(c.cacheConfig, backing)

	return c
}

// Halted reports whether the core has stopped (program halt or error).
func (c *Core) Halted() bool {
	return c.halted
}

// Err returns the error that stopped the core, if any.
func (c *Core) Err() error {
	return c.err
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	return Stats{
		Cycles:        c.cycles,
		Instructions:  c.emulator.InstructionCount(),
		TakenBranches: c.takenBranches,
		ICache:        c.icache.Stats(),
		DCache:        c.dcache.Stats(),
	}
}

// Run executes until the program halts or an error occurs.
func (c *Core) Run() error {
	for !c.halted {
		c.Tick()
	}
	return c.err
}

// Tick executes one instruction and charges its cycles.
func (c *Core) Tick() {
	if c.halted {
		return
	}

	regFile := c.emulator.RegFile()
	memory := c.emulator.Memory()
	eip := regFile.EIP
	op := memory.Read8(eip)

	// Code fetch goes through the instruction cache.
	cycles := c.table.GetLatency(op)
	cycles += c.icache.Read(uint64(eip), 1).Latency - 1

	cycles += c.chargeDataAccess(op, regFile, memory)

	result := c.emulator.Step()
	if result.Err != nil {
		c.halted = true
		c.err = result.Err
		c.cycles += cycles
		return
	}

	if taken := c.branchTaken(op, eip, regFile.EIP); taken {
		c.takenBranches++
		cycles += c.table.TakenPenalty()
	}

	c.cycles += cycles

	if result.Halted {
		c.halted = true
	}
}

// chargeDataAccess runs the instruction's memory traffic through the
// data cache and returns the extra cycles beyond a single-cycle access.
func (c *Core) chargeDataAccess(op uint8, regFile *emu.RegFile, memory *emu.Memory) uint64 {
	var extra uint64

	if c.table.IsStackOp(op) {
		esp := uint64(regFile.ReadReg(insts.ESP))
		switch insts.Classify(op) {
		case insts.ClassCall:
			extra += c.dcache.Write(esp-4, 4, 0).Latency - 1
		case insts.ClassRet:
			extra += c.dcache.Read(esp, 4).Latency - 1
		case insts.ClassStack:
			if op >= 0x58 && op <= 0x5F {
				extra += c.dcache.Read(esp, 4).Latency - 1
			} else if op == 0xC9 {
				ebp := uint64(regFile.ReadReg(insts.EBP))
				extra += c.dcache.Read(ebp, 4).Latency - 1
			} else {
				extra += c.dcache.Write(esp-4, 4, 0).Latency - 1
			}
		}
	}

	if insts.HasModRM(op) {
		m, _, err := insts.ParseModRM(memory, regFile.EIP+1)
		if err != nil || m.Mod == insts.ModRegDirect {
			return extra
		}
		addr := uint64(regFile.ReadReg(m.Base()) + uint32(m.Disp))
		switch op {
		case 0x89, 0xC7:
			extra += c.dcache.Write(addr, 4, 0).Latency - 1
		case 0x8B, 0x3B:
			extra += c.dcache.Read(addr, 4).Latency - 1
		default:
			// read-modify-write forms
			extra += c.dcache.Read(addr, 4).Latency - 1
			extra += c.dcache.Write(addr, 4, 0).Latency - 1
		}
	}

	return extra
}

// branchTaken reports whether a control transfer left the fall-through
// path.
func (c *Core) branchTaken(op uint8, before, after uint32) bool {
	if !c.table.IsBranchOp(op) {
		return false
	}
	switch insts.Classify(op) {
	case insts.ClassCall, insts.ClassRet:
		return true
	case insts.ClassEscape:
		return after != before+6
	default:
		if op == 0xE9 {
			return after != before+5
		}
		return after != before+2
	}
}
