// Package latency provides instruction timing models for the x86
// emulator. Latencies are looked up per opcode class and can be
// configured via TimingConfig.
package latency

import (
	"github.com/sarchlab/i386sim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing
// configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for the given
// opcode byte, before any cache modeling.
func (t *Table) GetLatency(op uint8) uint64 {
	switch insts.Classify(op) {
	case insts.ClassALU:
		return t.config.ALULatency
	case insts.ClassMove:
		return t.config.MoveLatency
	case insts.ClassStack:
		return t.config.StackLatency
	case insts.ClassBranch, insts.ClassEscape:
		return t.config.BranchLatency
	case insts.ClassCall:
		return t.config.CallLatency
	case insts.ClassRet:
		return t.config.RetLatency
	default:
		return 1
	}
}

// TakenPenalty returns the extra cycles charged for a taken control
// transfer.
func (t *Table) TakenPenalty() uint64 {
	return t.config.BranchTakenPenalty
}

// IsStackOp reports whether the opcode accesses memory through ESP.
func (t *Table) IsStackOp(op uint8) bool {
	switch insts.Classify(op) {
	case insts.ClassStack, insts.ClassCall, insts.ClassRet:
		return true
	default:
		return false
	}
}

// IsBranchOp reports whether the opcode is a control transfer.
func (t *Table) IsBranchOp(op uint8) bool {
	switch insts.Classify(op) {
	case insts.ClassBranch, insts.ClassCall, insts.ClassRet, insts.ClassEscape:
		return true
	default:
		return false
	}
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
