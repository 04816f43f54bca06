package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds latency values for the instruction classes of the
// implemented x86 subset. Defaults approximate a 486-class core.
type TimingConfig struct {
	// ALULatency is the execution latency for arithmetic and compare
	// operations (add, sub, cmp, inc). Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// MoveLatency is the latency for register and immediate moves.
	// Default: 1 cycle.
	MoveLatency uint64 `json:"move_latency"`

	// StackLatency is the base latency for push/pop/leave, before the
	// stack memory access itself. Default: 1 cycle.
	StackLatency uint64 `json:"stack_latency"`

	// BranchLatency is the latency for unconditional and untaken
	// conditional jumps. Default: 1 cycle.
	BranchLatency uint64 `json:"branch_latency"`

	// BranchTakenPenalty is the additional cycles charged when a jump is
	// taken and the prefetch queue refills. Default: 2 cycles.
	BranchTakenPenalty uint64 `json:"branch_taken_penalty"`

	// CallLatency is the latency for call. Default: 3 cycles.
	CallLatency uint64 `json:"call_latency"`

	// RetLatency is the latency for ret. Default: 3 cycles.
	RetLatency uint64 `json:"ret_latency"`

	// L1HitLatency is the cache hit latency. Default: 1 cycle.
	L1HitLatency uint64 `json:"l1_hit_latency"`

	// MemoryLatency is the main memory access latency on a cache miss.
	// Default: 10 cycles.
	MemoryLatency uint64 `json:"memory_latency"`
}

// DefaultTimingConfig returns a TimingConfig with 486-class default
// values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:         1,
		MoveLatency:        1,
		StackLatency:       1,
		BranchLatency:      1,
		BranchTakenPenalty: 2,
		CallLatency:        3,
		RetLatency:         3,
		L1HitLatency:       1,
		MemoryLatency:      10,
	}
}

// LoadConfig loads a TimingConfig from a JSON file.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are valid (> 0).
func (c *TimingConfig) Validate() error {
	if c.ALULatency == 0 {
		return fmt.Errorf("alu_latency must be > 0")
	}
	if c.MoveLatency == 0 {
		return fmt.Errorf("move_latency must be > 0")
	}
	if c.StackLatency == 0 {
		return fmt.Errorf("stack_latency must be > 0")
	}
	if c.BranchLatency == 0 {
		return fmt.Errorf("branch_latency must be > 0")
	}
	if c.CallLatency == 0 {
		return fmt.Errorf("call_latency must be > 0")
	}
	if c.RetLatency == 0 {
		return fmt.Errorf("ret_latency must be > 0")
	}
	if c.MemoryLatency == 0 {
		return fmt.Errorf("memory_latency must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
