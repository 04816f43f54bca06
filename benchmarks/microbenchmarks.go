package benchmarks

import "github.com/sarchlab/i386sim/emu"

// GetMicrobenchmarks returns the standard calibration set. Each
// benchmark stresses one characteristic of the timing model.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticChain(),
		registerMoves(),
		memorySequential(),
		stackChurn(),
		functionCalls(),
		branchLoop(),
	}
}

// arithmeticChain measures pure ALU latency with 20 dependent adds.
func arithmeticChain() Benchmark {
	instrs := make([][]byte, 0, 21)
	for i := 0; i < 20; i++ {
		instrs = append(instrs, EncodeAddImm8(0, 1))
	}
	instrs = append(instrs, EncodeRet())

	return Benchmark{
		Name:        "arithmetic_chain",
		Description: "20 dependent adds on eax - measures ALU latency",
		Program:     BuildProgram(instrs...),
		ExpectedEAX: 20,
	}
}

// registerMoves measures move latency with immediate loads.
func registerMoves() Benchmark {
	return Benchmark{
		Name:        "register_moves",
		Description: "immediate loads into every register - measures move latency",
		Program: BuildProgram(
			EncodeMovImm(1, 1),
			EncodeMovImm(2, 2),
			EncodeMovImm(3, 3),
			EncodeMovImm(6, 6),
			EncodeMovImm(7, 7),
			EncodeMovImm(0, 99),
			EncodeRet(),
		),
		ExpectedEAX: 99,
	}
}

// memorySequential measures data-cache behavior with stores and loads
// walking a buffer.
func memorySequential() Benchmark {
	instrs := make([][]byte, 0, 18)
	for i := 0; i < 8; i++ {
		instrs = append(instrs, EncodeStore(3, int8(i*4), 0))
	}
	for i := 0; i < 8; i++ {
		instrs = append(instrs, EncodeLoad(0, 3, int8(i*4)))
	}
	instrs = append(instrs, EncodeRet())

	return Benchmark{
		Name:        "memory_sequential",
		Description: "8 stores then 8 loads over a 32-byte buffer",
		Setup: func(e *emu.Emulator) {
			e.RegFile().Regs[3] = 0x9000 // ebx: buffer base
			e.RegFile().Regs[0] = 7
		},
		Program:     BuildProgram(instrs...),
		ExpectedEAX: 7,
	}
}

// stackChurn measures push/pop traffic through the stack.
func stackChurn() Benchmark {
	return Benchmark{
		Name:        "stack_churn",
		Description: "push/pop pairs - measures stack operation cost",
		Program: BuildProgram(
			EncodeMovImm(0, 5),
			EncodePush(0), EncodePush(0), EncodePush(0),
			EncodePop(1), EncodePop(2), EncodePop(3),
			EncodeAddReg(0, 1),
			EncodeRet(),
		),
		ExpectedEAX: 10,
	}
}

// functionCalls measures call/ret overhead with three leaf calls.
func functionCalls() Benchmark {
	// main: call leaf; call leaf; call leaf; ret
	// leaf: inc eax; ret
	main := BuildProgram(
		EncodeCall(11), // leaf sits after the 16-byte main body
		EncodeCall(6),
		EncodeCall(1),
		EncodeRet(),
	)
	leaf := BuildProgram(
		EncodeInc(0),
		EncodeRet(),
	)

	return Benchmark{
		Name:        "function_calls",
		Description: "three calls to a leaf function - measures call/ret cost",
		Program:     append(main, leaf...),
		ExpectedEAX: 3,
	}
}

// branchLoop measures taken-branch penalty with a countdown loop.
func branchLoop() Benchmark {
	return Benchmark{
		Name:        "branch_loop",
		Description: "countdown loop of 32 iterations - measures taken branches",
		Program: BuildProgram(
			EncodeMovImm(1, 32), // ecx = 32
			EncodeInc(0),        // loop body
			EncodeSubImm8(1, 1),
			EncodeJnz(-7), // back to inc
			EncodeRet(),
		),
		ExpectedEAX: 32,
	}
}
