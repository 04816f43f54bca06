// Package main provides the entry point for i386sim.
// i386sim is a 32-bit x86 instruction-level emulator.
//
// For the full CLI, use: go run ./cmd/i386sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("i386sim - 32-bit x86 Instruction-Level Emulator")
	fmt.Println("")
	fmt.Println("Usage: i386sim [options] <program>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -timing    Enable timing simulation mode")
	fmt.Println("  -config    Path to timing configuration JSON file")
	fmt.Println("  -console   Open the interactive debugger")
	fmt.Println("  -org       Load address for flat binaries")
	fmt.Println("  -max       Stop after this many instructions")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/i386sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/i386sim' instead.")
	}
}
