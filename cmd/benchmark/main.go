// Command benchmark runs the i386sim timing benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-json       Output results as JSON (default: human-readable)
//	-config     Path to timing configuration JSON file
//
// The results can be compared across timing configurations to calibrate
// the latency model.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/i386sim/benchmarks"
	"github.com/sarchlab/i386sim/timing/latency"
)

func main() {
	jsonOutput := flag.Bool("json", false, "Output results as JSON")
	configPath := flag.String("config", "", "Path to timing configuration JSON file")
	flag.Parse()

	config := latency.DefaultTimingConfig()
	if *configPath != "" {
		var err error
		config, err = latency.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
			os.Exit(1)
		}
	}

	report, err := benchmarks.RunAll(benchmarks.GetMicrobenchmarks(), config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonOutput {
		if err := report.WriteJSON(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("i386sim Timing Benchmark Harness")
	fmt.Println("================================")
	fmt.Println("")
	fmt.Printf("%-20s %12s %8s %6s %8s %8s\n",
		"Benchmark", "Instructions", "Cycles", "CPI", "I$ miss", "D$ miss")
	for _, r := range report.Results {
		fmt.Printf("%-20s %12d %8d %6.2f %8d %8d\n",
			r.Name, r.InstructionsRetired, r.SimulatedCycles, r.CPI,
			r.ICacheMisses, r.DCacheMisses)
	}
}
