// Package main - test-runner
// Executable to run the ward acceptance scenarios headlessly.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/config"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
	"github.com/MRamiBalles/PabellonNocturno/server/test"
)

func main() {
	configPath := flag.String("config", "", "YAML config overriding the embedded defaults")
	outDir := flag.String("out", "", "write a CSV timeline per scenario under this directory")
	seed := flag.Int64("seed", 7, "simulation seed")
	verbose := flag.Bool("v", false, "log engine output")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	cfg.Tick.Seed = *seed

	log := logger.NewNop()
	if *verbose {
		log = logger.NewLogger()
	}

	fmt.Println("PABELLÓN NOCTURNO - SCENARIO SUITE")
	fmt.Println(strings.Repeat("=", 60))

	results := test.RunAll(cfg, *outDir, log)
	passed, failed := 0, 0
	for _, r := range results {
		mark := "PASS"
		if r.Passed {
			passed++
		} else {
			failed++
			mark = "FAIL"
		}
		fmt.Printf("[%s] %-22s %6.1fs sim, %4d events\n", mark, r.ScenarioName, r.SimTime.Seconds(), r.Events)
		fmt.Printf("       expected: %s\n", r.Expected)
		if !r.Passed {
			fmt.Printf("       got:      %s\n", r.Reason)
		}
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Passed: %d  Failed: %d\n", passed, failed)
	if *outDir != "" {
		fmt.Println("Timelines written to", *outDir)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
