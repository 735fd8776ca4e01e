//go:build !lambda

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// BenchOutput is the JSON-serializable result of a full run.
type BenchOutput struct {
	RunID   string       `json:"runId"`
	Date    string       `json:"date"`
	Workers int          `json:"workers"`
	Plan    []string     `json:"plan"`
	Results []SeedResult `json:"results"`
	TotalMs int64        `json:"totalMs"`
}

func printTable(results []SeedResult, totalMs int64) {
	fmt.Printf("%-6s %12s %10s %10s %8s\n", "Seed", "Frames", "Time", "Saved", "Enc")
	fmt.Printf("%-6s %12s %10s %10s %8s\n", "------", "------------", "----------", "----------", "--------")
	for _, r := range results {
		fmt.Printf("%-6d %12s %9.3fs %9.3fs %8d\n",
			r.Seed, formatFrames(r.Frames), r.Seconds, FramesToSeconds(r.BaseFrames-r.Frames), r.Encounters)
	}
	fmt.Printf("%-6s %12s %10s %10s %8s\n", "------", "------------", "----------", "----------", "--------")
	fmt.Printf("%d seeds in %.1fs\n", len(results), float64(totalMs)/1000)
}

const usage = `Usage: spoony [flags] <route.json>

Positional arguments:
  route.json   Route script with its encounter tables

Flags:
`

func main() {
	fs := flag.CommandLine
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}

	cfg, err := ParseConfig(fs, os.Args[1:])
	if err != nil {
		Exitf("Error: %v", err)
	}
	Verbose = cfg.Verbose

	route, err := LoadRoute(cfg.Route)
	if err != nil {
		Exitf("Error: %v", err)
	}
	fmt.Fprintf(logw(), "Loaded %d instructions, %d decisions\n", len(route.Instructions), route.Decisions())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	results, err := runSeeds(ctx, route, &cfg, os.Stderr)
	if err != nil {
		Exitf("Error: %v", err)
	}
	totalMs := time.Since(start).Milliseconds()

	if cfg.JSON {
		out := BenchOutput{
			RunID:   uuid.NewString(),
			Date:    time.Now().UTC().Format(time.RFC3339),
			Workers: min(cfg.Workers, runtime.NumCPU()),
			Plan:    cfg.Algorithms,
			Results: results,
			TotalMs: totalMs,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(out)
		return
	}
	printTable(results, totalMs)
}
