package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"
)

// SeedResult holds the outcome of optimizing one seed.
type SeedResult struct {
	Seed           int     `json:"seed"`
	Frames         float64 `json:"frames"`
	Seconds        float64 `json:"seconds"`
	BaseFrames     float64 `json:"baseFrames"`
	Encounters     int     `json:"encounters"`
	BaseEncounters int     `json:"baseEncounters"`
	Decisions      []int   `json:"decisions"`
	Output         string  `json:"output,omitempty"`
	TimeMs         int64   `json:"timeMs"`
}

// newSession wires an engine, a baseline run and a decision vector for seed.
func newSession(route *Route, cfg *Config, seed int, w RouteWriter) (*Session, *Engine, *Engine, error) {
	base := NewEngine(route, seed, cfg.MaximumExtraSteps)
	if err := base.Run(NewRandomizer(nil)); err != nil {
		return nil, nil, nil, fmt.Errorf("baseline seed %d: %w", seed, err)
	}

	engine := NewEngine(route, seed, cfg.MaximumExtraSteps)
	s := NewSession(cfg.Options(seed), NewRandomizer(cfg.Weights), engine, base, w)
	return s, engine, base, nil
}

func runSeed(ctx context.Context, route *Route, cfg *Config, seed int, progress io.Writer) (SeedResult, error) {
	start := time.Now()
	path := filepath.Join(cfg.Output, fmt.Sprintf("%d.route", seed))

	s, engine, base, err := newSession(route, cfg, seed, &FileRouteWriter{Path: path})
	if err != nil {
		return SeedResult{}, err
	}
	s.Progress = progress

	if err := s.Evaluate(); err != nil {
		return SeedResult{}, fmt.Errorf("seed %d: %w", seed, err)
	}
	if err := s.Run(ctx, cfg.Algorithms, cfg.StartIndex); err != nil {
		return SeedResult{}, fmt.Errorf("seed %d: %w", seed, err)
	}

	return SeedResult{
		Seed:           seed,
		Frames:         engine.Frames(),
		Seconds:        FramesToSeconds(engine.Frames()),
		BaseFrames:     base.Frames(),
		Encounters:     engine.EncounterCount(),
		BaseEncounters: base.EncounterCount(),
		Decisions:      s.Randomizer.Snapshot(),
		Output:         path,
		TimeMs:         time.Since(start).Milliseconds(),
	}, nil
}

// runSeeds optimizes every seed in [cfg.SeedFrom, cfg.SeedTo] with a pool of
// cfg.Workers goroutines. Each worker owns its engines; only route is shared.
func runSeeds(ctx context.Context, route *Route, cfg *Config, progress io.Writer) ([]SeedResult, error) {
	seeds := cfg.SeedTo - cfg.SeedFrom + 1
	numWorkers := min(cfg.Workers, seeds, runtime.GOMAXPROCS(0))
	if numWorkers > 1 {
		progress = io.Discard
	}

	fmt.Fprintf(logw(), "[init] seeds=%d..%d, workers=%d, plan=%v\n", cfg.SeedFrom, cfg.SeedTo, numWorkers, cfg.Algorithms)

	type result struct {
		res SeedResult
		err error
	}
	seedCh := make(chan int, seeds)
	for seed := cfg.SeedFrom; seed <= cfg.SeedTo; seed++ {
		seedCh <- seed
	}
	close(seedCh)
	resultCh := make(chan result, seeds)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seed := range seedCh {
				if ctx.Err() != nil {
					resultCh <- result{err: ctx.Err()}
					continue
				}
				r, err := runSeed(ctx, route, cfg, seed, progress)
				resultCh <- result{r, err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]SeedResult, 0, seeds)
	var firstErr error
	for r := range resultCh {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		fmt.Fprintf(logw(), "[done] seed=%d frames=%s (%.3fs) encounters=%d in %.1fs\n",
			r.res.Seed, formatFrames(r.res.Frames), r.res.Seconds, r.res.Encounters, float64(r.res.TimeMs)/1000)
		results = append(results, r.res)
	}
	sortResults(results)
	return results, firstErr
}

func sortResults(results []SeedResult) {
	slices.SortFunc(results, func(a, b SeedResult) int {
		if c := cmp.Compare(a.Frames, b.Frames); c != 0 {
			return c
		}
		return cmp.Compare(a.Seed, b.Seed)
	})
}
