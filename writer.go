package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// RouteWriter persists a candidate route. The optimizers only adopt a new
// global best when WriteRoute reports success.
type RouteWriter interface {
	WriteRoute(r *Randomizer, sim, base Simulator) bool
}

// FileRouteWriter writes the route report to Path, replacing it atomically.
type FileRouteWriter struct {
	Path string
}

func (w *FileRouteWriter) WriteRoute(_ *Randomizer, sim, base Simulator) bool {
	e, ok := sim.(*Engine)
	if !ok {
		fmt.Fprintf(logw(), "[write] %s: simulator %T has no report\n", w.Path, sim)
		return false
	}
	b, ok := base.(*Engine)
	if !ok {
		fmt.Fprintf(logw(), "[write] %s: baseline %T has no report\n", w.Path, base)
		return false
	}
	if err := writeFileAtomic(w.Path, []byte(FormatRoute(e, b))); err != nil {
		fmt.Fprintf(logw(), "[write] %v\n", err)
		return false
	}
	if Verbose {
		fmt.Fprintf(logw(), "[verbose] wrote %s (%.3fs)\n", w.Path, FramesToSeconds(e.Frames()))
	}
	return true
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// memoryRouteWriter keeps the latest accepted report in memory.
type memoryRouteWriter struct {
	report    string
	decisions []int
	writes    int
}

func (w *memoryRouteWriter) WriteRoute(r *Randomizer, sim, base Simulator) bool {
	e, ok := sim.(*Engine)
	if !ok {
		return false
	}
	b, ok := base.(*Engine)
	if !ok {
		return false
	}
	w.report = FormatRoute(e, b)
	w.decisions = r.Snapshot()
	w.writes++
	return true
}
