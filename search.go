package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strings"
)

var (
	ErrStartIndex       = errors.New("start index out of range")
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
)

// Options tunes the optimizers for one session.
type Options struct {
	Seed                 int
	MaximumSteps         int
	MaximumComparisons   int
	PairwiseShift        bool
	MaximumIterations    int
	PerturbationStrength int
	PerturbationWobble   int
	PerturbationSeed     uint64
}

// ── Session ─────────────────────────────────────────────────────────

// Session owns the decision vector, the engine driven by it and the global
// best of one optimization run. It is not safe for concurrent use.
type Session struct {
	Options    Options
	Randomizer *Randomizer
	Engine     Simulator
	Base       Simulator
	Writer     RouteWriter
	Progress   io.Writer

	// BestFrames/BestScore is the global best; only routes the writer
	// accepted count.
	BestFrames float64
	BestScore  int

	rng *rand.Rand
}

// NewSession creates a session with an empty global best.
func NewSession(opts Options, r *Randomizer, engine, base Simulator, w RouteWriter) *Session {
	return &Session{
		Options:    opts,
		Randomizer: r,
		Engine:     engine,
		Base:       base,
		Writer:     w,
		Progress:   io.Discard,
		BestFrames: math.Inf(1),
		BestScore:  math.MinInt,
		rng:        rand.New(rand.NewPCG(opts.PerturbationSeed, uint64(opts.Seed))),
	}
}

func better(frames float64, score int, bestFrames float64, bestScore int) bool {
	return frames < bestFrames || (frames == bestFrames && score > bestScore)
}

func (s *Session) simulate() error {
	s.Randomizer.Reset()
	s.Engine.Reset()
	return s.Engine.Run(s.Randomizer)
}

// offer adopts the engine's current result as the global best if it beats it
// and the writer persisted it.
func (s *Session) offer() {
	frames, score := s.Engine.Frames(), s.Randomizer.Score()
	if !better(frames, score, s.BestFrames, s.BestScore) {
		return
	}
	if s.Writer != nil && !s.Writer.WriteRoute(s.Randomizer, s.Engine, s.Base) {
		return
	}
	s.BestFrames, s.BestScore = frames, score
}

// Evaluate simulates the current decisions and offers them as the global best.
func (s *Session) Evaluate() error {
	if err := s.simulate(); err != nil {
		return err
	}
	s.offer()
	return nil
}

func (s *Session) checkStart(startIndex int) error {
	if startIndex < 0 || startIndex > len(s.Randomizer.Data) {
		return fmt.Errorf("start index %d with %d variables: %w", startIndex, len(s.Randomizer.Data), ErrStartIndex)
	}
	return nil
}

func (s *Session) progress(algorithm, position, label string, frames float64) {
	fmt.Fprintf(s.Progress, "\rSeed: %4d   Algorithm: %-15s   %s   Variables: (%2d, %d)   Best: %10.3f   %s: %10.3f",
		s.Options.Seed, algorithm, position,
		s.Randomizer.MinimumVariables(), s.Randomizer.MaximumVariables(),
		FramesToSeconds(s.BestFrames), label, FramesToSeconds(frames))
}

func (s *Session) endProgress() {
	fmt.Fprintln(s.Progress)
}

// ── Sequential ──────────────────────────────────────────────────────

// Sequential tries every value of each free variable once, left to right,
// keeping the best value of each before moving on.
func (s *Session) Sequential(startIndex int) error {
	if err := s.simulate(); err != nil {
		return err
	}
	if err := s.checkStart(startIndex); err != nil {
		return err
	}

	searchFrames, searchScore := s.Engine.Frames(), s.Randomizer.Score()

	for i := startIndex; i < len(s.Randomizer.Data); i++ {
		s.progress("Sequential", fmt.Sprintf("Index: %2d", i), "Current", searchFrames)

		bestValue := s.Randomizer.Data[i]
		for value := 0; value <= s.Options.MaximumSteps; value++ {
			s.Randomizer.Data[i] = value
			if err := s.simulate(); err != nil {
				return err
			}
			s.offer()

			if frames, score := s.Engine.Frames(), s.Randomizer.Score(); better(frames, score, searchFrames, searchScore) {
				searchFrames, searchScore = frames, score
				bestValue = value
			}
		}
		s.Randomizer.Data[i] = bestValue
	}

	if err := s.simulate(); err != nil {
		return err
	}
	s.endProgress()
	return nil
}

// ── Local ───────────────────────────────────────────────────────────

// Local sweeps all free variables, commits the single best change of the
// sweep and repeats until a sweep finds nothing better.
func (s *Session) Local(startIndex int) error {
	return s.local(startIndex, true)
}

func (s *Session) local(startIndex int, newline bool) error {
	if err := s.simulate(); err != nil {
		return err
	}
	if err := s.checkStart(startIndex); err != nil {
		return err
	}

	searchFrames := s.Engine.Frames()

	for {
		bestIndex, bestValue := -1, 0

		for i := startIndex; i < len(s.Randomizer.Data); i++ {
			s.progress("Local", fmt.Sprintf("Index: %2d", i), "Current", searchFrames)

			original := s.Randomizer.Data[i]
			for value := 0; value <= s.Options.MaximumSteps; value++ {
				s.Randomizer.Data[i] = value
				if err := s.simulate(); err != nil {
					return err
				}
				s.offer()

				if frames := s.Engine.Frames(); frames < searchFrames {
					searchFrames = frames
					bestIndex, bestValue = i, value
				}
			}
			s.Randomizer.Data[i] = original
		}

		if bestIndex < 0 {
			break
		}
		s.Randomizer.Data[bestIndex] = bestValue
	}

	if err := s.simulate(); err != nil {
		return err
	}
	if newline {
		s.endProgress()
	}
	return nil
}

// ── Pairwise local ──────────────────────────────────────────────────

// LocalPair is Local over pairs of variables. With PairwiseShift the pair keeps
// its original sum; MaximumComparisons limits how far the partner may be.
func (s *Session) LocalPair(startIndex int) error {
	if err := s.simulate(); err != nil {
		return err
	}
	if err := s.checkStart(startIndex); err != nil {
		return err
	}

	data := s.Randomizer.Data
	searchFrames, searchScore := s.Engine.Frames(), s.Randomizer.Score()
	previousFrames := searchFrames

	for {
		bestI, bestJ := -1, -1
		bestIValue, bestJValue := 0, 0

		for i := startIndex; i < len(data); i++ {
			originalI := data[i]

			maximum := len(data)
			if s.Options.MaximumComparisons > 0 {
				maximum = min(maximum, i+1+s.Options.MaximumComparisons)
			}

			for j := i + 1; j < maximum; j++ {
				s.progress("Pairwise Local", fmt.Sprintf("Current Indexes: (%3d, %3d)", i, j), "Current", searchFrames)

				originalJ := data[j]
				for iValue := 0; iValue <= s.Options.MaximumSteps; iValue++ {
					jMinimum, jMaximum := 0, s.Options.MaximumSteps
					if s.Options.PairwiseShift {
						jMinimum = originalI + originalJ - iValue
						jMaximum = jMinimum
					}

					for jValue := jMinimum; jValue <= jMaximum; jValue++ {
						// Shifted partners can leave the range; those pairs are skipped.
						if jValue < 0 || jValue > s.Options.MaximumSteps {
							continue
						}

						data[i] = iValue
						data[j] = jValue
						if err := s.simulate(); err != nil {
							return err
						}
						s.offer()

						if frames, score := s.Engine.Frames(), s.Randomizer.Score(); better(frames, score, searchFrames, searchScore) {
							searchFrames, searchScore = frames, score
							bestI, bestJ = i, j
							bestIValue, bestJValue = iValue, jValue
						}
					}
				}
				data[j] = originalJ
			}
			data[i] = originalI
		}

		if bestI < 0 {
			break
		}

		fmt.Fprintf(s.Progress, "\nUpdating (%d, %d) from (%d, %d) to (%d, %d) (%.3fs -> %.3fs)\n",
			bestI, bestJ, data[bestI], data[bestJ], bestIValue, bestJValue,
			FramesToSeconds(previousFrames), FramesToSeconds(searchFrames))
		previousFrames = searchFrames

		data[bestI] = bestIValue
		data[bestJ] = bestJValue
	}

	if err := s.simulate(); err != nil {
		return err
	}
	s.endProgress()
	return nil
}

// ── Branch and bound ────────────────────────────────────────────────

// BranchAndBound enumerates every assignment of the variables from startIndex
// on, depth first, pruning prefixes whose minimum frames already exceed the
// global best. The best assignment seen is restored at the end.
func (s *Session) BranchAndBound(startIndex int) error {
	if err := s.simulate(); err != nil {
		return err
	}
	if err := s.checkStart(startIndex); err != nil {
		return err
	}
	s.offer()

	searchFrames, searchScore := s.Engine.Frames(), s.Randomizer.Score()
	bestData := s.Randomizer.Snapshot()

	if startIndex < len(s.Randomizer.Data) {
		clear(s.Randomizer.Data[startIndex:])
		if err := s.branch(startIndex, &searchFrames, &searchScore, &bestData); err != nil {
			return err
		}
	}
	s.Randomizer.Restore(bestData)

	if err := s.simulate(); err != nil {
		return err
	}
	s.endProgress()
	return nil
}

func (s *Session) branch(startIndex int, searchFrames *float64, searchScore *int, bestData *[]int) error {
	index := startIndex

	for iterations := 0; ; iterations++ {
		if iterations%143 == 0 {
			s.progress("Branch and Bound", fmt.Sprintf("Index: %2d   Iterations: %20d", index, iterations), "Search Best", *searchFrames)
		}

		s.Randomizer.Reset()
		s.Randomizer.SetImplicitIndex(index)
		s.Engine.Reset()
		if err := s.Engine.Run(s.Randomizer); err != nil {
			return err
		}
		s.offer()

		if frames, score := s.Engine.Frames(), s.Randomizer.Score(); better(frames, score, *searchFrames, *searchScore) {
			*searchFrames, *searchScore = frames, score
			*bestData = s.Randomizer.Snapshot()
		}

		data := s.Randomizer.Data
		switch {
		case data[index] >= s.Options.MaximumSteps || s.Engine.MinimumFrames() > s.BestFrames:
			data[index] = 0
			index--
			if index >= 0 {
				data[index]++
			}
		case index+1 < s.Randomizer.Index():
			index++
		default:
			data[index]++
		}

		if index < startIndex {
			return nil
		}
	}
}

// ── Iterated local search ───────────────────────────────────────────

// ILS runs Local to a fixed point, then repeatedly perturbs the assignment and
// runs Local again, keeping the result only when it is strictly faster.
func (s *Session) ILS(startIndex int) error {
	if err := s.local(startIndex, false); err != nil {
		return err
	}

	searchFrames := s.Engine.Frames()

	for i := 0; i < s.Options.MaximumIterations; i++ {
		s.progress("ILS", fmt.Sprintf("Index: %2d", i), "Search Best", searchFrames)

		current := s.Randomizer.Snapshot()
		s.perturb(startIndex)

		if err := s.local(startIndex, false); err != nil {
			return err
		}

		if frames := s.Engine.Frames(); frames < searchFrames {
			searchFrames = frames
		} else {
			s.Randomizer.Restore(current)
		}
	}

	if err := s.simulate(); err != nil {
		return err
	}
	s.endProgress()
	return nil
}

// perturb redistributes a random total over PerturbationStrength random
// variables; the last one absorbs whatever remains.
func (s *Session) perturb(startIndex int) {
	data := s.Randomizer.Data
	n := len(data) - startIndex
	strength := s.Options.PerturbationStrength
	if n <= 0 || strength <= 0 {
		return
	}

	wobble := max(0, s.Options.PerturbationWobble)
	total := s.rng.IntN(2*wobble+1) - wobble

	for j := 0; j < strength; j++ {
		index := startIndex + s.rng.IntN(n)
		total += data[index]

		value := s.rng.IntN(max(0, total*2) + 1)
		value = clamp(value, 0, s.Options.MaximumSteps)
		if j == strength-1 {
			value = clamp(total, 0, s.Options.MaximumSteps)
		}

		data[index] = value
		total -= value
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// ── Plans ───────────────────────────────────────────────────────────

var algorithms = map[string]func(*Session, int) error{
	"sequential": (*Session).Sequential,
	"local":      (*Session).Local,
	"pair":       (*Session).LocalPair,
	"bb":         (*Session).BranchAndBound,
	"ils":        (*Session).ILS,
}

// Run executes the named algorithms in order. ctx is checked between them.
func (s *Session) Run(ctx context.Context, plan []string, startIndex int) error {
	for _, name := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn, ok := algorithms[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return fmt.Errorf("%q: %w", name, ErrUnknownAlgorithm)
		}
		if Verbose {
			fmt.Fprintf(logw(), "[verbose] seed %d: %s from index %d\n", s.Options.Seed, name, startIndex)
		}
		if err := fn(s, startIndex); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func logw() *os.File { return os.Stderr }
