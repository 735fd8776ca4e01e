package main

import (
	"fmt"
)

const (
	framesPerTile       = 16
	framesPerTransition = 82
	seedIncrement       = 17
)

// Simulator is the part of the engine the optimizers drive.
type Simulator interface {
	Reset()
	Run(src DecisionSource) error
	Frames() float64
	MinimumFrames() float64
}

// State is everything one pass over the route mutates. Reset replaces it whole.
type State struct {
	Title   string
	Version int

	InstructionIndex int
	Indent           int
	Search           *Encounter

	Frames          float64
	EncounterFrames float64
	MinimumFrames   float64
	EncounterCount  int

	StepIndex      int
	StepSeed       int
	EncounterIndex int
	EncounterSeed  int
	EncounterRate  int
	EncounterGroup int

	Log []LogEntry

	minimumSet bool
}

func newState(seed int) State {
	return State{
		StepSeed:      seed,
		EncounterSeed: (seed * 2) % 256,
	}
}

// Engine replays the game's step and encounter generator over a route.
type Engine struct {
	route             *Route
	seed              int
	maximumExtraSteps int

	state State
}

func NewEngine(route *Route, seed, maximumExtraSteps int) *Engine {
	e := &Engine{
		route:             route,
		seed:              seed,
		maximumExtraSteps: maximumExtraSteps,
	}
	e.Reset()
	return e
}

func (e *Engine) Reset() {
	e.state = newState(e.seed)
}

// ResetSeed switches the engine to seed and resets it.
func (e *Engine) ResetSeed(seed int) {
	e.seed = seed
	e.Reset()
}

// Run traverses the whole route once, drawing decisions from src.
func (e *Engine) Run(src DecisionSource) error {
	for e.state.InstructionIndex < len(e.route.Instructions) {
		if err := e.cycle(src); err != nil {
			return err
		}
	}
	if !e.state.minimumSet {
		e.state.MinimumFrames = e.state.Frames
		e.state.minimumSet = true
	}
	return nil
}

func (e *Engine) cycle(src DecisionSource) error {
	in := e.route.Instructions[e.state.InstructionIndex]
	e.state.InstructionIndex++

	switch in.Type {
	case InstrPath:
		return e.path(in, src)
	case InstrRoute:
		e.state.Title = in.Text
	case InstrVersion:
		e.state.Version = in.Number
	case InstrSearch:
		e.state.Search = e.route.Encounters.ByID(in.Number)
	case InstrChoice:
		e.state.Indent++
	case InstrEnd:
		if e.state.Indent > 0 {
			e.state.Indent--
		}
	}
	return nil
}

func (e *Engine) path(in *Instruction, src DecisionSource) error {
	e.transition(in)
	e.state.EncounterRate = in.EncounterRate
	e.state.EncounterGroup = in.EncounterGroup

	if err := e.step(in.Tiles, in.RequiredSteps); err != nil {
		return err
	}
	if !in.hasDecision() {
		return nil
	}

	explicit := src.Explicit()
	steps, err := src.GetInt(0, e.maximumExtraSteps)
	if err != nil {
		return fmt.Errorf("instruction %d (%s): %w", e.state.InstructionIndex-1, in.Text, err)
	}

	tiles, n := extraSteps(in, steps)
	if err := e.step(tiles, n); err != nil {
		return err
	}

	// The last explicit decision closes the prefix the caller fixed.
	if explicit && !src.Explicit() && !e.state.minimumSet {
		e.state.MinimumFrames = e.state.Frames
		e.state.minimumSet = true
	}
	return nil
}

// extraSteps converts a drawn decision into the tiles walked and the number of
// individual steps taken. Extra steps are kept even where the segment needs it.
func extraSteps(in *Instruction, steps int) (tiles, total int) {
	optional := min(in.OptionalSteps, steps)
	extra := steps - optional

	if extra%2 == 1 && optional > 0 {
		extra++
		optional--
	}
	if extra%2 == 1 && !in.CanSingleStep {
		extra++
	}

	if in.CanDoubleStep {
		tiles = extra
	} else {
		tiles = extra * 2
	}
	if tiles%2 == 1 {
		tiles++
	}
	return tiles, optional + extra
}

func (e *Engine) transition(in *Instruction) {
	e.state.Frames += float64(in.TransitionCount * framesPerTransition)
	e.state.Log = append(e.state.Log, LogEntry{
		Instruction: in,
		Indent:      e.state.Indent,
		Encounters:  make(map[int]*Encounter),
	})
}

func (e *Engine) step(tiles, steps int) error {
	s := &e.state
	s.Frames += float64(tiles * framesPerTile)
	entry := &s.Log[len(s.Log)-1]

	for i := 0; i < steps; i++ {
		s.StepIndex = (s.StepIndex + 1) % 256
		entry.Steps++
		if s.StepIndex == 0 {
			s.StepSeed = (s.StepSeed + seedIncrement) % 256
		}

		encounter, err := e.encounter()
		if err != nil {
			return err
		}
		if encounter == nil {
			continue
		}

		if s.Search != nil && encounter.ID == s.Search.ID {
			s.Search = nil
		}
		entry.Encounters[entry.Steps] = encounter
		s.Frames += encounter.AverageDuration
		s.EncounterFrames += encounter.AverageDuration
		s.EncounterCount++

		s.EncounterIndex = (s.EncounterIndex + 1) % 256
		if s.EncounterIndex == 0 {
			s.EncounterSeed = (s.EncounterSeed + seedIncrement) % 256
		}
	}
	return nil
}

func (e *Engine) encounter() (*Encounter, error) {
	s := &e.state
	if (encounterTable[s.StepIndex]+s.StepSeed)%256 >= s.EncounterRate {
		return nil, nil
	}
	slot := encounterSlot((encounterTable[s.EncounterIndex] + s.EncounterSeed) % 256)
	return e.route.Encounters.Get(s.EncounterGroup, slot)
}

func (e *Engine) Frames() float64          { return e.state.Frames }
func (e *Engine) MinimumFrames() float64   { return e.state.MinimumFrames }
func (e *Engine) EncounterFrames() float64 { return e.state.EncounterFrames }
func (e *Engine) EncounterCount() int      { return e.state.EncounterCount }
func (e *Engine) Log() []LogEntry          { return e.state.Log }
func (e *Engine) Title() string            { return e.state.Title }
func (e *Engine) Version() int             { return e.state.Version }
func (e *Engine) Seed() int                { return e.seed }
func (e *Engine) MaximumExtraSteps() int   { return e.maximumExtraSteps }

// State returns a copy of the current run state.
func (e *Engine) State() State { return e.state }
