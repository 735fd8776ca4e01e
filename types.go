package main

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingEncounter is returned when a group/slot has no registered encounter.
	ErrMissingEncounter = errors.New("missing encounter")
	// ErrUnknownInstruction is returned by the loader for unrecognised instruction types.
	ErrUnknownInstruction = errors.New("unknown instruction type")
)

type InstructionType int

const (
	InstrNoop InstructionType = iota
	InstrChoice
	InstrEnd
	InstrNote
	InstrOption
	InstrPath
	InstrRoute
	InstrSearch
	InstrVersion
	InstrWait
)

func parseInstructionType(s string) (InstructionType, bool) {
	switch s {
	case "noop", "NOOP":
		return InstrNoop, true
	case "choice", "CHOICE":
		return InstrChoice, true
	case "end", "END":
		return InstrEnd, true
	case "note", "NOTE":
		return InstrNote, true
	case "option", "OPTION":
		return InstrOption, true
	case "path", "PATH":
		return InstrPath, true
	case "route", "ROUTE":
		return InstrRoute, true
	case "search", "SEARCH":
		return InstrSearch, true
	case "version", "VERSION":
		return InstrVersion, true
	case "wait", "WAIT":
		return InstrWait, true
	}
	return InstrNoop, false
}

func (t InstructionType) String() string {
	switch t {
	case InstrChoice:
		return "CHOICE"
	case InstrEnd:
		return "END"
	case InstrNote:
		return "NOTE"
	case InstrOption:
		return "OPTION"
	case InstrPath:
		return "PATH"
	case InstrRoute:
		return "ROUTE"
	case InstrSearch:
		return "SEARCH"
	case InstrVersion:
		return "VERSION"
	case InstrWait:
		return "WAIT"
	}
	return "NOOP"
}

// Instruction is one step of a parsed route script. Only PATH instructions
// carry movement data; the rest are markers for the report.
type Instruction struct {
	Type   InstructionType
	Text   string
	Number int // version for VERSION, watched encounter id for SEARCH

	Tiles           int
	RequiredSteps   int
	OptionalSteps   int
	EncounterRate   int // 0-256, compared against the table value
	EncounterGroup  int
	TransitionCount int
	CanSingleStep   bool
	CanDoubleStep   bool
	TakeExtraSteps  bool
}

// hasDecision reports whether traversing the instruction draws a decision.
func (in *Instruction) hasDecision() bool {
	if in.Type != InstrPath {
		return false
	}
	return in.OptionalSteps > 0 || (in.TakeExtraSteps && (in.CanSingleStep || in.CanDoubleStep))
}

type Encounter struct {
	ID              int
	Description     string
	AverageDuration float64 // frames
}

// Encounters is the read-only encounter catalog: 8 slots per group.
type Encounters struct {
	byID   map[int]*Encounter
	groups map[int]*[8]*Encounter
}

func NewEncounters() *Encounters {
	return &Encounters{
		byID:   make(map[int]*Encounter),
		groups: make(map[int]*[8]*Encounter),
	}
}

// Add registers an encounter by id, replacing any previous one.
func (c *Encounters) Add(e *Encounter) {
	c.byID[e.ID] = e
}

// SetSlot binds slot of group to the encounter with the given id.
func (c *Encounters) SetSlot(group, slot, id int) error {
	if slot < 0 || slot >= 8 {
		return fmt.Errorf("group %d slot %d: slot out of range", group, slot)
	}
	e, ok := c.byID[id]
	if !ok {
		return fmt.Errorf("group %d slot %d encounter %d: %w", group, slot, id, ErrMissingEncounter)
	}
	g := c.groups[group]
	if g == nil {
		g = new([8]*Encounter)
		c.groups[group] = g
	}
	g[slot] = e
	return nil
}

// Get returns the encounter for (group, slot).
func (c *Encounters) Get(group, slot int) (*Encounter, error) {
	if g := c.groups[group]; g != nil && slot >= 0 && slot < 8 && g[slot] != nil {
		return g[slot], nil
	}
	return nil, fmt.Errorf("group %d slot %d: %w", group, slot, ErrMissingEncounter)
}

func (c *Encounters) ByID(id int) *Encounter {
	return c.byID[id]
}

// Route is a loaded route script together with its encounter catalog.
type Route struct {
	Instructions []*Instruction
	Encounters   *Encounters
}

// Decisions returns how many decision points one pass over the route draws.
func (r *Route) Decisions() int {
	n := 0
	for _, in := range r.Instructions {
		if in.hasDecision() {
			n++
		}
	}
	return n
}

// LogEntry records one traversed path segment.
type LogEntry struct {
	Instruction *Instruction
	Indent      int
	Steps       int
	Encounters  map[int]*Encounter // keyed by step number within the segment
}
