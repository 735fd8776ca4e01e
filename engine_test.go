package main

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// testCatalog has group 1 with a 100-frame encounter in every slot and group 2
// with a different duration per slot.
func testCatalog(t *testing.T) *Encounters {
	t.Helper()
	c := NewEncounters()
	c.Add(&Encounter{ID: 1, Description: "Goblin", AverageDuration: 100})
	for slot := 0; slot < 8; slot++ {
		if err := c.SetSlot(1, slot, 1); err != nil {
			t.Fatalf("SetSlot: %v", err)
		}
		id := 10 + slot
		c.Add(&Encounter{ID: id, Description: fmt.Sprintf("Formation %d", slot), AverageDuration: float64(300 + 97*slot)})
		if err := c.SetSlot(2, slot, id); err != nil {
			t.Fatalf("SetSlot: %v", err)
		}
	}
	return c
}

func segment(tiles, rate, group int) *Instruction {
	return &Instruction{
		Type:           InstrPath,
		Text:           fmt.Sprintf("%d tiles", tiles),
		Tiles:          tiles,
		RequiredSteps:  tiles,
		EncounterRate:  rate,
		EncounterGroup: group,
	}
}

func decision(in *Instruction, optional int, single, double bool) *Instruction {
	in.OptionalSteps = optional
	in.CanSingleStep = single
	in.CanDoubleStep = double
	in.TakeExtraSteps = true
	return in
}

// searchRoute has three decisions with encounter-heavy walking after each.
func searchRoute(t *testing.T) *Route {
	t.Helper()
	return &Route{
		Encounters: testCatalog(t),
		Instructions: []*Instruction{
			{Type: InstrRoute, Text: "Test Route"},
			{Type: InstrVersion, Number: 3},
			decision(segment(6, 40, 2), 2, true, false),
			segment(20, 40, 2),
			decision(segment(4, 40, 2), 0, false, true),
			segment(18, 40, 2),
			decision(segment(3, 40, 2), 1, true, true),
			segment(25, 40, 2),
		},
	}
}

func run(t *testing.T, e *Engine, data ...int) *Randomizer {
	t.Helper()
	r := NewRandomizer(nil)
	r.Data = data
	e.Reset()
	if err := e.Run(r); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return r
}

func TestEngineWithoutEncounters(t *testing.T) {
	route := &Route{Encounters: testCatalog(t), Instructions: []*Instruction{segment(10, 0, 1)}}
	e := NewEngine(route, 0, 16)
	run(t, e)

	if got := e.Frames(); got != 160 {
		t.Errorf("Frames() = %v, want 160", got)
	}
	if got := e.EncounterCount(); got != 0 {
		t.Errorf("EncounterCount() = %d, want 0", got)
	}
}

func TestEngineEncounterEveryStep(t *testing.T) {
	route := &Route{Encounters: testCatalog(t), Instructions: []*Instruction{segment(10, 256, 1)}}
	e := NewEngine(route, 0, 16)
	run(t, e)

	if got := e.Frames(); got != 1160 {
		t.Errorf("Frames() = %v, want 1160", got)
	}
	if got := e.EncounterCount(); got != 10 {
		t.Errorf("EncounterCount() = %d, want 10", got)
	}
	if got := e.EncounterFrames(); got != 1000 {
		t.Errorf("EncounterFrames() = %v, want 1000", got)
	}
	log := e.Log()
	if len(log) != 1 || len(log[0].Encounters) != 10 || log[0].Steps != 10 {
		t.Fatalf("log = %+v, want one entry with 10 steps and 10 encounters", log)
	}
	for step := 1; step <= 10; step++ {
		if log[0].Encounters[step] == nil {
			t.Errorf("no encounter recorded at step %d", step)
		}
	}
}

func TestEngineStepSeedAdvancesEvery256Steps(t *testing.T) {
	tests := []struct {
		seed, steps  int
		wantStepSeed int
		wantIndex    int
	}{
		{seed: 0, steps: 255, wantStepSeed: 0, wantIndex: 255},
		{seed: 0, steps: 256, wantStepSeed: 17, wantIndex: 0},
		{seed: 0, steps: 512, wantStepSeed: 34, wantIndex: 0},
		{seed: 250, steps: 256, wantStepSeed: 11, wantIndex: 0},
		{seed: 3, steps: 300, wantStepSeed: 20, wantIndex: 44},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("seed_%d_steps_%d", tt.seed, tt.steps), func(t *testing.T) {
			route := &Route{Encounters: testCatalog(t), Instructions: []*Instruction{segment(tt.steps, 0, 1)}}
			e := NewEngine(route, tt.seed, 16)
			run(t, e)

			st := e.State()
			if st.StepSeed != tt.wantStepSeed || st.StepIndex != tt.wantIndex {
				t.Errorf("step seed/index = %d/%d, want %d/%d", st.StepSeed, st.StepIndex, tt.wantStepSeed, tt.wantIndex)
			}
			if st.EncounterIndex != 0 || st.EncounterSeed != (tt.seed*2)%256 {
				t.Errorf("encounter cursor moved without encounters: %d/%d", st.EncounterIndex, st.EncounterSeed)
			}
		})
	}
}

func TestEngineSeedDerivation(t *testing.T) {
	e := NewEngine(&Route{Encounters: NewEncounters()}, 200, 16)
	st := e.State()
	if st.StepSeed != 200 || st.EncounterSeed != 144 || st.StepIndex != 0 || st.EncounterIndex != 0 {
		t.Errorf("initial state = %+v", st)
	}
}

func TestEncounterSlot(t *testing.T) {
	tests := map[int]int{0: 0, 42: 0, 43: 1, 85: 1, 86: 2, 128: 2, 129: 3, 171: 3, 172: 4, 203: 4, 204: 5, 235: 5, 236: 6, 251: 6, 252: 7, 255: 7}
	for value, want := range tests {
		if got := encounterSlot(value); got != want {
			t.Errorf("encounterSlot(%d) = %d, want %d", value, got, want)
		}
	}
}

func TestEncounterTableIsPermutation(t *testing.T) {
	var seen [256]bool
	for i, v := range encounterTable {
		if v < 0 || v > 255 || seen[v] {
			t.Fatalf("table[%d] = %#x repeats or is out of range", i, v)
		}
		seen[v] = true
	}
}

func TestEngineDeterministic(t *testing.T) {
	for _, seed := range []int{0, 17, 99, 255} {
		e := NewEngine(searchRoute(t), seed, 8)
		run(t, e, 3, 5, 2)
		first := e.State()

		run(t, e, 3, 5, 2)
		second := e.State()

		if !reflect.DeepEqual(first, second) {
			t.Errorf("seed %d: runs differ:\n%+v\n%+v", seed, first, second)
		}
	}
}

func TestEngineResetSeed(t *testing.T) {
	e := NewEngine(searchRoute(t), 0, 8)
	run(t, e, 1, 1, 1)
	other := NewEngine(searchRoute(t), 42, 8)
	run(t, other, 1, 1, 1)

	e.ResetSeed(42)
	if err := e.Run(randomizerWith(1, 1, 1)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.Frames() != other.Frames() || e.Seed() != 42 {
		t.Errorf("after ResetSeed(42): frames %v seed %d, want %v 42", e.Frames(), e.Seed(), other.Frames())
	}
}

func randomizerWith(data ...int) *Randomizer {
	r := NewRandomizer(nil)
	r.Data = data
	return r
}

func TestExtraStepsParity(t *testing.T) {
	for optional := 0; optional <= 3; optional++ {
		for _, single := range []bool{false, true} {
			for _, double := range []bool{false, true} {
				in := &Instruction{Type: InstrPath, OptionalSteps: optional, CanSingleStep: single, CanDoubleStep: double, TakeExtraSteps: true}
				prevTiles, prevTotal := 0, 0
				for steps := 0; steps <= 12; steps++ {
					tiles, total := extraSteps(in, steps)
					name := fmt.Sprintf("optional=%d single=%v double=%v steps=%d", optional, single, double, steps)

					if tiles%2 != 0 {
						t.Errorf("%s: odd tile count %d", name, tiles)
					}
					if over := total - steps; over < 0 || over > 1 || (single && over != 0) {
						t.Errorf("%s: %d steps taken for %d drawn", name, total, steps)
					}
					if tiles < prevTiles || total < prevTotal {
						t.Errorf("%s: (%d tiles, %d steps) below previous (%d, %d)", name, tiles, total, prevTiles, prevTotal)
					}
					prevTiles, prevTotal = tiles, total
				}
			}
		}
	}
}

func TestEngineOptionalAndExtraSteps(t *testing.T) {
	route := &Route{
		Encounters:   testCatalog(t),
		Instructions: []*Instruction{decision(segment(4, 0, 1), 2, false, false)},
	}
	e := NewEngine(route, 0, 16)
	tests := []struct {
		steps      int
		wantFrames float64
		wantSteps  int
	}{
		{steps: 0, wantFrames: 64, wantSteps: 4},
		{steps: 2, wantFrames: 64, wantSteps: 6},
		// optional 2, extra 1 -> optional 1, extra 2 -> 4 tiles
		{steps: 3, wantFrames: 128, wantSteps: 7},
		{steps: 4, wantFrames: 128, wantSteps: 8},
	}
	for _, tt := range tests {
		run(t, e, tt.steps)
		if e.Frames() != tt.wantFrames || e.Log()[0].Steps != tt.wantSteps {
			t.Errorf("steps %d: frames %v steps %d, want %v %d", tt.steps, e.Frames(), e.Log()[0].Steps, tt.wantFrames, tt.wantSteps)
		}
	}
}

func TestEngineTransitionsAndMarkers(t *testing.T) {
	c := testCatalog(t)
	route := &Route{
		Encounters: c,
		Instructions: []*Instruction{
			{Type: InstrRoute, Text: "Any%"},
			{Type: InstrVersion, Number: 7},
			{Type: InstrNote, Text: "buy potions"},
			{Type: InstrChoice},
			{Type: InstrOption, Text: "left"},
			{Type: InstrPath, Text: "corridor", Tiles: 2, RequiredSteps: 2, TransitionCount: 3},
			{Type: InstrEnd},
			{Type: InstrEnd},
			{Type: InstrWait},
			{Type: InstrNoop},
			{Type: InstrPath, Text: "exit", Tiles: 1, RequiredSteps: 1},
		},
	}
	e := NewEngine(route, 0, 16)
	run(t, e)

	if e.Title() != "Any%" || e.Version() != 7 {
		t.Errorf("title/version = %q/%d", e.Title(), e.Version())
	}
	if want := float64(3*82 + 3*16); e.Frames() != want {
		t.Errorf("Frames() = %v, want %v", e.Frames(), want)
	}
	log := e.Log()
	if len(log) != 2 || log[0].Indent != 1 || log[1].Indent != 0 {
		t.Errorf("log indents = %+v", log)
	}
}

func TestEngineSearchWatchClears(t *testing.T) {
	route := &Route{
		Encounters: testCatalog(t),
		Instructions: []*Instruction{
			{Type: InstrSearch, Number: 1},
			segment(1, 0, 1),
		},
	}
	e := NewEngine(route, 0, 16)
	run(t, e)
	if s := e.State().Search; s == nil || s.ID != 1 {
		t.Fatalf("search watch = %+v, want encounter 1", s)
	}

	route.Instructions = append(route.Instructions, segment(1, 256, 1))
	run(t, e)
	if s := e.State().Search; s != nil {
		t.Errorf("search watch = %+v after encounter 1, want cleared", s)
	}
}

func TestEngineMissingEncounter(t *testing.T) {
	route := &Route{Encounters: testCatalog(t), Instructions: []*Instruction{segment(3, 256, 9)}}
	e := NewEngine(route, 0, 16)
	err := e.Run(NewRandomizer(nil))
	if !errors.Is(err, ErrMissingEncounter) {
		t.Fatalf("Run() error = %v, want ErrMissingEncounter", err)
	}
}

func TestEngineDecisionOutOfRange(t *testing.T) {
	e := NewEngine(searchRoute(t), 0, 3)
	err := e.Run(randomizerWith(4, 0, 0))
	if !errors.Is(err, ErrDecisionRange) {
		t.Fatalf("Run() error = %v, want ErrDecisionRange", err)
	}
}

// observingSource records the engine's minimum frames at every draw.
type observingSource struct {
	*Randomizer
	engine *Engine
	seen   []float64
}

func (o *observingSource) GetInt(low, high int) (int, error) {
	o.seen = append(o.seen, o.engine.MinimumFrames())
	return o.Randomizer.GetInt(low, high)
}

func TestEngineMinimumFramesIsLowerBound(t *testing.T) {
	route := searchRoute(t)
	for _, seed := range []int{0, 5, 128} {
		e := NewEngine(route, seed, 3)
		for implicit := -1; implicit < 3; implicit++ {
			prevByValue := -1.0
			for v := 0; v <= 3; v++ {
				data := []int{1, 2, 3}
				if implicit >= 0 {
					data[implicit] = v
				}
				src := &observingSource{Randomizer: randomizerWith(data...), engine: e}
				src.Reset()
				if implicit >= 0 {
					src.SetImplicitIndex(implicit)
				}
				e.Reset()
				if err := e.Run(src); err != nil {
					t.Fatalf("Run: %v", err)
				}

				name := fmt.Sprintf("seed=%d implicit=%d v=%d", seed, implicit, v)
				if e.MinimumFrames() > e.Frames() {
					t.Errorf("%s: minimum %v exceeds frames %v", name, e.MinimumFrames(), e.Frames())
				}
				prev := 0.0
				for _, m := range append(src.seen, e.MinimumFrames()) {
					if m < prev {
						t.Errorf("%s: minimum frames decreased %v -> %v", name, prev, m)
					}
					prev = m
				}
				if implicit >= 0 {
					if e.MinimumFrames() < prevByValue {
						t.Errorf("%s: minimum %v below value %d's %v", name, e.MinimumFrames(), v-1, prevByValue)
					}
					prevByValue = e.MinimumFrames()
				}
			}
		}
	}
}
