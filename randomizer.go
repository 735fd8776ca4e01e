package main

import (
	"errors"
	"fmt"
	"slices"
)

// ErrDecisionRange is returned when a stored decision falls outside the bounds
// requested by the engine.
var ErrDecisionRange = errors.New("decision out of range")

// DecisionSource is what the engine draws decisions from during a run.
type DecisionSource interface {
	// GetInt returns the next decision in [low, high] and advances the cursor.
	GetInt(low, high int) (int, error)
	// Explicit reports whether the next draw comes from the fixed prefix.
	Explicit() bool
}

// Randomizer is the decision vector. It replays Data in order; positions past
// the stored data, or past the implicit index when one is set, yield the lower
// bound and are written back so Data always mirrors the last run.
type Randomizer struct {
	Data []int

	// Weights[v] is added to the score whenever v is drawn. Nil disables scoring.
	Weights []int

	index         int
	implicitIndex int
	score         int

	minimumVariables int
	maximumVariables int
}

func NewRandomizer(weights []int) *Randomizer {
	return &Randomizer{Weights: weights, implicitIndex: -1}
}

// Reset rewinds the cursor, clears the score and the implicit index. Data is kept.
func (r *Randomizer) Reset() {
	if r.index > 0 {
		r.observe()
	}
	r.index = 0
	r.score = 0
	r.implicitIndex = -1
}

func (r *Randomizer) observe() {
	if r.minimumVariables == 0 || r.index < r.minimumVariables {
		r.minimumVariables = r.index
	}
	if r.index > r.maximumVariables {
		r.maximumVariables = r.index
	}
}

func (r *Randomizer) GetInt(low, high int) (int, error) {
	var value int
	switch {
	case r.implicitIndex >= 0 && r.index > r.implicitIndex:
		value = low
		r.store(value)
	case r.index < len(r.Data):
		value = r.Data[r.index]
		if value < low || value > high {
			return 0, fmt.Errorf("index %d value %d not in [%d, %d]: %w", r.index, value, low, high, ErrDecisionRange)
		}
	default:
		value = low
		r.store(value)
	}

	if value >= 0 && value < len(r.Weights) {
		r.score += r.Weights[value]
	}
	r.index++
	return value, nil
}

func (r *Randomizer) store(value int) {
	if r.index < len(r.Data) {
		r.Data[r.index] = value
		return
	}
	r.Data = append(r.Data, value)
}

func (r *Randomizer) Explicit() bool {
	return r.implicitIndex < 0 || r.index <= r.implicitIndex
}

// SetImplicitIndex fixes Data[0..n] and makes every later draw yield its lower
// bound until the next Reset.
func (r *Randomizer) SetImplicitIndex(n int) {
	r.implicitIndex = n
}

func (r *Randomizer) Score() int { return r.score }

// Index is the number of decisions drawn since the last Reset.
func (r *Randomizer) Index() int { return r.index }

func (r *Randomizer) MinimumVariables() int { return r.minimumVariables }

func (r *Randomizer) MaximumVariables() int { return r.maximumVariables }

func (r *Randomizer) Snapshot() []int {
	return slices.Clone(r.Data)
}

func (r *Randomizer) Restore(data []int) {
	r.Data = slices.Clone(data)
}
