package main

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// LoadRoute reads and parses the route JSON file at path.
func LoadRoute(path string) (*Route, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	route, err := ParseRoute(string(b))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return route, nil
}

// ParseRoute builds a Route from a JSON document with "encounters", "groups"
// and "route" arrays.
func ParseRoute(routeJSON string) (*Route, error) {
	if !gjson.Valid(routeJSON) {
		return nil, fmt.Errorf("invalid JSON")
	}

	encounters := buildEncounterTable(routeJSON)
	if err := bindGroups(encounters, routeJSON); err != nil {
		return nil, err
	}

	instructions, err := parseInstructions(gjson.Get(routeJSON, "route"))
	if err != nil {
		return nil, err
	}
	return &Route{Instructions: instructions, Encounters: encounters}, nil
}

func buildEncounterTable(routeJSON string) *Encounters {
	c := NewEncounters()
	gjson.Get(routeJSON, "encounters").ForEach(func(_, v gjson.Result) bool {
		c.Add(&Encounter{
			ID:              int(v.Get("id").Int()),
			Description:     v.Get("description").String(),
			AverageDuration: v.Get("duration").Float(),
		})
		return true
	})
	return c
}

func bindGroups(c *Encounters, routeJSON string) error {
	var err error
	gjson.Get(routeJSON, "groups").ForEach(func(_, g gjson.Result) bool {
		group := int(g.Get("id").Int())
		for slot, id := range readIntSlice(g.Get("slots")) {
			if err = c.SetSlot(group, slot, id); err != nil {
				return false
			}
		}
		return true
	})
	return err
}

func parseInstructions(v gjson.Result) ([]*Instruction, error) {
	var (
		out []*Instruction
		err error
	)
	v.ForEach(func(key, item gjson.Result) bool {
		var in *Instruction
		if in, err = parseInstruction(item); err != nil {
			err = fmt.Errorf("instruction %d: %w", key.Int(), err)
			return false
		}
		out = append(out, in)
		return true
	})
	return out, err
}

func parseInstruction(v gjson.Result) (*Instruction, error) {
	typ, ok := parseInstructionType(v.Get("type").String())
	if !ok {
		return nil, fmt.Errorf("%q: %w", v.Get("type").String(), ErrUnknownInstruction)
	}
	return &Instruction{
		Type:            typ,
		Text:            v.Get("text").String(),
		Number:          int(v.Get("number").Int()),
		Tiles:           int(v.Get("tiles").Int()),
		RequiredSteps:   int(v.Get("required").Int()),
		OptionalSteps:   int(v.Get("optional").Int()),
		EncounterRate:   int(v.Get("rate").Int()),
		EncounterGroup:  int(v.Get("group").Int()),
		TransitionCount: int(v.Get("transitions").Int()),
		CanSingleStep:   toBool(v.Get("single")),
		CanDoubleStep:   toBool(v.Get("double")),
		TakeExtraSteps:  toBool(v.Get("extra")),
	}, nil
}

func readIntSlice(v gjson.Result) []int {
	arr := v.Array()
	out := make([]int, len(arr))
	for i, item := range arr {
		out[i] = int(item.Int())
	}
	return out
}

func toBool(v gjson.Result) bool {
	switch v.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return v.Float() != 0
	}
	return false
}
