package main

import (
	"fmt"
	"strings"
)

// Version is reported in the SPOONY header of every written route.
const Version = "2.1.0"

// FrameRate is the game's effective frames per second.
const FrameRate = 60.0988

func FramesToSeconds(frames float64) float64 {
	return frames / FrameRate
}

func formatTime(frames float64) string {
	return fmt.Sprintf("%.3f", FramesToSeconds(frames))
}

// SegmentSteps splits the steps logged for a segment back into the optional
// and extra steps the decision produced.
func SegmentSteps(entry *LogEntry) (optional, extra int) {
	in := entry.Instruction
	optional = min(in.OptionalSteps, entry.Steps-in.RequiredSteps)
	extra = entry.Steps - in.RequiredSteps - optional
	if extra%2 == 1 && optional > 0 {
		extra++
		optional--
	}
	return optional, extra
}

// FormatRoute renders the route report for e, comparing it against base.
func FormatRoute(e, base *Engine) string {
	var b strings.Builder

	fmt.Fprintf(&b, "ROUTE\t%s\n", e.Title())
	fmt.Fprintf(&b, "VERSION\t%d\n", e.Version())
	fmt.Fprintf(&b, "SPOONY\t%s\n", Version)
	fmt.Fprintf(&b, "SEED\t%d\n", e.Seed())
	fmt.Fprintf(&b, "MAXSTEP\t%d\n", e.MaximumExtraSteps())
	fmt.Fprintf(&b, "FRAMES\t%s\n", formatFrames(e.Frames()))
	b.WriteString("\n")

	totalOptional, totalExtra := 0, 0
	log := e.Log()
	for i := range log {
		entry := &log[i]
		indent := strings.Repeat("  ", entry.Indent)
		fmt.Fprintf(&b, "%s%s\n", indent, entry.Instruction.Text)

		optional, extra := SegmentSteps(entry)
		totalOptional += optional
		totalExtra += extra

		if entry.Instruction.OptionalSteps > 0 {
			fmt.Fprintf(&b, "%s  Optional Steps: %d\n", indent, optional)
		}
		if extra > 0 {
			fmt.Fprintf(&b, "%s  Extra Steps: %d\n", indent, extra)
		}
		for step := 1; step <= entry.Steps; step++ {
			enc, ok := entry.Encounters[step]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "%s  Step %3d: %s (%ss)\n", indent, step, enc.Description, formatTime(enc.AverageDuration))
		}
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%-18s %ss\n", "Encounter Time:", formatTime(e.EncounterFrames()))
	fmt.Fprintf(&b, "%-18s %ss\n", "Other Time:", formatTime(e.Frames()-e.EncounterFrames()))
	fmt.Fprintf(&b, "%-18s %ss\n", "Total Time:", formatTime(e.Frames()))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%-18s %ss\n", "Base Total Time:", formatTime(base.Frames()))
	fmt.Fprintf(&b, "%-18s %ss\n", "Time Saved:", formatTime(base.Frames()-e.Frames()))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%-18s %d\n", "Optional Steps:", totalOptional)
	fmt.Fprintf(&b, "%-18s %d\n", "Extra Steps:", totalExtra)
	fmt.Fprintf(&b, "%-18s %d\n", "Encounters:", e.EncounterCount())
	b.WriteString("\n")
	fmt.Fprintf(&b, "%-18s %d\n", "Base Encounters:", base.EncounterCount())
	fmt.Fprintf(&b, "%-18s %d\n", "Encounters Saved:", base.EncounterCount()-e.EncounterCount())

	return b.String()
}

// formatFrames prints whole frame counts without a fractional part.
func formatFrames(frames float64) string {
	if frames == float64(int64(frames)) {
		return fmt.Sprintf("%d", int64(frames))
	}
	return fmt.Sprintf("%.3f", frames)
}
