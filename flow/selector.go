package flow

import (
	"fmt"

	"github.com/andishehs/MetaGen/core"
)

// For returns the Selector implementing the given rotation rule.
func For(rule core.RotationRule) (Selector, error) {
	switch rule {
	case core.FixedOrder:
		return FixedOrder{}, nil
	case core.NoImmediateRepeat:
		return NoImmediateRepeat{}, nil
	case core.FreeForAll:
		return FreeForAll{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown rotation rule %d", core.ErrInvalidRoster, int(rule))
	}
}

// Preflight checks a roster for rotation configurations that can never
// yield a speaker. It runs at session start, before any round.
//
// A two-agent NoImmediateRepeat roster with both agents in
// excluded_from_repeat is rejected. With three or more agents the exclusion
// window of len(agents)-1 entries always leaves one candidate, so every
// agent may be excluded.
func Preflight(roster *core.Roster) error {
	if roster == nil {
		return fmt.Errorf("%w: nil roster", core.ErrInvalidRoster)
	}
	if roster.Rule() == core.NoImmediateRepeat && roster.Len() == 2 && len(roster.ExcludedFromRepeat()) == 2 {
		return fmt.Errorf("%w: both agents are excluded from repeat under %s", core.ErrNoEligibleSpeaker, roster.Rule())
	}
	return nil
}

// FixedOrder cycles through the roster in index order. The agent after the
// last roster speaker goes next, wrapping at the end; with no roster speaker
// yet the first agent starts.
type FixedOrder struct{}

// Next implements Selector.
func (FixedOrder) Next(roster *core.Roster, history []core.TranscriptEntry) (core.Agent, error) {
	last := lastRosterSpeaker(roster, history)
	return roster.At((last + 1) % roster.Len()), nil
}

// NoImmediateRepeat forbids the previous speaker, and any agent listed in
// excluded_from_repeat that spoke within the last len(agents)-1 entries.
// Among the remaining candidates the lowest index wins.
type NoImmediateRepeat struct{}

// Next implements Selector.
func (NoImmediateRepeat) Next(roster *core.Roster, history []core.TranscriptEntry) (core.Agent, error) {
	last := lastRosterSpeaker(roster, history)

	window := roster.Len() - 1
	start := len(history) - window
	if start < 0 {
		start = 0
	}
	recent := make(map[string]struct{}, window)
	for _, e := range history[start:] {
		recent[e.Speaker] = struct{}{}
	}

	for i := 0; i < roster.Len(); i++ {
		if i == last {
			continue
		}
		a := roster.At(i)
		if _, spoke := recent[a.ID()]; spoke && roster.IsExcludedFromRepeat(a.ID()) {
			continue
		}
		return a, nil
	}
	return core.Agent{}, core.ErrNoEligibleSpeaker
}

// FreeForAll lets any agent speak; without a priority signal the lowest
// index is authoritative.
type FreeForAll struct{}

// Next implements Selector.
func (FreeForAll) Next(roster *core.Roster, _ []core.TranscriptEntry) (core.Agent, error) {
	return roster.At(0), nil
}
