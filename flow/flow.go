// Package flow decides who speaks next in a session.
//
// Each rotation rule of a roster maps to a Selector. Selection is a pure
// function of the roster and the transcript history so that identical
// histories always yield the same speaker.
package flow

import (
	"github.com/andishehs/MetaGen/core"
)

// Selector picks the next speaker given the ordered history (oldest first).
//
// Implementations must be deterministic and side-effect free. They return
// core.ErrNoEligibleSpeaker when no agent may speak.
type Selector interface {
	Next(roster *core.Roster, history []core.TranscriptEntry) (core.Agent, error)
}

// SelectorFunc adapts a function to the Selector interface.
type SelectorFunc func(roster *core.Roster, history []core.TranscriptEntry) (core.Agent, error)

// Next calls f.
func (f SelectorFunc) Next(roster *core.Roster, history []core.TranscriptEntry) (core.Agent, error) {
	return f(roster, history)
}

// lastRosterSpeaker returns the roster index of the most recent speaker, or
// -1 when history is empty or the last speaker is not a roster member (for
// example the synthetic initiator).
func lastRosterSpeaker(roster *core.Roster, history []core.TranscriptEntry) int {
	if len(history) == 0 {
		return -1
	}
	idx, ok := roster.IndexOf(history[len(history)-1].Speaker)
	if !ok {
		return -1
	}
	return idx
}
