package testutil

import (
	"time"

	"github.com/andishehs/MetaGen/core"
)

// TranscriptBuilder builds transcript histories with deterministic ids and
// timestamps.
//
//	h := NewTranscriptBuilder().Kickoff("task").Turn("A", "hi").Turn("B", "yo").Entries()
type TranscriptBuilder struct {
	entries []core.TranscriptEntry
	clock   time.Time
}

// NewTranscriptBuilder starts an empty history.
func NewTranscriptBuilder() *TranscriptBuilder {
	return &TranscriptBuilder{clock: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)}
}

// Kickoff appends the round-zero initiator entry (chainable).
func (b *TranscriptBuilder) Kickoff(message string) *TranscriptBuilder {
	return b.add(0, core.InitiatorID, message)
}

// Turn appends the next round spoken by speaker (chainable).
func (b *TranscriptBuilder) Turn(speaker, content string) *TranscriptBuilder {
	round := 1
	if n := len(b.entries); n > 0 {
		round = b.entries[n-1].Round + 1
	}
	return b.add(round, speaker, content)
}

func (b *TranscriptBuilder) add(round int, speaker, content string) *TranscriptBuilder {
	b.clock = b.clock.Add(time.Second)
	b.entries = append(b.entries, core.TranscriptEntry{
		ID:        speaker + "-" + b.clock.Format("150405"),
		Round:     round,
		Speaker:   speaker,
		Content:   content,
		Timestamp: b.clock,
	})
	return b
}

// Entries returns a copy of the built history.
func (b *TranscriptBuilder) Entries() []core.TranscriptEntry {
	return append([]core.TranscriptEntry(nil), b.entries...)
}

// Transcript returns the history as a *core.Transcript.
func (b *TranscriptBuilder) Transcript() *core.Transcript {
	t := core.NewTranscript()
	for _, e := range b.entries {
		_ = t.Append(e)
	}
	return t
}
