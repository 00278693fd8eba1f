package core

import (
	"fmt"
	"sync"
	"time"
)

// InitiatorID is the speaker of the synthetic kickoff entry when the task
// message is not attributed to a roster agent.
const InitiatorID = "initiator"

// TranscriptEntry is one turn of a session. Entries are immutable after append.
type TranscriptEntry struct {
	ID        string    `json:"id"`
	Round     int       `json:"round"`
	Speaker   string    `json:"speaker"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTranscriptEntry creates an entry stamped with a fresh id and the current
// UTC time.
func NewTranscriptEntry(round int, speaker, content string) TranscriptEntry {
	return TranscriptEntry{
		ID:        NewID(),
		Round:     round,
		Speaker:   speaker,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// TranscriptView is the read-only face of a transcript handed to outcome
// consumers.
type TranscriptView interface {
	Entries() []TranscriptEntry
	Len() int
	Last() (TranscriptEntry, bool)
}

// Transcript is an append-only, round-ordered log. A single writer (the
// coordinator) appends; any number of readers may observe it concurrently.
//
// Contract:
//   - Append rejects entries whose round is lower than the last entry's
//   - Entries returns a defensive copy
type Transcript struct {
	mu      sync.RWMutex
	entries []TranscriptEntry
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{entries: []TranscriptEntry{}}
}

// Append adds an entry to the end of the log.
func (t *Transcript) Append(e TranscriptEntry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e.Round < 0 {
		return fmt.Errorf("transcript: negative round %d", e.Round)
	}
	if n := len(t.entries); n > 0 && e.Round < t.entries[n-1].Round {
		return fmt.Errorf("transcript: round %d precedes last round %d", e.Round, t.entries[n-1].Round)
	}
	t.entries = append(t.entries, e)
	return nil
}

// Entries returns a copy of all entries, oldest first.
func (t *Transcript) Entries() []TranscriptEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]TranscriptEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Last returns the most recent entry.
func (t *Transcript) Last() (TranscriptEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.entries) == 0 {
		return TranscriptEntry{}, false
	}
	return t.entries[len(t.entries)-1], true
}

// Speakers returns the speaker sequence, oldest first.
func (t *Transcript) Speakers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Speaker
	}
	return out
}
