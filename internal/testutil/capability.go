package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/andishehs/MetaGen/core"
)

// Echo returns a capability replying "<agent>: turn <len(history)>".
func Echo() core.Capability {
	return core.CapabilityFunc(func(_ context.Context, agentID string, history []core.TranscriptEntry) (string, error) {
		return fmt.Sprintf("%s: turn %d", agentID, len(history)), nil
	})
}

// Reply returns a capability that always answers text.
func Reply(text string) core.Capability {
	return core.CapabilityFunc(func(context.Context, string, []core.TranscriptEntry) (string, error) {
		return text, nil
	})
}

// Failing returns a capability that always fails with err.
func Failing(err error) core.Capability {
	return core.CapabilityFunc(func(context.Context, string, []core.TranscriptEntry) (string, error) {
		return "", err
	})
}

// Blocking returns a capability that waits for ctx to end.
func Blocking() core.Capability {
	return core.CapabilityFunc(func(ctx context.Context, _ string, _ []core.TranscriptEntry) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
}

// Counting wraps a capability and counts calls.
type Counting struct {
	Inner core.Capability
	calls atomic.Int64
}

// Respond implements core.Capability.
func (c *Counting) Respond(ctx context.Context, agentID string, history []core.TranscriptEntry) (string, error) {
	c.calls.Add(1)
	return c.Inner.Respond(ctx, agentID, history)
}

// Calls returns the number of calls made so far.
func (c *Counting) Calls() int { return int(c.calls.Load()) }

// Script replies with a fixed sequence of results, one per call. Once the
// script is exhausted the last step repeats.
type Script struct {
	mu    sync.Mutex
	steps []Step
	next  int
	seen  [][]core.TranscriptEntry
}

// Step is one scripted reply.
type Step struct {
	Content string
	Err     error
}

// NewScript creates a Script.
func NewScript(steps ...Step) *Script { return &Script{steps: steps} }

// Respond implements core.Capability.
func (s *Script) Respond(_ context.Context, _ string, history []core.TranscriptEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, append([]core.TranscriptEntry(nil), history...))
	if len(s.steps) == 0 {
		return "", fmt.Errorf("empty script")
	}
	i := s.next
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	} else {
		s.next++
	}
	return s.steps[i].Content, s.steps[i].Err
}

// Histories returns the history passed to each call.
func (s *Script) Histories() [][]core.TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]core.TranscriptEntry(nil), s.seen...)
}
