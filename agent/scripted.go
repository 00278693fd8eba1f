package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/andishehs/MetaGen/core"
)

// ErrScriptExhausted is returned by a non-looping Scripted capability once
// every line has been used.
var ErrScriptExhausted = errors.New("script exhausted")

// Scripted replies with predefined lines in order. It is the offline
// provider used for dry runs and tests.
type Scripted struct {
	mu    sync.Mutex
	lines []string
	next  int
	loop  bool
}

// NewScripted creates a Scripted capability. When loop is true the script
// restarts after the last line instead of failing.
func NewScripted(loop bool, lines ...string) *Scripted {
	return &Scripted{lines: append([]string(nil), lines...), loop: loop}
}

// Respond implements core.Capability.
func (s *Scripted) Respond(ctx context.Context, agentID string, _ []core.TranscriptEntry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.lines) {
		if !s.loop || len(s.lines) == 0 {
			return "", fmt.Errorf("%s: %w", agentID, ErrScriptExhausted)
		}
		s.next = 0
	}
	line := s.lines[s.next]
	s.next++
	return line, nil
}

// Remaining returns how many lines are left before the script ends or loops.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) - s.next
}

// Echo returns a capability that restates the most recent message, prefixed
// with the agent id. An empty history yields a greeting.
func Echo() core.Capability {
	return core.CapabilityFunc(func(ctx context.Context, agentID string, history []core.TranscriptEntry) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if len(history) == 0 {
			return fmt.Sprintf("%s: hello", agentID), nil
		}
		last := history[len(history)-1]
		return fmt.Sprintf("%s: re %s (%s)", agentID, last.Speaker, last.Content), nil
	})
}

// Static returns a capability that always replies with text.
func Static(text string) core.Capability {
	return core.CapabilityFunc(func(ctx context.Context, _ string, _ []core.TranscriptEntry) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return text, nil
	})
}
