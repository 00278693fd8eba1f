package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/andishehs/MetaGen/core"
)

// Human relays turns to a person at a terminal. The new entries since the
// agent's previous turn are printed to the writer, then one line is read.
type Human struct {
	mu     sync.Mutex
	lines  chan lineResult
	out    io.Writer
	prompt string
	seen   int
	once   sync.Once
	in     io.Reader
}

type lineResult struct {
	text string
	err  error
}

// NewHuman creates a human-in-the-loop capability reading from in and
// writing transcript updates to out.
func NewHuman(in io.Reader, out io.Writer) *Human {
	return &Human{in: in, out: out, prompt: "> ", lines: make(chan lineResult)}
}

// start launches the single reader goroutine. Reads block independently of
// any one call so an abandoned call does not lose the next line.
func (h *Human) start() {
	go func() {
		scanner := bufio.NewScanner(h.in)
		for scanner.Scan() {
			h.lines <- lineResult{text: scanner.Text()}
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		h.lines <- lineResult{err: err}
		close(h.lines)
	}()
}

// Respond implements core.Capability.
func (h *Human) Respond(ctx context.Context, agentID string, history []core.TranscriptEntry) (string, error) {
	h.once.Do(h.start)

	h.mu.Lock()
	start := h.seen
	if start > len(history) {
		start = 0
	}
	for _, e := range history[start:] {
		fmt.Fprintf(h.out, "[%d] %s: %s\n", e.Round, e.Speaker, e.Content)
	}
	h.seen = len(history) + 1
	fmt.Fprintf(h.out, "%s%s", agentID, h.prompt)
	h.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-h.lines:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimSpace(res.text), nil
	}
}
