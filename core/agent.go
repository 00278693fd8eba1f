package core

import (
	"context"
	"fmt"
	"strings"
)

// Capability produces the next message for an agent given the ordered
// conversation so far (oldest first).
//
// Implementations may be slow, stateful or remote. They must honour ctx
// cancellation and must not retain or mutate the history slice. Returning an
// empty string is treated as a malformed response by the coordinator.
type Capability interface {
	Respond(ctx context.Context, agentID string, history []TranscriptEntry) (string, error)
}

// CapabilityFunc adapts an ordinary function to the Capability interface.
type CapabilityFunc func(ctx context.Context, agentID string, history []TranscriptEntry) (string, error)

// Respond calls f.
func (f CapabilityFunc) Respond(ctx context.Context, agentID string, history []TranscriptEntry) (string, error) {
	return f(ctx, agentID, history)
}

// Agent is a named participant of a roster. It is immutable once constructed
// and carries no conversational state of its own.
type Agent struct {
	id         string
	role       string
	capability Capability
}

// NewAgent constructs an Agent. The id must be non-empty and capability non-nil.
func NewAgent(id, role string, capability Capability) (Agent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Agent{}, fmt.Errorf("%w: agent id must not be empty", ErrInvalidRoster)
	}
	if capability == nil {
		return Agent{}, fmt.Errorf("%w: agent %q has no capability", ErrInvalidRoster, id)
	}
	return Agent{id: id, role: role, capability: capability}, nil
}

// MustAgent is like NewAgent but panics on error. Intended for tests and
// static wiring.
func MustAgent(id, role string, capability Capability) Agent {
	a, err := NewAgent(id, role, capability)
	if err != nil {
		panic(err)
	}
	return a
}

// ID returns the agent identifier, unique within a roster.
func (a Agent) ID() string { return a.id }

// Role returns the free-form role description.
func (a Agent) Role() string { return a.role }

// Capability returns the bound capability provider.
func (a Agent) Capability() Capability { return a.capability }

// Respond delegates to the bound capability. The agent never touches the
// transcript itself.
func (a Agent) Respond(ctx context.Context, history []TranscriptEntry) (string, error) {
	return a.capability.Respond(ctx, a.id, history)
}

// String implements fmt.Stringer.
func (a Agent) String() string {
	if a.role == "" {
		return a.id
	}
	return fmt.Sprintf("%s (%s)", a.id, a.role)
}
