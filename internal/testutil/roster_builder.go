package testutil

import (
	"testing"

	"github.com/andishehs/MetaGen/core"
)

// RosterBuilder helps construct rosters with fluent chaining for tests.
// Example:
//
//	r := NewRosterBuilder().Rule(core.FixedOrder).Echo("A", "B", "C").Build(t)
type RosterBuilder struct {
	agents   []core.Agent
	rule     core.RotationRule
	excluded []string
}

// NewRosterBuilder creates a FreeForAll builder with no agents.
func NewRosterBuilder() *RosterBuilder { return &RosterBuilder{} }

// Rule sets the rotation rule (chainable).
func (b *RosterBuilder) Rule(r core.RotationRule) *RosterBuilder { b.rule = r; return b }

// Agent appends an agent bound to capability (chainable).
func (b *RosterBuilder) Agent(id string, capability core.Capability) *RosterBuilder {
	b.agents = append(b.agents, core.MustAgent(id, "role-"+id, capability))
	return b
}

// Echo appends agents that reply "<id>: turn <n>" (chainable).
func (b *RosterBuilder) Echo(ids ...string) *RosterBuilder {
	for _, id := range ids {
		b.Agent(id, Echo())
	}
	return b
}

// Exclude marks agents as excluded from repeat turns (chainable).
func (b *RosterBuilder) Exclude(ids ...string) *RosterBuilder {
	b.excluded = append(b.excluded, ids...)
	return b
}

// Build returns the roster, failing the test on invariant violations.
func (b *RosterBuilder) Build(t testing.TB) *core.Roster {
	t.Helper()
	r, err := core.NewRoster(b.agents, b.rule, b.excluded...)
	if err != nil {
		t.Fatalf("build roster: %v", err)
	}
	return r
}
