package core

import (
	"fmt"
	"strings"
)

// RotationRule constrains which agent may speak next.
type RotationRule int

const (
	// FreeForAll lets any agent speak next; the lowest index wins.
	FreeForAll RotationRule = iota
	// NoImmediateRepeat forbids the previous speaker and recently active
	// agents listed in ExcludedFromRepeat.
	NoImmediateRepeat
	// FixedOrder cycles through agents in index order.
	FixedOrder
)

// String returns the canonical name of the rule.
func (r RotationRule) String() string {
	switch r {
	case FreeForAll:
		return "free_for_all"
	case NoImmediateRepeat:
		return "no_immediate_repeat"
	case FixedOrder:
		return "fixed_order"
	default:
		return fmt.Sprintf("rotation_rule(%d)", int(r))
	}
}

// Valid reports whether r is a known rule.
func (r RotationRule) Valid() bool {
	return r >= FreeForAll && r <= FixedOrder
}

// MarshalText implements encoding.TextMarshaler.
func (r RotationRule) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: unknown rotation rule %d", ErrInvalidRoster, int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RotationRule) UnmarshalText(b []byte) error {
	rule, err := ParseRotationRule(string(b))
	if err != nil {
		return err
	}
	*r = rule
	return nil
}

// ParseRotationRule accepts snake_case, kebab-case or CamelCase names.
func ParseRotationRule(s string) (RotationRule, error) {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(s)))
	switch norm {
	case "", "freeforall":
		return FreeForAll, nil
	case "noimmediaterepeat":
		return NoImmediateRepeat, nil
	case "fixedorder", "roundrobin":
		return FixedOrder, nil
	default:
		return FreeForAll, fmt.Errorf("%w: unknown rotation rule %q", ErrInvalidRoster, s)
	}
}

// Roster is the ordered, immutable set of agents taking part in one session
// together with their rotation constraints. Construct it with NewRoster.
type Roster struct {
	agents   []Agent
	rule     RotationRule
	excluded map[string]struct{}
	index    map[string]int
}

// NewRoster validates and builds a roster.
//
// Invariants:
//   - at least two agents
//   - unique agent ids
//   - a known rotation rule
//   - every excluded id references an agent of the roster
func NewRoster(agents []Agent, rule RotationRule, excludedFromRepeat ...string) (*Roster, error) {
	if len(agents) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 agents, got %d", ErrInvalidRoster, len(agents))
	}
	if !rule.Valid() {
		return nil, fmt.Errorf("%w: unknown rotation rule %d", ErrInvalidRoster, int(rule))
	}

	r := &Roster{
		agents:   make([]Agent, len(agents)),
		rule:     rule,
		excluded: make(map[string]struct{}, len(excludedFromRepeat)),
		index:    make(map[string]int, len(agents)),
	}
	copy(r.agents, agents)

	for i, a := range r.agents {
		if a.id == "" || a.capability == nil {
			return nil, fmt.Errorf("%w: agent at index %d is not initialised", ErrInvalidRoster, i)
		}
		if _, dup := r.index[a.id]; dup {
			return nil, fmt.Errorf("%w: duplicate agent id %q", ErrInvalidRoster, a.id)
		}
		r.index[a.id] = i
	}

	for _, id := range excludedFromRepeat {
		if _, ok := r.index[id]; !ok {
			return nil, fmt.Errorf("%w: excluded_from_repeat references unknown agent %q", ErrInvalidRoster, id)
		}
		r.excluded[id] = struct{}{}
	}

	return r, nil
}

// Agents returns a copy of the ordered agent list.
func (r *Roster) Agents() []Agent {
	out := make([]Agent, len(r.agents))
	copy(out, r.agents)
	return out
}

// Len returns the number of agents.
func (r *Roster) Len() int { return len(r.agents) }

// At returns the agent at index i.
func (r *Roster) At(i int) Agent { return r.agents[i] }

// Rule returns the rotation rule.
func (r *Roster) Rule() RotationRule { return r.rule }

// IndexOf returns the position of the agent with the given id.
func (r *Roster) IndexOf(id string) (int, bool) {
	i, ok := r.index[id]
	return i, ok
}

// Lookup returns the agent with the given id.
func (r *Roster) Lookup(id string) (Agent, bool) {
	i, ok := r.index[id]
	if !ok {
		return Agent{}, false
	}
	return r.agents[i], true
}

// IsExcludedFromRepeat reports whether id is listed in excluded_from_repeat.
func (r *Roster) IsExcludedFromRepeat(id string) bool {
	_, ok := r.excluded[id]
	return ok
}

// ExcludedFromRepeat returns the excluded ids in roster order.
func (r *Roster) ExcludedFromRepeat() []string {
	out := make([]string, 0, len(r.excluded))
	for _, a := range r.agents {
		if _, ok := r.excluded[a.id]; ok {
			out = append(out, a.id)
		}
	}
	return out
}
