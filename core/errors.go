package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRoster reports a roster that violates its invariants (fewer
	// than two agents, duplicate ids, unknown rotation rule, dangling
	// excluded_from_repeat ids).
	ErrInvalidRoster = errors.New("invalid roster")

	// ErrNoEligibleSpeaker reports a rotation configuration that leaves no
	// agent able to speak.
	ErrNoEligibleSpeaker = errors.New("no eligible speaker")

	// ErrInvalidSession reports bad session parameters such as a
	// non-positive max_rounds.
	ErrInvalidSession = errors.New("invalid session parameters")

	// ErrCancelled is the cause recorded when a session observes cancellation
	// between rounds.
	ErrCancelled = errors.New("cancelled")

	// ErrNotFound is returned by stores for unknown keys.
	ErrNotFound = errors.New("not found")

	// ErrTerminalSession is returned when a transition out of a terminal
	// status is attempted.
	ErrTerminalSession = errors.New("session already terminal")

	// ErrEmptyResponse marks a capability reply with no content.
	ErrEmptyResponse = errors.New("empty response")
)

// CapabilityError wraps a failed call to an agent's capability provider
// (timeout, transport error, malformed output). It is retryable within the
// coordinator's retry budget.
type CapabilityError struct {
	AgentID string
	Round   int
	Attempt int
	Err     error
}

// Error implements error.
func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability error: agent %s round %d attempt %d: %v", e.AgentID, e.Round, e.Attempt, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CapabilityError) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err is one of the configuration
// errors that abort a session before any round executes.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidRoster) || errors.Is(err, ErrNoEligibleSpeaker) || errors.Is(err, ErrInvalidSession)
}
