package core

import (
	"fmt"
	"sync"
	"time"
)

// Status is the lifecycle state of a session.
type Status int

const (
	// StatusRunning is the only non-terminal status.
	StatusRunning Status = iota
	// StatusCompletedNormally means the termination predicate matched.
	StatusCompletedNormally
	// StatusCompletedByRoundLimit means max_rounds was reached.
	StatusCompletedByRoundLimit
	// StatusFailed means configuration, capability or cancellation failure.
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCompletedNormally:
		return "completed_normally"
	case StatusCompletedByRoundLimit:
		return "completed_by_round_limit"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	st, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(v string) (Status, error) {
	for _, s := range []Status{StatusRunning, StatusCompletedNormally, StatusCompletedByRoundLimit, StatusFailed} {
		if s.String() == v {
			return s, nil
		}
	}
	return StatusFailed, fmt.Errorf("unknown session status %q", v)
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool { return s != StatusRunning }

// Session is the coordinator-owned state of one run. Only the coordinator
// mutates it; readers use the accessor methods.
type Session struct {
	ID        string
	Roster    *Roster
	MaxRounds int

	transcript    *Transcript
	currentRound  int
	status        Status
	failureReason string
	cause         error
	kickoff       bool
	started       time.Time
	ended         time.Time
	mu            sync.RWMutex
}

// NewSession creates a running session at round zero with an empty transcript.
func NewSession(id string, roster *Roster, maxRounds int) *Session {
	return &Session{
		ID:         id,
		Roster:     roster,
		MaxRounds:  maxRounds,
		transcript: NewTranscript(),
		status:     StatusRunning,
		started:    time.Now().UTC(),
	}
}

// Transcript returns the session transcript.
func (s *Session) Transcript() *Transcript { return s.transcript }

// Kickoff appends the synthetic round-zero entry carrying the task message.
// It must be called before the first round.
func (s *Session) Kickoff(speaker, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return ErrTerminalSession
	}
	if s.kickoff || s.currentRound != 0 || s.transcript.Len() != 0 {
		return fmt.Errorf("kickoff must precede the first round")
	}
	if err := s.transcript.Append(NewTranscriptEntry(0, speaker, message)); err != nil {
		return err
	}
	s.kickoff = true
	return nil
}

// HasKickoff reports whether a kickoff entry was recorded.
func (s *Session) HasKickoff() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kickoff
}

// RecordTurn appends the reply for the current round and advances the round
// counter. Turn rounds are numbered from 1; round 0 is reserved for kickoff.
func (s *Session) RecordTurn(speaker, content string) (TranscriptEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return TranscriptEntry{}, ErrTerminalSession
	}
	entry := NewTranscriptEntry(s.currentRound+1, speaker, content)
	if err := s.transcript.Append(entry); err != nil {
		return TranscriptEntry{}, err
	}
	s.currentRound++
	return entry, nil
}

// CurrentRound returns the number of completed rounds.
func (s *Session) CurrentRound() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentRound
}

// Status returns the current status.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Complete moves a running session into a successful terminal status.
func (s *Session) Complete(status Status) error {
	if status != StatusCompletedNormally && status != StatusCompletedByRoundLimit {
		return fmt.Errorf("complete: %s is not a completion status", status)
	}
	return s.transition(status, "", nil)
}

// Fail moves a running session into StatusFailed recording the cause.
// The reason defaults to the cause's message.
func (s *Session) Fail(reason string, cause error) error {
	if reason == "" && cause != nil {
		reason = cause.Error()
	}
	return s.transition(StatusFailed, reason, cause)
}

func (s *Session) transition(to Status, reason string, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrTerminalSession, s.status, to)
	}
	s.status = to
	s.failureReason = reason
	s.cause = cause
	s.ended = time.Now().UTC()
	return nil
}

// FailureReason returns the recorded reason for StatusFailed.
func (s *Session) FailureReason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failureReason
}

// Cause returns the underlying error of a failed session.
func (s *Session) Cause() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cause
}

// Started returns the creation time.
func (s *Session) Started() time.Time { return s.started }

// Ended returns the time the session became terminal (zero while running).
func (s *Session) Ended() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ended
}
