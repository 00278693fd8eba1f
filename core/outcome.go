package core

import "time"

// Outcome is the read-only summary of a terminal session.
type Outcome struct {
	SessionID string
	Status    Status
	// Transcript references the session's own log; it is never copied.
	Transcript TranscriptView
	// FailureReason is set only when Status is StatusFailed.
	FailureReason string
	// Rounds is the number of completed (non-kickoff) rounds.
	Rounds    int
	Kickoff   bool
	Err       error
	StartedAt time.Time
	EndedAt   time.Time
}

// Report derives the outcome of a terminal session. Calling it on a running
// session is a programming error and panics.
func Report(s *Session) Outcome {
	status := s.Status()
	if !status.Terminal() {
		panic("core: Report called on running session " + s.ID)
	}
	out := Outcome{
		SessionID:  s.ID,
		Status:     status,
		Transcript: s.Transcript(),
		Rounds:     s.CurrentRound(),
		Kickoff:    s.HasKickoff(),
		StartedAt:  s.Started(),
		EndedAt:    s.Ended(),
	}
	if status == StatusFailed {
		out.FailureReason = s.FailureReason()
		out.Err = s.Cause()
	}
	return out
}

// Succeeded reports whether the session completed without failure.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusCompletedNormally || o.Status == StatusCompletedByRoundLimit
}

// Cancelled reports whether the session failed because it was cancelled.
func (o Outcome) Cancelled() bool {
	return o.Status == StatusFailed && o.FailureReason == ErrCancelled.Error()
}

// Entries returns the transcript entries or nil when no transcript exists.
func (o Outcome) Entries() []TranscriptEntry {
	if o.Transcript == nil {
		return nil
	}
	return o.Transcript.Entries()
}

// Duration returns the wall clock time between start and end.
func (o Outcome) Duration() time.Duration { return o.EndedAt.Sub(o.StartedAt) }
