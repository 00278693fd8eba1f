package core

import (
	"context"
	"encoding/json"
	"time"
)

// Orchestra is a named, persisted multi-agent task definition.
// Definition holds the raw roster-building document (JSON).
type Orchestra struct {
	ID          int64           `json:"id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Definition  json.RawMessage `json:"json_data"`
}

// DateLayout is the calendar date format used for Orchestra.Date.
const DateLayout = "2006-01-02"

// Today returns the current date formatted with DateLayout.
func Today() string { return time.Now().Format(DateLayout) }

// Registry is the durable store of orchestras. The coordinator never talks to
// it directly; callers load before a session and persist after it.
type Registry interface {
	Load(ctx context.Context, name string) (*Orchestra, error)
	Save(ctx context.Context, o *Orchestra) error
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// Builder turns a task description into a concrete roster.
type Builder interface {
	Build(ctx context.Context, task string) (*Roster, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(ctx context.Context, task string) (*Roster, error)

// Build calls f.
func (f BuilderFunc) Build(ctx context.Context, task string) (*Roster, error) { return f(ctx, task) }

// OutcomeRecord is the persisted form of an Outcome.
type OutcomeRecord struct {
	SessionID     string            `json:"session_id"`
	Orchestra     string            `json:"orchestra"`
	Status        Status            `json:"status"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Rounds        int               `json:"rounds"`
	Transcript    []TranscriptEntry `json:"transcript"`
	StartedAt     time.Time         `json:"started_at"`
	EndedAt       time.Time         `json:"ended_at"`
}

// NewOutcomeRecord snapshots an outcome for persistence.
func NewOutcomeRecord(orchestra string, o Outcome) OutcomeRecord {
	entries := o.Entries()
	if entries == nil {
		entries = []TranscriptEntry{}
	}
	return OutcomeRecord{
		SessionID:     o.SessionID,
		Orchestra:     orchestra,
		Status:        o.Status,
		FailureReason: o.FailureReason,
		Rounds:        o.Rounds,
		Transcript:    entries,
		StartedAt:     o.StartedAt,
		EndedAt:       o.EndedAt,
	}
}

// OutcomeStore persists finished sessions.
type OutcomeStore interface {
	SaveOutcome(ctx context.Context, rec OutcomeRecord) error
	GetOutcome(ctx context.Context, sessionID string) (*OutcomeRecord, error)
	ListOutcomes(ctx context.Context, orchestra string) ([]OutcomeRecord, error)
}

// ArtifactStore persists exported files (configurations, transcripts) scoped
// by a namespace such as an orchestra or session id.
type ArtifactStore interface {
	Save(namespace, name string, data []byte) (string, error)
	Get(namespace, name string) ([]byte, error)
	List(namespace string) ([]string, error)
	Delete(namespace, name string) error
}
