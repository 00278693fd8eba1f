package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/andishehs/MetaGen/core"
)

// Archive is a volatile core.OutcomeStore storing outcome records in a
// process local map. It is safe for concurrent access. Records are copied on
// the way in and out so callers cannot mutate stored transcripts.
type Archive struct {
	mu      sync.RWMutex
	records map[string]core.OutcomeRecord
	order   []string
}

// NewArchive constructs an empty archive.
func NewArchive() *Archive {
	return &Archive{records: make(map[string]core.OutcomeRecord)}
}

// SaveOutcome stores rec. A record is written once; saving the same session
// id again is an error.
func (a *Archive) SaveOutcome(ctx context.Context, rec core.OutcomeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.SessionID == "" {
		return fmt.Errorf("%w: outcome without session id", core.ErrInvalidSession)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.records[rec.SessionID]; ok {
		return fmt.Errorf("%w: outcome %s already archived", core.ErrInvalidSession, rec.SessionID)
	}
	a.records[rec.SessionID] = clone(rec)
	a.order = append(a.order, rec.SessionID)
	return nil
}

// GetOutcome returns the record of a session.
func (a *Archive) GetOutcome(_ context.Context, sessionID string) (*core.OutcomeRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	rec, ok := a.records[sessionID]
	if !ok {
		return nil, fmt.Errorf("outcome %s: %w", sessionID, core.ErrNotFound)
	}
	out := clone(rec)
	return &out, nil
}

// ListOutcomes returns the records of an orchestra ordered by start time, or
// every record when orchestra is empty.
func (a *Archive) ListOutcomes(_ context.Context, orchestra string) ([]core.OutcomeRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]core.OutcomeRecord, 0, len(a.order))
	for _, id := range a.order {
		rec := a.records[id]
		if orchestra != "" && rec.Orchestra != orchestra {
			continue
		}
		out = append(out, clone(rec))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

// Len returns the number of archived records.
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records)
}

func clone(rec core.OutcomeRecord) core.OutcomeRecord {
	rec.Transcript = append([]core.TranscriptEntry{}, rec.Transcript...)
	return rec
}
