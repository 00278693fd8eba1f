package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andishehs/MetaGen/core"
)

// Interface compliance (compile-time assertion)
var _ core.OutcomeStore = (*Archive)(nil)

func record(id, orchestra string, start time.Time) core.OutcomeRecord {
	return core.OutcomeRecord{
		SessionID: id,
		Orchestra: orchestra,
		Status:    core.StatusCompletedByRoundLimit,
		Rounds:    1,
		Transcript: []core.TranscriptEntry{
			core.NewTranscriptEntry(0, core.InitiatorID, "go"),
			core.NewTranscriptEntry(1, "a", "done"),
		},
		StartedAt: start,
		EndedAt:   start.Add(time.Second),
	}
}

func TestArchive_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	a := NewArchive()

	rec := record("s1", "Melody Makers", time.Now())
	require.NoError(t, a.SaveOutcome(ctx, rec))

	rec.Transcript[1].Content = "mutated"

	got, err := a.GetOutcome(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "done", got.Transcript[1].Content)
	assert.Equal(t, core.StatusCompletedByRoundLimit, got.Status)

	got.Transcript[0].Content = "mutated"
	again, err := a.GetOutcome(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "go", again.Transcript[0].Content)
}

func TestArchive_Errors(t *testing.T) {
	ctx := context.Background()
	a := NewArchive()

	_, err := a.GetOutcome(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, a.SaveOutcome(ctx, core.OutcomeRecord{}), core.ErrInvalidSession)

	require.NoError(t, a.SaveOutcome(ctx, record("s1", "x", time.Now())))
	assert.ErrorIs(t, a.SaveOutcome(ctx, record("s1", "x", time.Now())), core.ErrInvalidSession)
	assert.Equal(t, 1, a.Len())
}

func TestArchive_ListOutcomes(t *testing.T) {
	ctx := context.Background()
	a := NewArchive()
	base := time.Now()

	require.NoError(t, a.SaveOutcome(ctx, record("late", "stars", base.Add(time.Minute))))
	require.NoError(t, a.SaveOutcome(ctx, record("early", "stars", base)))
	require.NoError(t, a.SaveOutcome(ctx, record("other", "horizons", base)))

	stars, err := a.ListOutcomes(ctx, "stars")
	require.NoError(t, err)
	require.Len(t, stars, 2)
	assert.Equal(t, "early", stars[0].SessionID)
	assert.Equal(t, "late", stars[1].SessionID)

	all, err := a.ListOutcomes(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
