package runner

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andishehs/MetaGen/agent"
	"github.com/andishehs/MetaGen/artifact"
	"github.com/andishehs/MetaGen/builder"
	"github.com/andishehs/MetaGen/core"
	"github.com/andishehs/MetaGen/engine"
	"github.com/andishehs/MetaGen/registry"
	"github.com/andishehs/MetaGen/session"
)

type fixture struct {
	runner    *Runner
	registry  *registry.InMemoryStore
	artifacts *artifact.InMemoryStore
	outcomes  *session.Archive
}

func newFixture(t *testing.T, optFns ...func(o *Options)) *fixture {
	t.Helper()

	f := &fixture{
		registry:  registry.NewInMemoryStore(registry.Samples()...),
		artifacts: artifact.NewInMemoryStore(),
		outcomes:  session.NewArchive(),
	}
	factory := agent.NewFactory(func(o *agent.FactoryOptions) {
		o.Provider = agent.ProviderScripted
	})

	fns := append([]func(o *Options){func(o *Options) {
		o.Artifacts = f.artifacts
		o.Outcomes = f.outcomes
		o.MaxRounds = 4
	}}, optFns...)
	f.runner = New(f.registry, factory, fns...)
	return f
}

func (f *fixture) save(t *testing.T, name, description, definition string) {
	t.Helper()
	require.NoError(t, f.registry.Save(context.Background(), &core.Orchestra{
		Name:        name,
		Description: description,
		Definition:  json.RawMessage(definition),
	}))
}

func TestRunner_RunSeedOrchestraUsesTemplateTeam(t *testing.T) {
	f := newFixture(t)

	res, err := f.runner.Run(context.Background(), "Melody Makers")
	require.NoError(t, err)

	out := res.Outcome
	assert.Equal(t, core.StatusCompletedByRoundLimit, out.Status)
	assert.Equal(t, 4, out.Rounds)
	assert.True(t, out.Kickoff)

	entries := out.Entries()
	require.Len(t, entries, 5)
	assert.Equal(t, "planner", entries[0].Speaker)
	assert.Equal(t, "A family-friendly orchestra with lighthearted performances.", entries[0].Content)
	assert.Equal(t, "planner: acknowledged.", entries[1].Content)

	assert.Equal(t, "family", res.Definition.Type)
	assert.Equal(t, []string{"planner", "domain_expert", "critic"}, res.Definition.Names())

	names, err := f.artifacts.List("")
	require.NoError(t, err)
	assert.Contains(t, names, "Melody_Makers_config.json")
	assert.Contains(t, names, out.SessionID+"_transcript.json")
	assert.Equal(t, "mem://Melody_Makers_config.json", res.ConfigPath)

	rec, err := f.outcomes.GetOutcome(context.Background(), out.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Melody Makers", rec.Orchestra)
	assert.Len(t, rec.Transcript, 5)

	data, err := f.artifacts.Get("", out.SessionID+"_transcript.json")
	require.NoError(t, err)
	var exported core.OutcomeRecord
	require.NoError(t, json.Unmarshal(data, &exported))
	assert.Equal(t, core.StatusCompletedByRoundLimit, exported.Status)
}

func TestRunner_RunStoredDefinition(t *testing.T) {
	f := newFixture(t)
	f.save(t, "Duo", "finish the song", `{
		"rotation_rule": "fixed_order",
		"termination_marker": "DONE",
		"agent_configs": [
			{"name": "writer", "provider": "scripted", "script": ["verse one"]},
			{"name": "editor", "provider": "scripted", "script": ["looks good DONE"]}
		]
	}`)

	res, err := f.runner.Run(context.Background(), "Duo")
	require.NoError(t, err)

	out := res.Outcome
	assert.Equal(t, core.StatusCompletedNormally, out.Status)
	assert.Equal(t, 1, out.Rounds)

	entries := out.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "writer", entries[0].Speaker)
	assert.Equal(t, "editor", entries[1].Speaker)
	assert.Equal(t, "looks good DONE", entries[1].Content)
}

func TestRunner_RunOptions(t *testing.T) {
	f := newFixture(t)

	res, err := f.runner.Run(context.Background(), "Symphony of Stars", func(o *RunOptions) {
		o.SessionID = "sess-42"
		o.Message = "custom kickoff"
		o.MaxRounds = 2
	})
	require.NoError(t, err)

	assert.Equal(t, "sess-42", res.Outcome.SessionID)
	assert.Equal(t, 2, res.Outcome.Rounds)
	assert.Equal(t, "custom kickoff", res.Outcome.Entries()[0].Content)
}

func TestRunner_RunWithoutKickoff(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Kickoff = false })

	res, err := f.runner.Run(context.Background(), "Harmonic Horizons")
	require.NoError(t, err)

	assert.False(t, res.Outcome.Kickoff)
	assert.Len(t, res.Outcome.Entries(), 4)
}

func TestRunner_NilStoresFallBackToMemory(t *testing.T) {
	factory := agent.NewFactory(func(o *agent.FactoryOptions) { o.Provider = agent.ProviderScripted })
	r := New(registry.NewInMemoryStore(registry.Samples()...), factory, func(o *Options) {
		o.Outcomes = nil
		o.Artifacts = nil
		o.MaxRounds = 2
	})

	ctx := context.Background()
	res, err := r.Run(ctx, "Melody Makers")
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompletedByRoundLimit, res.Outcome.Status)
	assert.Equal(t, "mem://Melody_Makers_config.json", res.ConfigPath)

	recs, err := r.Outcomes(ctx, "Melody Makers")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, res.Outcome.SessionID, recs[0].SessionID)
}

func TestRunner_RunErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.runner.Run(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	f.save(t, "Broken", "bad", `{"agent_configs": [{"name": "bad name!"}]}`)
	_, err = f.runner.Run(context.Background(), "Broken")
	assert.ErrorIs(t, err, builder.ErrInvalidDefinition)

	f.save(t, "Solo", "one agent", `{"agent_configs": [{"name": "a", "provider": "echo"}]}`)
	_, err = f.runner.Run(context.Background(), "Solo")
	assert.ErrorIs(t, err, core.ErrInvalidRoster)
}

func TestRunner_ConfigurationFailureIsPersisted(t *testing.T) {
	f := newFixture(t)
	f.save(t, "Stuck", "nobody may speak", `{
		"rotation_rule": "no_immediate_repeat",
		"excluded_from_repeat": ["a", "b"],
		"agent_configs": [{"name": "a", "provider": "echo"}, {"name": "b", "provider": "echo"}]
	}`)

	res, err := f.runner.Run(context.Background(), "Stuck")
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, res.Outcome.Status)
	assert.ErrorIs(t, res.Outcome.Err, core.ErrNoEligibleSpeaker)
	assert.Empty(t, res.Outcome.Entries())

	recs, err := f.runner.Outcomes(context.Background(), "Stuck")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, core.StatusFailed, recs[0].Status)
}

func TestRunner_Build(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orch, err := f.runner.Build(ctx, "  Night Shift ", "write a lullaby")
	require.NoError(t, err)
	assert.Equal(t, "Night Shift", orch.Name)
	assert.Equal(t, core.Today(), orch.Date)

	loaded, err := f.runner.Describe(ctx, "Night Shift")
	require.NoError(t, err)
	assert.Equal(t, "write a lullaby", loaded.Description)

	def, err := builder.ParseDefinition(loaded.Definition, builder.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "save_config_Night_Shift.json", def.File)
	assert.True(t, def.HasAgents())

	_, err = f.artifacts.Get("", "save_config_Night_Shift.json")
	require.NoError(t, err)

	names, err := f.runner.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, "Night Shift")

	res, err := f.runner.Run(ctx, "Night Shift")
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompletedByRoundLimit, res.Outcome.Status)
}

func TestRunner_BuildRejectsBlankInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.runner.Build(context.Background(), " ", "task")
	assert.ErrorIs(t, err, ErrInvalidOrchestra)

	_, err = f.runner.Build(context.Background(), "name", "")
	assert.ErrorIs(t, err, ErrInvalidOrchestra)
}

func TestRunner_Cancel(t *testing.T) {
	coord := engine.New()
	f := newFixture(t, func(o *Options) {
		o.Coordinator = coord
		o.MaxRounds = 10
	})

	coord.Callbacks().On(engine.CallbackAfterRound, func(_ context.Context, cc *engine.CallbackContext) error {
		if cc.Round == 2 {
			return f.runner.Cancel(cc.SessionID)
		}
		return nil
	})

	res, err := f.runner.Run(context.Background(), "Melody Makers")
	require.NoError(t, err)

	assert.True(t, res.Outcome.Cancelled())
	assert.Equal(t, 2, res.Outcome.Rounds)
	assert.ErrorIs(t, f.runner.Cancel(res.Outcome.SessionID), core.ErrNotFound)

	rec, err := f.outcomes.GetOutcome(context.Background(), res.Outcome.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", rec.FailureReason)
}
