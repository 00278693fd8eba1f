package metagen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andishehs/MetaGen/artifact"
	"github.com/andishehs/MetaGen/config"
	"github.com/andishehs/MetaGen/core"
	"github.com/andishehs/MetaGen/logging"
	"github.com/andishehs/MetaGen/model"
	"github.com/andishehs/MetaGen/registry"
	"github.com/andishehs/MetaGen/runner"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(dir, "orchestra.db")
	cfg.ArtifactDir = filepath.Join(dir, "log")
	cfg.Provider = "scripted"
	cfg.MaxRounds = 3
	return cfg
}

func TestNew_DefaultStoresOnDisk(t *testing.T) {
	cfg := testConfig(t)

	m, err := New(func(o *Options) { o.Config = cfg })
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	ctx := context.Background()
	names, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Symphony of Stars", "Harmonic Horizons", "Melody Makers"}, names)

	res, err := m.Run(ctx, "Symphony of Stars")
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompletedByRoundLimit, res.Outcome.Status)
	assert.Equal(t, 3, res.Outcome.Rounds)

	_, err = os.Stat(filepath.Join(cfg.ArtifactDir, "Symphony_of_Stars_config.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.ArtifactDir, res.Outcome.SessionID+"_transcript.json"))
	assert.NoError(t, err)

	recs, err := m.Outcomes(ctx, "Symphony of Stars")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, res.Outcome.SessionID, recs[0].SessionID)
}

func TestMetaGen_BuildWithModelDesigner(t *testing.T) {
	cfg := testConfig(t)
	cfg.Provider = "mock"
	cfg.Builder = config.BuilderModel

	llm := model.NewMockModel("designer", "mock")
	llm.Enqueue(`{"rotation_rule": "fixed_order", "agent_configs": [
		{"name": "lyricist", "provider": "scripted", "script": ["a line"]},
		{"name": "composer", "provider": "scripted", "script": ["a tune TERMINATE"]}
	]}`)

	store := artifact.NewInMemoryStore()
	m, err := New(func(o *Options) {
		o.Config = cfg
		o.Registry = registry.NewInMemoryStore()
		o.Outcomes = nil
		o.Artifacts = store
		o.Models = map[string]model.Model{"mock": llm}
	})
	require.NoError(t, err)

	ctx := context.Background()
	orch, err := m.Build(ctx, "Song Team", "write a song")
	require.NoError(t, err)
	assert.Equal(t, "write a song", orch.Description)

	_, err = store.Get("", "save_config_Song_Team.json")
	require.NoError(t, err)

	res, err := m.Run(ctx, "Song Team")
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompletedNormally, res.Outcome.Status)
	assert.Equal(t, "composer", res.Outcome.Entries()[1].Speaker)
	require.NotNil(t, res.Definition.DefaultLLMConfig)
	assert.Equal(t, "mock", res.Definition.DefaultLLMConfig.Provider)

	recs, err := m.Outcomes(ctx, "Song Team")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, res.Outcome.SessionID, recs[0].SessionID)
}

func TestMetaGen_LoggerObservesRounds(t *testing.T) {
	cfg := testConfig(t)
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "text", Output: &buf})

	m, err := New(func(o *Options) {
		o.Config = cfg
		o.Registry = registry.NewInMemoryStore(registry.Samples()...)
		o.Artifacts = artifact.NewInMemoryStore()
		o.Logger = logger
	})
	require.NoError(t, err)

	res, err := m.Run(context.Background(), "Melody Makers", func(o *runner.RunOptions) { o.MaxRounds = 1 })
	require.NoError(t, err)
	assert.Equal(t, 1, res.Outcome.Rounds)

	assert.Contains(t, buf.String(), "round completed")
	assert.Contains(t, buf.String(), "session ended")
}

func TestMetaGen_CancelUnknownSession(t *testing.T) {
	m, err := New(func(o *Options) {
		o.Config = testConfig(t)
		o.Registry = registry.NewInMemoryStore()
		o.Artifacts = artifact.NewInMemoryStore()
	})
	require.NoError(t, err)
	assert.ErrorIs(t, m.Cancel("nope"), core.ErrNotFound)
	assert.NoError(t, m.Close())
}
