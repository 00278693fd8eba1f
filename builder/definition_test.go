package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andishehs/MetaGen/agent"
	"github.com/andishehs/MetaGen/core"
)

const jsonDefinition = `{
  "building_task": "write a haiku",
  "agent_configs": [
    {"name": "poet", "role": "writes", "provider": "scripted", "script": ["an old silent pond"]},
    {"name": "editor", "role": "edits", "provider": "scripted", "script": ["TERMINATE"]}
  ],
  "rotation_rule": "fixed_order",
  "max_rounds": 4
}`

const yamlDefinition = `
building_task: build a parser
coding: true
agent_configs:
  - name: architect
    provider: echo
  - name: coder
    provider: echo
  - name: executor
    provider: echo
default_llm_config:
  provider: mock
  temperature: 0.5
`

const tomlDefinition = `
building_task = "plan a trip"
rotation_rule = "no-immediate-repeat"
excluded_from_repeat = ["guide"]

[[agent_configs]]
name = "guide"
provider = "echo"

[[agent_configs]]
name = "traveller"
provider = "echo"
`

func testFactory() *agent.Factory {
	return agent.NewFactory(func(o *agent.FactoryOptions) {
		o.Provider = agent.ProviderMock
		o.BreakerFailures = 0
	})
}

func TestParseDefinition_Formats(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		def, err := ParseDefinition([]byte(jsonDefinition), FormatJSON)
		require.NoError(t, err)
		assert.Equal(t, "write a haiku", def.BuildingTask)
		assert.Equal(t, []string{"poet", "editor"}, def.Names())
		assert.Equal(t, 4, def.MaxRounds)

		rule, err := def.Rule()
		require.NoError(t, err)
		assert.Equal(t, core.FixedOrder, rule)
		assert.Empty(t, def.Excluded())
	})

	t.Run("yaml sniffed", func(t *testing.T) {
		def, err := ParseDefinition([]byte(yamlDefinition), "")
		require.NoError(t, err)
		assert.True(t, def.Coding)
		require.NotNil(t, def.DefaultLLMConfig)
		assert.Equal(t, "mock", def.DefaultLLMConfig.Provider)
	})

	t.Run("toml", func(t *testing.T) {
		def, err := ParseDefinition([]byte(tomlDefinition), FormatFromPath("trip.toml"))
		require.NoError(t, err)
		rule, err := def.Rule()
		require.NoError(t, err)
		assert.Equal(t, core.NoImmediateRepeat, rule)
		assert.Equal(t, []string{"guide"}, def.Excluded())
	})

	t.Run("json sniffed", func(t *testing.T) {
		def, err := ParseDefinition([]byte(`{"type": "classical", "theme": "space"}`), "")
		require.NoError(t, err)
		assert.False(t, def.HasAgents())
		assert.Equal(t, "space", def.Theme)
	})
}

func TestParseDefinition_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		format Format
	}{
		{"malformed json", `{"agent_configs": [`, FormatJSON},
		{"wrong type", `{"coding": "yes"}`, FormatJSON},
		{"empty agent name", `{"agent_configs": [{"name": ""}]}`, FormatJSON},
		{"bad agent name", `{"agent_configs": [{"name": "two words"}]}`, FormatJSON},
		{"unknown provider", `{"agent_configs": [{"name": "a", "provider": "pigeon"}]}`, FormatJSON},
		{"temperature out of range", `{"agent_configs": [{"name": "a", "temperature": 7}]}`, FormatJSON},
		{"negative rounds", "max_rounds: -1\n", FormatYAML},
		{"unsupported format", `{}`, Format("xml")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefinition([]byte(tt.doc), tt.format)
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestDefinition_EncodeRoundTrip(t *testing.T) {
	def, err := ParseDefinition([]byte(yamlDefinition), FormatYAML)
	require.NoError(t, err)

	for _, format := range []Format{FormatJSON, FormatYAML, FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := def.Encode(format)
			require.NoError(t, err)
			back, err := ParseDefinition(data, format)
			require.NoError(t, err)
			assert.Equal(t, def.Names(), back.Names())
			assert.Equal(t, def.Coding, back.Coding)
		})
	}
}

func TestDefinition_CodingMapping(t *testing.T) {
	def, err := ParseDefinition([]byte(yamlDefinition), FormatYAML)
	require.NoError(t, err)

	roster, err := def.Roster(testFactory(), "")
	require.NoError(t, err)
	assert.Equal(t, core.NoImmediateRepeat, roster.Rule())
	assert.Equal(t, []string{"executor"}, roster.ExcludedFromRepeat())
	assert.Equal(t, 3, roster.Len())
}

func TestDefinition_AgentSpecDefaults(t *testing.T) {
	def, err := ParseDefinition([]byte(yamlDefinition), FormatYAML)
	require.NoError(t, err)
	def.AgentConfigs[0].Provider = ""

	spec := def.Spec(0)
	assert.Equal(t, "mock", spec.Provider)
	require.NotNil(t, spec.Temperature)
	assert.InDelta(t, 0.5, *spec.Temperature, 1e-9)

	assert.Equal(t, "echo", def.Spec(1).Provider)
}

func TestDefinition_RosterErrors(t *testing.T) {
	_, err := (&Definition{}).Roster(testFactory(), "x")
	assert.ErrorIs(t, err, core.ErrInvalidRoster)

	def := &Definition{
		AgentConfigs: []agent.Spec{{Name: "a", Provider: "echo"}, {Name: "b", Provider: "scripted"}},
	}
	_, err = def.Roster(testFactory(), "x")
	assert.ErrorIs(t, err, core.ErrInvalidRoster)

	def = &Definition{
		AgentConfigs: []agent.Spec{{Name: "a", Provider: "echo"}, {Name: "a", Provider: "echo"}},
	}
	_, err = def.Roster(testFactory(), "x")
	assert.ErrorIs(t, err, core.ErrInvalidRoster)

	def = &Definition{
		AgentConfigs: []agent.Spec{{Name: "a", Provider: "echo"}, {Name: "b", Provider: "echo"}},
		RotationRule: "chaos",
	}
	_, err = def.Roster(testFactory(), "x")
	assert.ErrorIs(t, err, core.ErrInvalidRoster)
}

func TestStaticBuilder(t *testing.T) {
	def, err := ParseDefinition([]byte(jsonDefinition), FormatJSON)
	require.NoError(t, err)

	b := NewStaticBuilder(def, testFactory())
	var _ core.Builder = b

	roster, err := b.Build(context.Background(), "write a haiku")
	require.NoError(t, err)
	assert.Equal(t, core.FixedOrder, roster.Rule())

	poet, ok := roster.Lookup("poet")
	require.True(t, ok)
	reply, err := poet.Respond(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "an old silent pond", reply)

	designed, err := b.Design(context.Background(), "")
	require.NoError(t, err)
	assert.Same(t, def, designed)
}
