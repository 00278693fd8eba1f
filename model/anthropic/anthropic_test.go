package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andishehs/MetaGen/model"
)

func TestNewModel_Info(t *testing.T) {
	m := NewModel(func(o *Options) { o.APIKey = "test" })
	assert.Equal(t, "claude-3-5-sonnet-20241022", m.Info().Name)
	assert.Equal(t, "anthropic", m.Info().Provider)

	m = NewModel(func(o *Options) {
		o.APIKey = "test"
		o.Model = "claude-3-5-haiku-latest"
	})
	assert.Equal(t, "claude-3-5-haiku-latest", m.Info().Name)
}

func TestBuildMessages_Alternates(t *testing.T) {
	msgs := buildMessages([]model.Message{
		{Role: model.RoleSystem, Text: "be brief"},
		{Role: model.RoleAssistant, Text: "I start"},
		{Role: model.RoleUser, Name: "critic", Text: "first"},
		{Role: model.RoleUser, Name: "writer", Text: "second"},
		{Role: model.RoleAssistant, Text: "reply"},
	})

	require.Len(t, msgs, 4)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
	assert.Equal(t, "user", string(msgs[2].Role))
	assert.Equal(t, "critic: first\n\nwriter: second", msgs[2].Content[0].OfText.Text)
	assert.Equal(t, "assistant", string(msgs[3].Role))
}

func TestSystemBlocks(t *testing.T) {
	blocks := systemBlocks(model.Request{
		Instructions: "You are the planner.",
		Messages:     []model.Message{{Role: model.RoleSystem, Text: "stay on topic"}, {Role: model.RoleUser, Text: "hi"}},
	})

	require.Len(t, blocks, 2)
	assert.Equal(t, "You are the planner.", blocks[0].Text)
	assert.Equal(t, "stay on topic", blocks[1].Text)
}
