package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	t.Run("no markers", func(t *testing.T) {
		out, err := RenderTemplate("plain text", nil)
		require.NoError(t, err)
		assert.Equal(t, "plain text", out)
	})

	t.Run("state and helpers", func(t *testing.T) {
		out, err := RenderTemplate(
			`You are {{.name}}, the {{lower .role}}. Peers: {{join ", " .agents}}.`,
			map[string]any{"name": "alice", "role": "Critic", "agents": []string{"bob", "carol"}},
		)
		require.NoError(t, err)
		assert.Equal(t, "You are alice, the critic. Peers: bob, carol.", out)
	})

	t.Run("no html escaping", func(t *testing.T) {
		out, err := RenderTemplate(`{{.task}}`, map[string]any{"task": "don't <stop>"})
		require.NoError(t, err)
		assert.Equal(t, "don't <stop>", out)
	})

	t.Run("default helper", func(t *testing.T) {
		out, err := RenderTemplate(`{{default "general" .role}}`, map[string]any{"role": ""})
		require.NoError(t, err)
		assert.Equal(t, "general", out)
	})

	t.Run("parse error", func(t *testing.T) {
		_, err := RenderTemplate("{{.name", nil)
		assert.Error(t, err)
	})
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```\n", `{"a":1}`},
		{"padded", "  \n```yaml\nname: x\n```  ", "name: x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}
