package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModel_CannedAndDefault(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	m.AddResponse("hello", "hi there")

	resp, err := Collect(context.Background(), m, Request{Messages: []Message{{Role: RoleUser, Text: "hello"}}})
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)

	resp, err = Collect(context.Background(), m, Request{Messages: []Message{{Role: RoleUser, Text: "other"}}})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: other", resp.Text)

	assert.Len(t, m.Requests(), 2)
	assert.Equal(t, Info{Name: "mock-1", Provider: "mock"}, m.Info())
}

func TestMockModel_QueueTakesPrecedence(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.AddResponse("x", "canned")
	m.Enqueue("first", "second")

	req := Request{Messages: []Message{{Role: RoleUser, Text: "x"}}}
	for _, want := range []string{"first", "second", "canned"} {
		resp, err := Collect(context.Background(), m, req)
		require.NoError(t, err)
		assert.Equal(t, want, resp.Text)
	}
}

func TestMockModel_Streaming(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.AddResponse("q", "abc")

	respCh, errCh := m.Generate(context.Background(), Request{Stream: true, Messages: []Message{{Role: RoleUser, Text: "q"}}})
	var partials []string
	var final Response
	for r := range respCh {
		if r.Partial {
			partials = append(partials, r.Text)
			continue
		}
		final = r
	}
	assert.NoError(t, <-errCh)
	assert.Equal(t, []string{"a", "b", "c"}, partials)
	assert.Equal(t, "abc", final.Text)
}

func TestCollect_Errors(t *testing.T) {
	m := NewMockModel("mock", "mock")
	_, err := Collect(context.Background(), m, Request{})
	assert.EqualError(t, err, "no messages provided")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Collect(ctx, m, Request{Messages: []Message{{Role: RoleUser, Text: "x"}}})
	assert.ErrorIs(t, err, context.Canceled)
}
